package runtime_test

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"lobby-chat/domain/chat"
	apperrors "lobby-chat/errors"
	"lobby-chat/mocks"
	"lobby-chat/runtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestArbiter(t *testing.T, history []chat.Message, historyErr error) (*runtime.Arbiter, *runtime.Registry) {
	t.Helper()
	ctrl := gomock.NewController(t)

	resolver := mocks.NewMockIdentityResolver(ctrl)
	resolver.EXPECT().Authenticate(gomock.Any()).DoAndReturn(func(token string) (chat.Identity, error) {
		switch token {
		case "token-alice":
			return chat.Identity{UserID: "user-a", Name: "Alice"}, nil
		case "token-bob":
			return chat.Identity{UserID: "user-b", Name: "Bob"}, nil
		default:
			return chat.Identity{}, fmt.Errorf("unknown session")
		}
	}).AnyTimes()

	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().ReadAll(chat.Lobby).DoAndReturn(func(chat.RoomID) ([]chat.Message, error) {
		return history, historyErr
	}).AnyTimes()

	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(slog.Default(), registry)
	arbiter := runtime.NewArbiter(slog.Default(), resolver, registry, broadcaster, messages, chat.Lobby)
	return arbiter, registry
}

func TestArbiter_Admit(t *testing.T) {
	history := []chat.Message{{
		ID:       uuid.New(),
		Room:     chat.Lobby,
		Sender:   "Clara",
		Text:     "welcome",
		At:       time.Now().UTC(),
		Sequence: 1,
	}}

	t.Run("should replay history before announcing the join", func(t *testing.T) {
		req := require.New(t)
		arbiter, registry := newTestArbiter(t, history, nil)
		sink := newStubSink(chat.Identity{})

		identity, err := arbiter.Admit("token-alice", sink)
		req.NoError(err)
		req.Equal("user-a", identity.UserID)
		req.Equal(identity, sink.Identity())
		req.Equal(1, registry.Count())

		events := sink.recorded()
		req.Equal([]chat.EventType{chat.EventChatHistory, chat.EventPlayerJoined}, eventTypes(events))
		req.Len(events[0].Messages, 1)
		req.Equal("welcome", events[0].Messages[0].Text)
		req.Equal(1, events[1].TotalPlayers)
	})

	t.Run("should send an empty history to the first joiner of a quiet room", func(t *testing.T) {
		req := require.New(t)
		arbiter, _ := newTestArbiter(t, nil, nil)
		sink := newStubSink(chat.Identity{})

		_, err := arbiter.Admit("token-alice", sink)
		req.NoError(err)

		events := sink.recorded()
		req.Equal(chat.EventChatHistory, events[0].Type)
		req.NotNil(events[0].Messages)
		req.Empty(events[0].Messages)
	})

	t.Run("should reject an unknown token without registering", func(t *testing.T) {
		req := require.New(t)
		arbiter, registry := newTestArbiter(t, nil, nil)
		sink := newStubSink(chat.Identity{})

		_, err := arbiter.Admit("token-garbage", sink)
		req.ErrorIs(err, apperrors.ErrNotAuthenticated)
		req.Equal(0, registry.Count())
		req.Empty(sink.recorded())
	})

	t.Run("should roll back the registration when replay fails", func(t *testing.T) {
		req := require.New(t)
		arbiter, registry := newTestArbiter(t, nil, fmt.Errorf("disk on fire"))
		sink := newStubSink(chat.Identity{})

		_, err := arbiter.Admit("token-alice", sink)
		req.ErrorIs(err, apperrors.ErrReplayUnavailable)
		req.Equal(0, registry.Count())
	})
}

func TestArbiter_Supersede(t *testing.T) {
	req := require.New(t)
	arbiter, registry := newTestArbiter(t, nil, nil)

	first := newStubSink(chat.Identity{})
	second := newStubSink(chat.Identity{})
	observer := newStubSink(chat.Identity{})

	_, err := arbiter.Admit("token-bob", observer)
	req.NoError(err)
	_, err = arbiter.Admit("token-alice", first)
	req.NoError(err)

	// Second login for the same identity displaces the first connection.
	_, err = arbiter.Admit("token-alice", second)
	req.NoError(err)

	terminations := first.terminations()
	req.Len(terminations, 1)
	req.Equal(chat.EventSessionTerminated, terminations[0].Type)
	req.Empty(second.terminations())
	req.Equal(2, registry.Count())

	current, ok := registry.Lookup("user-a")
	req.True(ok)
	req.Same(second, current.(*stubSink))

	// The evicted connection's departure announces nothing: the identity
	// is still in the room under its new connection.
	arbiter.Depart(first, true)
	req.Equal(2, registry.Count())
	for _, e := range observer.recorded() {
		req.NotEqual(chat.EventPlayerLeft, e.Type)
	}

	// The replacement connection saw two joins for its identity in total,
	// its own and none from the eviction.
	types := eventTypes(observer.recorded())
	req.Equal([]chat.EventType{
		chat.EventChatHistory,
		chat.EventPlayerJoined, // observer itself
		chat.EventPlayerJoined, // first connection
		chat.EventPlayerJoined, // second connection
	}, types)
}

func TestArbiter_Depart(t *testing.T) {
	t.Run("should announce player_left with the remaining count", func(t *testing.T) {
		req := require.New(t)
		arbiter, registry := newTestArbiter(t, nil, nil)

		alice := newStubSink(chat.Identity{})
		bob := newStubSink(chat.Identity{})
		_, err := arbiter.Admit("token-alice", alice)
		req.NoError(err)
		_, err = arbiter.Admit("token-bob", bob)
		req.NoError(err)

		arbiter.Depart(alice, false)
		req.Equal(1, registry.Count())

		events := bob.recorded()
		last := events[len(events)-1]
		req.Equal(chat.EventPlayerLeft, last.Type)
		req.Equal("user-a", last.UserID)
		req.Equal(1, last.RemainingPlayers)
	})

	t.Run("should be idempotent for a double departure", func(t *testing.T) {
		req := require.New(t)
		arbiter, registry := newTestArbiter(t, nil, nil)

		alice := newStubSink(chat.Identity{})
		bob := newStubSink(chat.Identity{})
		_, err := arbiter.Admit("token-alice", alice)
		req.NoError(err)
		_, err = arbiter.Admit("token-bob", bob)
		req.NoError(err)

		arbiter.Depart(alice, false)
		arbiter.Depart(alice, false)

		left := 0
		for _, e := range bob.recorded() {
			if e.Type == chat.EventPlayerLeft {
				left++
			}
		}
		req.Equal(1, left)
		req.Equal(1, registry.Count())
	})

	t.Run("should ignore a connection that was never admitted", func(t *testing.T) {
		req := require.New(t)
		arbiter, registry := newTestArbiter(t, nil, nil)

		arbiter.Depart(newStubSink(chat.Identity{}), false)
		req.Equal(0, registry.Count())
	})
}
