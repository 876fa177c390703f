package services_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"lobby-chat/domain/chat"
	"lobby-chat/mocks"
	"lobby-chat/moderation"
	"lobby-chat/runtime"
	"lobby-chat/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type lobbyFixture struct {
	svc      *services.LobbyService
	registry *runtime.Registry
	messages *mocks.MockIMessageRepository
	index    *mocks.MockISearchIndex
	sink     *mocks.MockEventSink
	received *[]chat.Event
}

func newLobbyFixture(t *testing.T) lobbyFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	moderator, err := moderation.NewModerator([]string{"noob"}, '*')
	require.NoError(t, err)

	messages := mocks.NewMockIMessageRepository(ctrl)
	index := mocks.NewMockISearchIndex(ctrl)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(slog.Default(), registry)

	var received []chat.Event
	sink := mocks.NewMockEventSink(ctrl)
	sink.EXPECT().Identity().Return(chat.Identity{UserID: "user-a", Name: "Alice"}).AnyTimes()
	sink.EXPECT().Consume(gomock.Any()).DoAndReturn(func(e chat.Event) error {
		received = append(received, e)
		return nil
	}).AnyTimes()
	registry.Register("user-a", sink)

	svc := services.NewLobbyService(slog.Default(), chat.Lobby, &moderator,
		messages, index, registry, broadcaster)
	return lobbyFixture{
		svc:      svc,
		registry: registry,
		messages: messages,
		index:    index,
		sink:     sink,
		received: &received,
	}
}

func TestLobbyService_PostMessage(t *testing.T) {
	sender := chat.Identity{UserID: "user-a", Name: "Alice"}

	t.Run("should persist, broadcast, and index a message", func(t *testing.T) {
		req := require.New(t)
		f := newLobbyFixture(t)

		f.messages.EXPECT().
			Append(chat.Lobby, gomock.Any()).
			Return(uint64(42), nil).
			Times(1)
		f.index.EXPECT().
			Index(gomock.Any()).
			DoAndReturn(func(m chat.Message) error {
				require.Equal(t, uint64(42), m.Sequence)
				return nil
			}).
			Times(1)

		event, err := f.svc.PostMessage(context.Background(), sender, "hello everyone")

		req.NoError(err)
		req.Equal(chat.EventChatMessage, event.Type)
		req.Equal("hello everyone", event.Text)
		req.Equal("Alice", event.Sender)
		req.Len(*f.received, 1)
	})

	t.Run("should censor flagged words before anything is stored", func(t *testing.T) {
		req := require.New(t)
		f := newLobbyFixture(t)

		f.messages.EXPECT().
			Append(chat.Lobby, gomock.Any()).
			DoAndReturn(func(_ chat.RoomID, m chat.Message) (uint64, error) {
				require.Equal(t, "you ****", m.Text)
				return 1, nil
			}).
			Times(1)
		f.index.EXPECT().Index(gomock.Any()).Return(nil).Times(1)

		event, err := f.svc.PostMessage(context.Background(), sender, "you noob")

		req.NoError(err)
		req.Equal("you ****", event.Text)
	})

	t.Run("should drop a whitespace-only message", func(t *testing.T) {
		req := require.New(t)
		f := newLobbyFixture(t)

		f.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

		event, err := f.svc.PostMessage(context.Background(), sender, "   \t  ")

		req.NoError(err)
		req.Zero(event)
		req.Empty(*f.received)
	})

	t.Run("should broadcast nothing when the append fails", func(t *testing.T) {
		req := require.New(t)
		f := newLobbyFixture(t)

		f.messages.EXPECT().
			Append(chat.Lobby, gomock.Any()).
			Return(uint64(0), fmt.Errorf("disk full")).
			Times(1)

		_, err := f.svc.PostMessage(context.Background(), sender, "hello")

		req.Error(err)
		req.Empty(*f.received)
	})

	t.Run("should still deliver when indexing fails", func(t *testing.T) {
		req := require.New(t)
		f := newLobbyFixture(t)

		f.messages.EXPECT().Append(chat.Lobby, gomock.Any()).Return(uint64(1), nil).Times(1)
		f.index.EXPECT().Index(gomock.Any()).Return(fmt.Errorf("index unavailable")).Times(1)

		_, err := f.svc.PostMessage(context.Background(), sender, "hello")

		req.NoError(err)
		req.Len(*f.received, 1)
	})
}

func TestLobbyService_OnlineUsers(t *testing.T) {
	req := require.New(t)
	f := newLobbyFixture(t)

	users := f.svc.OnlineUsers()
	req.Len(users, 1)
	req.Equal("Alice", users[0].Name)
}

func TestLobbyService_SearchMessages(t *testing.T) {
	req := require.New(t)
	f := newLobbyFixture(t)

	expected := []chat.Message{{Text: "hello"}}
	f.index.EXPECT().Search(gomock.Any(), "hello", 10).Return(expected, nil).Times(1)

	results, err := f.svc.SearchMessages(context.Background(), "hello", 10)
	req.NoError(err)
	req.Equal(expected, results)
}
