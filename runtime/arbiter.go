package runtime

import (
	"fmt"
	"log/slog"

	"lobby-chat/contract"
	"lobby-chat/domain/chat"
	apperrors "lobby-chat/errors"
	"lobby-chat/repositories"
)

// Arbiter decides admission when a socket presents a session token. It is
// the only component allowed to evict: registering an identity that is
// already online displaces the old connection, which is notified with a
// session_terminated event rather than silently dropped.
type Arbiter struct {
	log         *slog.Logger
	resolver    contract.IdentityResolver
	registry    *Registry
	broadcaster *Broadcaster
	history     repositories.IMessageRepository
	room        chat.RoomID
}

func NewArbiter(log *slog.Logger, resolver contract.IdentityResolver,
	registry *Registry, broadcaster *Broadcaster,
	history repositories.IMessageRepository, room chat.RoomID) *Arbiter {
	return &Arbiter{
		log:         log,
		resolver:    resolver,
		registry:    registry,
		broadcaster: broadcaster,
		history:     history,
		room:        room,
	}
}

// Admit runs the admission protocol for a new connection:
//
//  1. Resolve the token to an identity; a failure is ErrNotAuthenticated
//     and the sink is never registered.
//  2. Register, evicting and notifying any previous connection.
//  3. Replay the room history to the newcomer only.
//  4. Broadcast player_joined (newcomer included) with the new total.
//
// Steps 2-4 run under the publish lock, so the replay is exactly the
// append-ordered history at admission time and no live event can reach the
// newcomer's queue ahead of it. When a superseded connection is evicted,
// no player_left is emitted: from the room's perspective the identity is
// still present under the new connection.
func (a *Arbiter) Admit(token string, sink contract.EventSink) (chat.Identity, error) {
	identity, err := a.resolver.Authenticate(token)
	if err != nil {
		return chat.Identity{}, fmt.Errorf("%w: %v", apperrors.ErrNotAuthenticated, err)
	}
	sink.Bind(identity)

	_, err = a.broadcaster.PublishWith(func() (chat.Event, error) {
		if evicted := a.registry.Register(identity.UserID, sink); evicted != nil {
			a.log.Info("Superseding previous connection",
				"user_id", identity.UserID, "name", identity.Name)
			// Best-effort: a connection that is already closing swallows this.
			evicted.Terminate(chat.NewSessionTerminatedEvent())
		}

		history, err := a.history.ReadAll(a.room)
		if err != nil {
			a.registry.Unregister(identity.UserID, sink)
			return chat.Event{}, fmt.Errorf("%w: %v", apperrors.ErrReplayUnavailable, err)
		}
		if err := sink.Consume(chat.NewHistoryEvent(history)); err != nil {
			a.registry.Unregister(identity.UserID, sink)
			return chat.Event{}, err
		}

		return chat.NewPlayerJoinedEvent(identity, a.registry.Count()), nil
	})
	if err != nil {
		return identity, err
	}

	a.log.Info("Connection admitted",
		"user_id", identity.UserID, "name", identity.Name, "online", a.registry.Count())
	return identity, nil
}

// Depart removes a connection and announces player_left with the remaining
// count. It is a no-op when the sink is no longer the registered connection
// for its identity, or when the closure was eviction-caused: the eviction
// path already kept the room's view consistent via player_joined.
func (a *Arbiter) Depart(sink contract.EventSink, evicted bool) {
	identity := sink.Identity()
	if identity.UserID == "" {
		return
	}

	_, err := a.broadcaster.PublishWith(func() (chat.Event, error) {
		if !a.registry.Unregister(identity.UserID, sink) || evicted {
			return chat.Event{}, ErrNoBroadcast
		}
		return chat.NewPlayerLeftEvent(identity, a.registry.Count()), nil
	})
	if err == nil {
		a.log.Info("Connection departed",
			"user_id", identity.UserID, "name", identity.Name, "online", a.registry.Count())
	}
}
