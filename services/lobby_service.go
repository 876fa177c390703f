//go:generate go run go.uber.org/mock/mockgen -source=lobby_service.go -destination=../mocks/mock_lobby_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lobby-chat/domain/chat"
	"lobby-chat/moderation"
	"lobby-chat/repositories"
	"lobby-chat/runtime"

	"github.com/google/uuid"
)

type ILobbyService interface {
	PostMessage(ctx context.Context, sender chat.Identity, text string) (chat.Event, error)
	OnlineUsers() []chat.Identity
	SearchMessages(ctx context.Context, terms string, limit int) ([]chat.Message, error)
}

// LobbyService is the chat path behind the connection handlers: moderation,
// durable append, search indexing, and fan-out.
type LobbyService struct {
	log         *slog.Logger
	room        chat.RoomID
	moderator   *moderation.Moderator
	messages    repositories.IMessageRepository
	index       repositories.ISearchIndex
	registry    *runtime.Registry
	broadcaster *runtime.Broadcaster
}

func NewLobbyService(log *slog.Logger, room chat.RoomID, moderator *moderation.Moderator,
	messages repositories.IMessageRepository, index repositories.ISearchIndex,
	registry *runtime.Registry, broadcaster *runtime.Broadcaster) *LobbyService {
	return &LobbyService{
		log:         log,
		room:        room,
		moderator:   moderator,
		messages:    messages,
		index:       index,
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// PostMessage moderates, persists, and broadcasts one chat message. The
// append and the fan-out happen under the publish lock, so every connection
// observes messages in append order. A storage failure is returned to the
// caller and nothing is broadcast.
func (s *LobbyService) PostMessage(ctx context.Context, sender chat.Identity, text string) (chat.Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Event{}, nil
	}

	censored, foundWords := s.moderator.Censor(text)

	message := chat.Message{
		ID:     uuid.New(),
		Room:   s.room,
		UserID: sender.UserID,
		Sender: sender.Name,
		Text:   censored,
		Lang:   moderation.DetectLanguage(text),
		At:     time.Now().UTC(),
	}

	event, err := s.broadcaster.PublishWith(func() (chat.Event, error) {
		seq, err := s.messages.Append(s.room, message)
		if err != nil {
			return chat.Event{}, err
		}
		message.Sequence = seq
		return chat.NewChatMessageEvent(message), nil
	})
	if err != nil {
		return chat.Event{}, err
	}

	if len(foundWords) > 0 {
		s.log.Info("Censored message",
			"author", sender.Name, "words", foundWords)
	}

	// Indexing is best-effort; the message is already durable and delivered.
	if s.index != nil {
		if err := s.index.Index(message); err != nil {
			s.log.Warn("Failed to index message", "id", message.ID, "err", err)
		}
	}

	return event, nil
}

func (s *LobbyService) OnlineUsers() []chat.Identity {
	return s.registry.Identities()
}

func (s *LobbyService) SearchMessages(ctx context.Context, terms string, limit int) ([]chat.Message, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, terms, limit)
}
