//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"lobby-chat/domain/chat"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// ISearchIndex is the full-text index over chat messages. Indexing is
// best-effort: a failed index write never blocks the chat path.
type ISearchIndex interface {
	Index(message chat.Message) error
	Search(ctx context.Context, terms string, limit int) ([]chat.Message, error)
}

type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

func (s *SearchIndex) Index(message chat.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Text).StoreValue()).
		AddField(bluge.NewTextField("sender", message.Sender).StoreValue()).
		AddField(bluge.NewKeywordField("room", string(message.Room)).StoreValue()).
		AddField(bluge.NewKeywordField("user_id", message.UserID).StoreValue()).
		AddField(bluge.NewKeywordField("at", message.At.UTC().Format(time.RFC3339Nano)).StoreValue()).
		AddField(bluge.NewKeywordField("sequence", strconv.FormatUint(message.Sequence, 10)).StoreValue())

	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query against message content and rebuilds messages
// from stored fields, best match first.
func (s *SearchIndex) Search(ctx context.Context, terms string, limit int) ([]chat.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close index reader", "err", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField("content")
	request := bluge.NewTopNSearch(limit, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var messages []chat.Message
	match, err := iterator.Next()
	for err == nil && match != nil {
		var message chat.Message
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				message.ID, _ = uuid.Parse(string(value))
			case "content":
				message.Text = string(value)
			case "sender":
				message.Sender = string(value)
			case "room":
				message.Room = chat.RoomID(value)
			case "user_id":
				message.UserID = string(value)
			case "at":
				message.At, _ = time.Parse(time.RFC3339Nano, string(value))
			case "sequence":
				message.Sequence, _ = strconv.ParseUint(string(value), 10, 64)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		messages = append(messages, message)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}
