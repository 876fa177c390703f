//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"lobby-chat/domain/chat"

	"github.com/dgraph-io/badger/v4"
)

const sequenceBandwidth = 128

type IMessageRepository interface {
	Append(room chat.RoomID, message chat.Message) (uint64, error)
	ReadAll(room chat.RoomID) ([]chat.Message, error)
	Close() error
}

type MessageRepository struct {
	db          *badger.DB
	log         *slog.Logger
	limitReplay *int

	mu   sync.Mutex
	seqs map[chat.RoomID]*badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitReplay *int) *MessageRepository {
	return &MessageRepository{
		db:          db,
		log:         log,
		limitReplay: limitReplay,
		seqs:        make(map[chat.RoomID]*badger.Sequence),
	}
}

// Append persists a message under a key formatted as
// "msg:{room}:{sequence_padded}:{uuid}" so that:
//  1. The 19-digit zero padding keeps lexicographic order equal to append order.
//  2. The UUID disambiguates keys if a sequence lease is ever reused.
//
// The returned sequence is the authoritative total order for the room;
// the message timestamp is display-only.
func (m *MessageRepository) Append(room chat.RoomID, message chat.Message) (uint64, error) {
	seq, err := m.nextSequence(room)
	if err != nil {
		return 0, err
	}
	message.Sequence = seq

	key := fmt.Sprintf("msg:%s:%019d:%s", room, seq, message.ID)
	bytes, err := json.Marshal(message)
	if err != nil {
		return 0, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ReadAll returns the room history in append order. When a replay limit is
// configured, only the most recent messages are returned, still ascending.
func (m *MessageRepository) ReadAll(room chat.RoomID) ([]chat.Message, error) {
	if m.limitReplay != nil {
		return m.readLast(room, *m.limitReplay)
	}

	var messages []chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var message chat.Message
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// readLast walks the room backwards, collects up to limit messages, then
// reverses them back into append order.
func (m *MessageRepository) readLast(room chat.RoomID, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible padded sequence, then walk back.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				m.log.Debug("Replay limit reached", "room", room, "limit", limit)
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var message chat.Message
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (m *MessageRepository) nextSequence(room chat.RoomID) (uint64, error) {
	m.mu.Lock()
	seq, ok := m.seqs[room]
	if !ok {
		var err error
		seq, err = m.db.GetSequence([]byte(fmt.Sprintf("seq:msg:%s", room)), sequenceBandwidth)
		if err != nil {
			m.mu.Unlock()
			return 0, err
		}
		m.seqs[room] = seq
	}
	m.mu.Unlock()
	return seq.Next()
}

// Close releases the sequence leases. Unused bandwidth is abandoned, which
// may leave gaps in the sequence but never reorders it.
func (m *MessageRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for room, seq := range m.seqs {
		if err := seq.Release(); err != nil {
			m.log.Warn("Failed to release sequence", "room", room, "err", err)
		}
	}
	m.seqs = make(map[chat.RoomID]*badger.Sequence)
	return nil
}
