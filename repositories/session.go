//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"
)

// ISessionRepository tracks the single current session id (JWT jti) per
// user. Sessions survive restarts; a websocket disconnect does not delete
// the session, only a new login supersedes it.
type ISessionRepository interface {
	// Put records sessionID as the user's current session, superseding any
	// previous one. The superseded session id is returned when present.
	Put(userID, sessionID string) (string, error)
	IsCurrent(userID, sessionID string) (bool, error)
	Delete(userID string) error
}

type SessionRepository struct {
	db *badger.DB
}

func NewSessionRepository(db *badger.DB) ISessionRepository {
	return &SessionRepository{db: db}
}

func sessionKey(userID string) []byte {
	return []byte("session:" + userID)
}

func (s SessionRepository) Put(userID, sessionID string) (string, error) {
	var previous string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(userID))
		if err == nil {
			err = item.Value(func(val []byte) error {
				previous = string(val)
				return nil
			})
			if err != nil {
				return err
			}
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(sessionKey(userID), []byte(sessionID))
	})
	return previous, err
}

func (s SessionRepository) IsCurrent(userID, sessionID string) (bool, error) {
	var current string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			current = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == sessionID, nil
}

func (s SessionRepository) Delete(userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(userID))
	})
}
