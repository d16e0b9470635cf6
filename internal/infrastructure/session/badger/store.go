package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/xpubd/internal/core/ports"
)

const keySeparator = "/"

var (
	// ErrNullSessionID ...
	ErrNullSessionID = errors.New("session id must not be null")
	// ErrNullField ...
	ErrNullField = errors.New("session field must not be null")
	// ErrInvalidTTL ...
	ErrInvalidTTL = errors.New("session ttl must be greater than zero")
)

type sessionStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewSessionStore returns an in-memory badger session store whose entries
// expire after ttl since they were last set.
func NewSessionStore(
	ttl time.Duration, logger badger.Logger,
) (ports.SessionStore, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	return &sessionStore{db, ttl}, nil
}

func (s *sessionStore) Get(
	ctx context.Context, sessionID, field string,
) ([]byte, error) {
	key, err := sessionKey(sessionID, field)
	if err != nil {
		return nil, err
	}

	var value []byte
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *sessionStore) Set(
	ctx context.Context, sessionID, field string, value []byte,
) error {
	key, err := sessionKey(sessionID, field)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, value).WithTTL(s.ttl))
	})
}

func (s *sessionStore) Delete(
	ctx context.Context, sessionID, field string,
) error {
	key, err := sessionKey(sessionID, field)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (s *sessionStore) Close() {
	s.db.Close()
}

func sessionKey(sessionID, field string) ([]byte, error) {
	if sessionID == "" {
		return nil, ErrNullSessionID
	}
	if field == "" {
		return nil, ErrNullField
	}
	return []byte(sessionID + keySeparator + field), nil
}
