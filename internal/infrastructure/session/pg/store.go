package sessionpg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/ports"
)

const (
	upsertSession = `
INSERT INTO session (id, field, value, expires_at)
VALUES ($1, $2, $3, now() + make_interval(secs => $4))
ON CONFLICT (id, field)
DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	selectSession = `
SELECT value FROM session
WHERE id = $1 AND field = $2 AND expires_at > now()`

	deleteSession = `DELETE FROM session WHERE id = $1 AND field = $2`

	deleteExpiredSessions = `DELETE FROM session WHERE expires_at <= now()`
)

var (
	// ErrNullSessionID ...
	ErrNullSessionID = errors.New("session id must not be null")
	// ErrNullField ...
	ErrNullField = errors.New("session field must not be null")
	// ErrInvalidTTL ...
	ErrInvalidTTL = errors.New("session ttl must be greater than zero")
)

type sessionStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	quit chan struct{}
}

// NewSessionStore returns a session store backed by the session table of
// the given postgres database, so that every process connected to it shares
// the same sessions. The table is created by the postgres account store
// migrations. Expired rows are pruned every ttl.
func NewSessionStore(
	dataSourceURL string, ttl time.Duration,
) (ports.SessionStore, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	pool, err := pgxpool.Connect(context.Background(), dataSourceURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to session db: %w", err)
	}

	s := &sessionStore{pool, ttl, make(chan struct{})}
	go s.pruneExpired()

	return s, nil
}

func (s *sessionStore) Get(
	ctx context.Context, sessionID, field string,
) ([]byte, error) {
	if err := validateArgs(sessionID, field); err != nil {
		return nil, err
	}

	var value []byte
	if err := s.pool.QueryRow(
		ctx, selectSession, sessionID, field,
	).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (s *sessionStore) Set(
	ctx context.Context, sessionID, field string, value []byte,
) error {
	if err := validateArgs(sessionID, field); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.pool.Exec(
		ctx, upsertSession, sessionID, field, value, s.ttl.Seconds(),
	)
	return err
}

func (s *sessionStore) Delete(
	ctx context.Context, sessionID, field string,
) error {
	if err := validateArgs(sessionID, field); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, deleteSession, sessionID, field)
	return err
}

func (s *sessionStore) Close() {
	close(s.quit)
	s.pool.Close()
}

func (s *sessionStore) pruneExpired() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.pool.Exec(
				context.Background(), deleteExpiredSessions,
			); err != nil {
				log.WithError(err).Warn("failed to prune expired sessions")
			}
		case <-s.quit:
			return
		}
	}
}

func validateArgs(sessionID, field string) error {
	if sessionID == "" {
		return ErrNullSessionID
	}
	if field == "" {
		return ErrNullField
	}
	return nil
}
