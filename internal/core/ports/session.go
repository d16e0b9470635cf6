package ports

import "context"

// SessionStore persists per-session fields for a limited amount of time.
// A session is identified by an opaque id carried by the transport layer.
type SessionStore interface {
	// Get returns the value of field for the given session, or nil if either
	// the session or the field don't exist or are expired.
	Get(ctx context.Context, sessionID, field string) ([]byte, error)
	// Set stores value for field in the given session and refreshes the
	// session lifetime.
	Set(ctx context.Context, sessionID, field string, value []byte) error
	// Delete removes field from the given session.
	Delete(ctx context.Context, sessionID, field string) error
	Close()
}
