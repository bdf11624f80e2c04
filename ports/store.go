package ports

import (
	"context"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

// SessionStore keeps server-side session state keyed by session ID
type SessionStore interface {
	Save(ctx context.Context, session *core.Session) error
	// Get returns core.ErrSessionNotFound when no live entry exists.
	Get(ctx context.Context, sessionID string) (*core.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
