package ports

import (
	"context"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

// IdentityLinker runs an OAuth handshake with a code-hosting provider
type IdentityLinker interface {
	AuthCodeURL(walletIdentity string) string
	Complete(ctx context.Context, code, state string) (*core.LinkedIdentity, error)
}
