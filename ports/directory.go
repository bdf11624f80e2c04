package ports

import (
	"context"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

// Directory is the external profile store, keyed by wallet identity.
type Directory interface {
	// FindByWallet returns the most recent profile for the wallet, or
	// core.ErrProfileNotFound.
	FindByWallet(ctx context.Context, walletIdentity string) (*core.Profile, error)
	Create(ctx context.Context, walletIdentity string, fields core.ProfileFields) (string, error)
	Update(ctx context.Context, recordID string, fields core.ProfileFields) error
}
