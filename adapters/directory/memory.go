package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// MemoryDirectory is an in-memory implementation of the Directory interface
type MemoryDirectory struct {
	mu       sync.RWMutex
	records  map[string]*core.Profile // by record ID
	byWallet map[string]string        // wallet -> record ID
	now      func() time.Time
}

// NewMemoryDirectory creates a new in-memory directory
func NewMemoryDirectory() ports.Directory {
	return &MemoryDirectory{
		records:  make(map[string]*core.Profile),
		byWallet: make(map[string]string),
		now:      time.Now,
	}
}

func (d *MemoryDirectory) FindByWallet(_ context.Context, walletIdentity string) (*core.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byWallet[walletIdentity]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	p := *d.records[id]
	return &p, nil
}

func (d *MemoryDirectory) Create(_ context.Context, walletIdentity string, fields core.ProfileFields) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byWallet[walletIdentity]; exists {
		return "", fmt.Errorf("profile for wallet already exists: %w", core.ErrUpstream)
	}

	id := uuid.NewString()
	d.records[id] = &core.Profile{
		ID:             id,
		WalletIdentity: walletIdentity,
		CreatedAt:      d.now(),
		ProfileFields:  fields,
	}
	d.byWallet[walletIdentity] = id
	return id, nil
}

func (d *MemoryDirectory) Update(_ context.Context, recordID string, fields core.ProfileFields) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[recordID]
	if !ok {
		return core.ErrProfileNotFound
	}
	rec.ProfileFields = fields
	return nil
}
