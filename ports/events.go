package ports

import "context"

// EventPublisher announces onboarding changes to other instances and consumers
type EventPublisher interface {
	PublishProfileSaved(ctx context.Context, walletIdentity string, recordID string, created bool) error
	PublishLogout(ctx context.Context, walletIdentity string, sessionID string) error
}
