package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

const (
	TopicProfileSaved = "hackerhouse.profile_saved"
	TopicLogout       = "hackerhouse.logout"
)

// ProfileSavedEvent is published after a profile submission is persisted
type ProfileSavedEvent struct {
	WalletIdentity string `json:"wallet_identity"`
	RecordID       string `json:"record_id"`
	Created        bool   `json:"created"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	WalletIdentity string `json:"wallet_identity"`
	SessionID      string `json:"session_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishProfileSaved publishes a profile saved event
func (p *WatermillPublisher) PublishProfileSaved(ctx context.Context, walletIdentity string, recordID string, created bool) error {
	return p.publish(ctx, TopicProfileSaved, ProfileSavedEvent{
		WalletIdentity: walletIdentity,
		RecordID:       recordID,
		Created:        created,
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, walletIdentity string, sessionID string) error {
	return p.publish(ctx, TopicLogout, LogoutEvent{
		WalletIdentity: walletIdentity,
		SessionID:      sessionID,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
