package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

const (
	DefaultChallengeMessage = "Sign to join MagicBlock Hacker House"
	DefaultUpstreamTimeout  = 10 * time.Second
)

// OnboardingOptions tunes the onboarding service; zero values take defaults
type OnboardingOptions struct {
	ChallengeMessage string
	DestinationURL   string
	UpstreamTimeout  time.Duration
}

// OnboardingService decides where a wallet is in onboarding and what comes next
type OnboardingService struct {
	verifier  ports.SignatureVerifier
	directory ports.Directory
	sessions  *SessionService
	eventPub  ports.EventPublisher
	logger    zerolog.Logger

	challenge   string
	destination string
	timeout     time.Duration
}

// SubmitResult describes a persisted profile submission
type SubmitResult struct {
	RecordID    string
	Created     bool
	NextStep    core.NextStep
	Destination string
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(
	verifier ports.SignatureVerifier,
	directory ports.Directory,
	sessions *SessionService,
	eventPub ports.EventPublisher,
	logger zerolog.Logger,
	opts OnboardingOptions,
) *OnboardingService {
	s := &OnboardingService{
		verifier:    verifier,
		directory:   directory,
		sessions:    sessions,
		eventPub:    eventPub,
		logger:      logger.With().Str("component", "onboarding").Logger(),
		challenge:   opts.ChallengeMessage,
		destination: opts.DestinationURL,
		timeout:     opts.UpstreamTimeout,
	}
	if s.challenge == "" {
		s.challenge = DefaultChallengeMessage
	}
	if s.timeout <= 0 {
		s.timeout = DefaultUpstreamTimeout
	}
	return s
}

// ChallengeMessage returns the text wallets are asked to sign
func (s *OnboardingService) ChallengeMessage() string {
	return s.challenge
}

// Authenticate verifies the wallet's signature, classifies its profile and issues a session.
func (s *OnboardingService) Authenticate(ctx context.Context, walletIdentity, signature string) (*core.Directive, error) {
	var missing []string
	if walletIdentity == "" {
		missing = append(missing, "walletIdentity")
	}
	if signature == "" {
		missing = append(missing, "signatureProof")
	}
	if len(missing) > 0 {
		return nil, &core.ValidationError{Missing: missing}
	}

	if !s.verifier.Verify(walletIdentity, signature, s.challenge) {
		return nil, core.ErrInvalidSignature
	}

	directive := s.classify(ctx, walletIdentity)

	token, session, err := s.sessions.Issue(ctx, walletIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	directive.Token = token
	directive.Session = session

	s.logger.Info().
		Str("wallet", walletIdentity).
		Str("stage", string(directive.Stage)).
		Str("next_step", string(directive.NextStep)).
		Msg("Wallet authenticated")

	return directive, nil
}

// classify never grants the destination on an ambiguous lookup.
func (s *OnboardingService) classify(ctx context.Context, walletIdentity string) *core.Directive {
	profile, err := s.lookup(ctx, walletIdentity)
	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		return &core.Directive{Stage: core.StageNew, NextStep: core.NextStepProfileForm}
	case err != nil:
		s.logger.Warn().Err(err).
			Str("wallet", walletIdentity).
			Str("stage", string(core.StageIncomplete)).
			Msg("Profile lookup failed, sending wallet to the form")
		return &core.Directive{Stage: core.StageIncomplete, NextStep: core.NextStepProfileForm}
	case profile.IsComplete():
		return &core.Directive{
			Stage:       core.StageComplete,
			NextStep:    core.NextStepDestination,
			Profile:     profile,
			Destination: s.destination,
		}
	default:
		return &core.Directive{Stage: core.StageIncomplete, NextStep: core.NextStepProfileForm, Profile: profile}
	}
}

// SubmitProfile validates and persists a profile for the session's wallet.
// bodyWallet is the wallet named in the request, if any.
func (s *OnboardingService) SubmitProfile(ctx context.Context, sessionWallet, bodyWallet string, fields core.ProfileFields) (*SubmitResult, error) {
	if bodyWallet != "" && bodyWallet != sessionWallet {
		return nil, core.ErrWalletMismatch
	}

	fields = trimFields(fields)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, sessionWallet)
	if err != nil && !errors.Is(err, core.ErrProfileNotFound) {
		s.logger.Error().Err(err).Str("wallet", sessionWallet).Msg("Profile lookup failed before save")
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	result := &SubmitResult{NextStep: core.NextStepDestination, Destination: s.destination}

	upCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if existing != nil {
		if err := s.directory.Update(upCtx, existing.ID, fields); err != nil {
			s.logger.Error().Err(err).Str("wallet", sessionWallet).Str("record_id", existing.ID).Msg("Profile update failed")
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		result.RecordID = existing.ID
	} else {
		id, err := s.directory.Create(upCtx, sessionWallet, fields)
		if err != nil {
			s.logger.Error().Err(err).Str("wallet", sessionWallet).Msg("Profile create failed")
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		result.RecordID = id
		result.Created = true
	}

	if err := s.eventPub.PublishProfileSaved(ctx, sessionWallet, result.RecordID, result.Created); err != nil {
		s.logger.Warn().Err(err).Str("wallet", sessionWallet).Msg("Failed to publish profile saved event")
	}

	s.logger.Info().
		Str("wallet", sessionWallet).
		Str("record_id", result.RecordID).
		Bool("created", result.Created).
		Msg("Profile saved")

	return result, nil
}

// FetchProfile returns the wallet's profile, or nil when none can be read.
func (s *OnboardingService) FetchProfile(ctx context.Context, walletIdentity string) (*core.Profile, error) {
	if walletIdentity == "" {
		return nil, &core.ValidationError{Missing: []string{"walletIdentity"}}
	}

	profile, err := s.lookup(ctx, walletIdentity)
	if err != nil {
		if !errors.Is(err, core.ErrProfileNotFound) {
			s.logger.Warn().Err(err).Str("wallet", walletIdentity).Msg("Profile fetch failed")
		}
		return nil, nil
	}
	return profile, nil
}

// CheckSession resolves a session token
func (s *OnboardingService) CheckSession(ctx context.Context, token string) (*core.Session, error) {
	return s.sessions.Validate(ctx, token)
}

// Logout revokes the session behind token
func (s *OnboardingService) Logout(ctx context.Context, token string) error {
	session, err := s.sessions.Revoke(ctx, token)
	if err != nil {
		return err
	}

	if err := s.eventPub.PublishLogout(ctx, session.WalletIdentity, session.ID); err != nil {
		s.logger.Warn().Err(err).Str("wallet", session.WalletIdentity).Msg("Failed to publish logout event")
	}
	return nil
}

func (s *OnboardingService) lookup(ctx context.Context, walletIdentity string) (*core.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.directory.FindByWallet(ctx, walletIdentity)
}

func trimFields(f core.ProfileFields) core.ProfileFields {
	return core.ProfileFields{
		Name:              strings.TrimSpace(f.Name),
		Email:             strings.TrimSpace(f.Email),
		Project:           strings.TrimSpace(f.Project),
		Description:       strings.TrimSpace(f.Description),
		SocialHandle:      strings.TrimSpace(f.SocialHandle),
		CodeHostingHandle: strings.TrimSpace(f.CodeHostingHandle),
	}
}

func validateFields(f core.ProfileFields) error {
	if missing := f.Missing(); len(missing) > 0 {
		return &core.ValidationError{Missing: missing}
	}
	if long := f.TooLong(); len(long) > 0 {
		return &core.ValidationError{TooLong: long}
	}
	addr, err := mail.ParseAddress(f.Email)
	if err != nil || addr.Address != f.Email {
		return &core.ValidationError{Malformed: []string{"email"}}
	}
	return nil
}
