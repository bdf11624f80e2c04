package core

import (
	"errors"
	"strings"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidField     = errors.New("malformed field")
	ErrFieldTooLong     = errors.New("field too long")
	ErrInvalidToken     = errors.New("invalid token")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrWalletMismatch   = errors.New("wallet does not match session")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUpstream         = errors.New("upstream service failed")
	ErrNotConfigured    = errors.New("not configured")
	ErrMissingCode      = errors.New("no authorization code provided")
	ErrProviderExchange = errors.New("provider code exchange failed")
	ErrProviderProfile  = errors.New("provider profile has no handle")
)

// Kind groups errors by how they are reported to clients.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindUpstream
	KindConfig
)

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrFieldTooLong), errors.Is(err, ErrMissingCode):
		return KindValidation
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrWalletMismatch):
		return KindAuth
	case errors.Is(err, ErrNotConfigured):
		return KindConfig
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrProviderExchange), errors.Is(err, ErrProviderProfile):
		return KindUpstream
	}
	return KindInternal
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Missing   []string
	TooLong   []string
	Malformed []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.TooLong) > 0 {
		parts = append(parts, "too long: "+strings.Join(e.TooLong, ", "))
	}
	if len(e.Malformed) > 0 {
		parts = append(parts, "malformed: "+strings.Join(e.Malformed, ", "))
	}
	return "validation failed (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error {
	switch {
	case len(e.Missing) > 0:
		return ErrMissingField
	case len(e.TooLong) > 0:
		return ErrFieldTooLong
	}
	return ErrInvalidField
}

// ProviderError carries the identity provider's own description of a failure.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return "provider: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return ErrProviderExchange
}
