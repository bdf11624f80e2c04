package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxFieldLength is the longest value, in characters, a profile field may hold.
// Notion rejects rich text content beyond it.
const MaxFieldLength = 2000

// Stage is the onboarding state of a wallet.
type Stage string

const (
	StageUnauthenticated Stage = "unauthenticated"
	StageNew             Stage = "new"
	StageIncomplete      Stage = "incomplete"
	StageComplete        Stage = "complete"
)

// NextStep tells the client where to send the user after authentication.
type NextStep string

const (
	NextStepProfileForm NextStep = "profile-form"
	NextStepDestination NextStep = "destination"
)

// ProfileFields are the mutable attributes of a profile record
type ProfileFields struct {
	Name              string
	Email             string
	Project           string
	Description       string
	SocialHandle      string
	CodeHostingHandle string
}

type namedField struct {
	name  string
	value string
}

func (f ProfileFields) named() []namedField {
	return []namedField{
		{"name", f.Name},
		{"email", f.Email},
		{"project", f.Project},
		{"description", f.Description},
		{"socialHandle", f.SocialHandle},
		{"codeHostingHandle", f.CodeHostingHandle},
	}
}

// Missing returns the names of required fields that are empty or blank.
func (f ProfileFields) Missing() []string {
	var missing []string
	for _, field := range f.named() {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// TooLong returns the names of fields longer than MaxFieldLength characters.
func (f ProfileFields) TooLong() []string {
	var long []string
	for _, field := range f.named() {
		if utf8.RuneCountInString(field.value) > MaxFieldLength {
			long = append(long, field.name)
		}
	}
	return long
}

// Profile is the directory record kept for one wallet
type Profile struct {
	ID             string    // Directory record identifier
	WalletIdentity string    // Wallet public key, the natural key
	CreatedAt      time.Time // When the record was first created
	ProfileFields
}

// IsComplete reports whether every required field is present.
// It is always computed from the record as loaded, never cached.
func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return len(p.Missing()) == 0
}

// Session represents an authenticated wallet session
type Session struct {
	ID             string    // Unique session identifier, never shown to the client
	WalletIdentity string    // Verified wallet
	IssuedAt       time.Time // When the session was created
	ExpiresAt      time.Time // When the session stops being valid
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Directive is the outcome of an authentication attempt.
type Directive struct {
	Stage       Stage
	NextStep    NextStep
	Token       string   // Opaque session token for the cookie
	Session     *Session // Session backing the token
	Profile     *Profile // Known fields for pre-filling the form, nil for new wallets
	Destination string   // Gated destination, set only for complete profiles
}

// LinkedIdentity is the result of an external identity handshake.
type LinkedIdentity struct {
	WalletIdentity string // Wallet recovered from the state parameter, empty if unknown
	Handle         string // Login on the code-hosting provider
}
