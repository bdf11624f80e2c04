package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasXchen/magicblock-hacker-house/adapters/directory"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/store"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/tokenizer"
	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

const destination = "https://play.workadventu.re/@/magicblock/magicblock-office/startup"

// stubVerifier accepts exactly one signature
type stubVerifier struct {
	valid string
	msg   string
}

func (v *stubVerifier) Verify(_, signature, message string) bool {
	v.msg = message
	return signature == v.valid
}

type recordedEvent struct {
	topic   string
	wallet  string
	id      string
	created bool
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) PublishProfileSaved(_ context.Context, wallet, recordID string, created bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{"profile_saved", wallet, recordID, created})
	return p.err
}

func (p *recordingPublisher) PublishLogout(_ context.Context, wallet, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: "logout", wallet: wallet, id: sessionID})
	return p.err
}

// faultyDirectory fails every call with err
type faultyDirectory struct {
	err     error
	creates int
}

func (d *faultyDirectory) FindByWallet(context.Context, string) (*core.Profile, error) {
	return nil, d.err
}

func (d *faultyDirectory) Create(context.Context, string, core.ProfileFields) (string, error) {
	d.creates++
	return "", d.err
}

func (d *faultyDirectory) Update(context.Context, string, core.ProfileFields) error {
	return d.err
}

type fixture struct {
	svc       *OnboardingService
	sessions  *SessionService
	directory ports.Directory
	events    *recordingPublisher
	verifier  *stubVerifier
}

func newFixture(t *testing.T, dir ports.Directory) *fixture {
	t.Helper()
	if dir == nil {
		dir = directory.NewMemoryDirectory()
	}
	sessions := NewSessionService(
		tokenizer.NewJWTTokenizer([]byte("test-secret-0123456789abcdef0123")),
		store.NewMemoryStore(),
		time.Hour,
	)
	events := &recordingPublisher{}
	verifier := &stubVerifier{valid: "good-sig"}
	svc := NewOnboardingService(verifier, dir, sessions, events, zerolog.Nop(), OnboardingOptions{
		DestinationURL: destination,
	})
	return &fixture{svc: svc, sessions: sessions, directory: dir, events: events, verifier: verifier}
}

func fullFields() core.ProfileFields {
	return core.ProfileFields{
		Name:              "Ada",
		Email:             "ada@example.com",
		Project:           "Ledger",
		Description:       "On-chain bookkeeping",
		SocialHandle:      "@ada",
		CodeHostingHandle: "ada",
	}
}

func TestAuthenticate_Validation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Authenticate(context.Background(), "", "good-sig")
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"walletIdentity"}, ve.Missing)

	_, err = f.svc.Authenticate(context.Background(), "Wk1", "")
	assert.ErrorIs(t, err, core.ErrMissingField)
}

func TestAuthenticate_InvalidSignature(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Authenticate(context.Background(), "Wk1", "forged")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
	assert.Equal(t, DefaultChallengeMessage, f.verifier.msg)
}

func TestAuthenticate_NewWallet(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	d, err := f.svc.Authenticate(ctx, "Wk1", "good-sig")
	require.NoError(t, err)
	assert.Equal(t, core.StageNew, d.Stage)
	assert.Equal(t, core.NextStepProfileForm, d.NextStep)
	assert.Nil(t, d.Profile)
	assert.Empty(t, d.Destination)
	assert.NotEmpty(t, d.Token)

	_, err = f.directory.FindByWallet(ctx, "Wk1")
	assert.ErrorIs(t, err, core.ErrProfileNotFound, "authenticating never creates a record")

	session, err := f.sessions.Validate(ctx, d.Token)
	require.NoError(t, err)
	assert.Equal(t, "Wk1", session.WalletIdentity)
}

func TestAuthenticate_IncompleteProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	fields := fullFields()
	fields.Email = ""
	_, err := f.directory.Create(ctx, "Wk1", fields)
	require.NoError(t, err)

	d, err := f.svc.Authenticate(ctx, "Wk1", "good-sig")
	require.NoError(t, err)
	assert.Equal(t, core.StageIncomplete, d.Stage)
	assert.Equal(t, core.NextStepProfileForm, d.NextStep)
	require.NotNil(t, d.Profile)
	assert.Equal(t, "Ada", d.Profile.Name)
}

func TestAuthenticate_CompleteProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.directory.Create(ctx, "Wk1", fullFields())
	require.NoError(t, err)

	d, err := f.svc.Authenticate(ctx, "Wk1", "good-sig")
	require.NoError(t, err)
	assert.Equal(t, core.StageComplete, d.Stage)
	assert.Equal(t, core.NextStepDestination, d.NextStep)
	assert.Equal(t, destination, d.Destination)
}

func TestAuthenticate_DirectoryFailureFailsClosed(t *testing.T) {
	f := newFixture(t, &faultyDirectory{err: core.ErrUpstream})

	d, err := f.svc.Authenticate(context.Background(), "Wk1", "good-sig")
	require.NoError(t, err)
	assert.Equal(t, core.StageIncomplete, d.Stage)
	assert.Equal(t, core.NextStepProfileForm, d.NextStep)
	assert.Nil(t, d.Profile)
	assert.NotEmpty(t, d.Token, "a verified wallet still gets a session")
}

func TestSubmitProfile_CreateThenUpdate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fullFields())
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, core.NextStepDestination, first.NextStep)
	assert.Equal(t, destination, first.Destination)

	fields := fullFields()
	fields.Project = "Ledger v2"
	second, err := f.svc.SubmitProfile(ctx, "Wk1", "", fields)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.RecordID, second.RecordID, "resubmitting never creates a second record")

	p, err := f.directory.FindByWallet(ctx, "Wk1")
	require.NoError(t, err)
	assert.Equal(t, "Ledger v2", p.Project)
	assert.True(t, p.IsComplete())

	d, err := f.svc.Authenticate(ctx, "Wk1", "good-sig")
	require.NoError(t, err)
	assert.Equal(t, core.StageComplete, d.Stage)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, recordedEvent{"profile_saved", "Wk1", first.RecordID, true}, f.events.events[0])
	assert.False(t, f.events.events[1].created)
}

func TestSubmitProfile_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fullFields())
	require.NoError(t, err)
	b, err := f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fullFields())
	require.NoError(t, err)
	assert.Equal(t, a.RecordID, b.RecordID)
}

func TestSubmitProfile_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	fields := fullFields()
	fields.Description = "   "
	_, err := f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fields)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"description"}, ve.Missing)

	fields = fullFields()
	fields.Email = "not-an-email"
	_, err = f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fields)
	assert.ErrorIs(t, err, core.ErrInvalidField)

	fields.Email = "Ada <ada@example.com>"
	_, err = f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fields)
	assert.ErrorIs(t, err, core.ErrInvalidField)

	fields = fullFields()
	fields.Description = strings.Repeat("x", core.MaxFieldLength+1)
	_, err = f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fields)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"description"}, ve.TooLong)
	assert.ErrorIs(t, err, core.ErrFieldTooLong)

	_, err = f.directory.FindByWallet(ctx, "Wk1")
	assert.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestSubmitProfile_TrimsFields(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	fields := fullFields()
	fields.Name = "  Ada  "
	_, err := f.svc.SubmitProfile(ctx, "Wk1", "Wk1", fields)
	require.NoError(t, err)

	p, err := f.directory.FindByWallet(ctx, "Wk1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
}

func TestSubmitProfile_WalletMismatch(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.SubmitProfile(context.Background(), "Wk1", "Wk2", fullFields())
	assert.ErrorIs(t, err, core.ErrWalletMismatch)
}

func TestSubmitProfile_LookupFailureNeverCreates(t *testing.T) {
	dir := &faultyDirectory{err: errors.New("notion: 502")}
	f := newFixture(t, dir)

	_, err := f.svc.SubmitProfile(context.Background(), "Wk1", "Wk1", fullFields())
	require.Error(t, err)
	assert.Zero(t, dir.creates)
	assert.Empty(t, f.events.events)
}

func TestSubmitProfile_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t, nil)
	f.events.err = errors.New("broker down")

	res, err := f.svc.SubmitProfile(context.Background(), "Wk1", "Wk1", fullFields())
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestFetchProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.FetchProfile(ctx, "")
	assert.ErrorIs(t, err, core.ErrMissingField)

	p, err := f.svc.FetchProfile(ctx, "Wk1")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = f.directory.Create(ctx, "Wk1", fullFields())
	require.NoError(t, err)
	p, err = f.svc.FetchProfile(ctx, "Wk1")
	require.NoError(t, err)
	assert.Equal(t, "Wk1", p.WalletIdentity)

	broken := newFixture(t, &faultyDirectory{err: core.ErrUpstream})
	p, err = broken.svc.FetchProfile(ctx, "Wk1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	d, err := f.svc.Authenticate(ctx, "Wk1", "good-sig")
	require.NoError(t, err)

	session, err := f.svc.CheckSession(ctx, d.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, d.Token))
	_, err = f.svc.CheckSession(ctx, d.Token)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, recordedEvent{topic: "logout", wallet: "Wk1", id: session.ID}, f.events.events[0])

	assert.Error(t, f.svc.Logout(ctx, d.Token))
}
