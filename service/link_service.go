package service

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// LinkService drives the code-hosting identity handshake started from the profile form
type LinkService struct {
	linker   ports.IdentityLinker
	formPath string
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewLinkService creates a link service. A nil linker means the provider is not configured.
func NewLinkService(linker ports.IdentityLinker, formPath string, timeout time.Duration, logger zerolog.Logger) *LinkService {
	if formPath == "" {
		formPath = "/join"
	}
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &LinkService{
		linker:   linker,
		formPath: formPath,
		timeout:  timeout,
		logger:   logger.With().Str("component", "link").Logger(),
	}
}

// Begin returns the provider URL to redirect the browser to
func (s *LinkService) Begin(walletIdentity string) (string, error) {
	if s.linker == nil {
		return "", core.ErrNotConfigured
	}
	return s.linker.AuthCodeURL(walletIdentity), nil
}

// Complete finishes the handshake and returns the form URL carrying the result
func (s *LinkService) Complete(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		return "", core.ErrMissingCode
	}
	if s.linker == nil {
		return "", core.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	identity, err := s.linker.Complete(ctx, code, state)
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("wallet", identity.WalletIdentity).
		Str("handle", identity.Handle).
		Msg("Code-hosting identity linked")

	return s.FormRedirect(identity), nil
}

// FormRedirect builds <form>?walletIdentity=<w>&handle=<h>, keeping that parameter order.
// Any query already on the form path is kept after the two parameters.
func (s *LinkService) FormRedirect(identity *core.LinkedIdentity) string {
	u, err := url.Parse(s.formPath)
	if err != nil {
		u = &url.URL{Path: s.formPath}
	}

	rest := u.Query()
	rest.Del("walletIdentity")
	rest.Del("handle")

	query := "walletIdentity=" + url.QueryEscape(identity.WalletIdentity) +
		"&handle=" + url.QueryEscape(identity.Handle)
	if extra := rest.Encode(); extra != "" {
		query += "&" + extra
	}
	u.RawQuery = query
	return u.String()
}
