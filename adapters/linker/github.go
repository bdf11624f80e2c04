package linker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultTimeout    = 10 * time.Second

	msgTokenFailed = "Failed to get access token"
)

// GitHubConfig holds the OAuth app credentials
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overrides for tests and GitHub Enterprise; empty means github.com.
	Endpoint   oauth2.Endpoint
	APIBaseURL string
	HTTPClient *http.Client
}

// GitHubLinker links a GitHub login to a wallet through the OAuth web flow
type GitHubLinker struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGitHubLinker creates a linker. Missing credentials are a configuration error.
func NewGitHubLinker(cfg GitHubConfig, logger zerolog.Logger) (*GitHubLinker, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("github oauth credentials: %w", core.ErrNotConfigured)
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = github.Endpoint
	}
	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &GitHubLinker{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"user:email"},
		},
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With().Str("component", "github_linker").Logger(),
	}, nil
}

// AuthCodeURL builds the authorize URL; the wallet travels in the state parameter.
func (l *GitHubLinker) AuthCodeURL(walletIdentity string) string {
	return l.oauth.AuthCodeURL(
		EncodeState(walletIdentity),
		oauth2.SetAuthURLParam("login", ""),
	)
}

// Complete exchanges code for a token and reads the user's login
func (l *GitHubLinker) Complete(ctx context.Context, code, state string) (*core.LinkedIdentity, error) {
	wallet, err := DecodeState(state)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Could not decode OAuth state")
	}

	if code == "" {
		return nil, core.ErrMissingCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.httpClient)

	tok, err := l.oauth.Exchange(ctx, code)
	if err != nil {
		l.logger.Error().Err(err).Str("wallet", wallet).Msg("GitHub token exchange failed")
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorDescription != "" {
			return nil, &core.ProviderError{Message: re.ErrorDescription}
		}
		return nil, &core.ProviderError{Message: msgTokenFailed}
	}

	login, err := l.fetchLogin(ctx, tok)
	if err != nil {
		l.logger.Error().Err(err).Str("wallet", wallet).Msg("GitHub user lookup failed")
		return nil, err
	}

	return &core.LinkedIdentity{WalletIdentity: wallet, Handle: login}, nil
}

func (l *GitHubLinker) fetchLogin(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.apiBaseURL+"/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := l.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrProviderProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", core.ErrProviderProfile, resp.StatusCode)
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrProviderProfile, err)
	}
	if user.Login == "" {
		return "", core.ErrProviderProfile
	}
	return user.Login, nil
}

// EncodeState packs a wallet into the OAuth state parameter.
func EncodeState(walletIdentity string) string {
	return base64.StdEncoding.EncodeToString([]byte(walletIdentity))
}

// DecodeState recovers the wallet from an OAuth state parameter.
func DecodeState(state string) (string, error) {
	if state == "" {
		return "", errors.New("empty state")
	}
	raw, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return "", fmt.Errorf("failed to decode state: %w", err)
	}
	return string(raw), nil
}
