package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/service"
)

// OnboardingHandlers contains HTTP handlers for the onboarding endpoints
type OnboardingHandlers struct {
	onboarding *service.OnboardingService
	link       *service.LinkService
	cookies    cookieSettings
	logger     zerolog.Logger
}

// NewOnboardingHandlers creates new onboarding handlers
func NewOnboardingHandlers(onboarding *service.OnboardingService, link *service.LinkService, cookies cookieSettings, logger zerolog.Logger) *OnboardingHandlers {
	return &OnboardingHandlers{
		onboarding: onboarding,
		link:       link,
		cookies:    cookies,
		logger:     logger,
	}
}

type profileResponse struct {
	ID                string    `json:"id"`
	WalletIdentity    string    `json:"walletIdentity"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Project           string    `json:"project"`
	Description       string    `json:"description"`
	SocialHandle      string    `json:"socialHandle"`
	CodeHostingHandle string    `json:"codeHostingHandle"`
	CreatedAt         time.Time `json:"createdAt,omitzero"`
}

func toProfileResponse(p *core.Profile) *profileResponse {
	if p == nil {
		return nil
	}
	return &profileResponse{
		ID:                p.ID,
		WalletIdentity:    p.WalletIdentity,
		Name:              p.Name,
		Email:             p.Email,
		Project:           p.Project,
		Description:       p.Description,
		SocialHandle:      p.SocialHandle,
		CodeHostingHandle: p.CodeHostingHandle,
		CreatedAt:         p.CreatedAt,
	}
}

// Authenticate handles wallet signature authentication
func (h *OnboardingHandlers) Authenticate(c *gin.Context) {
	var req struct {
		WalletIdentity string `json:"walletIdentity"`
		SignatureProof string `json:"signatureProof"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	directive, err := h.onboarding.Authenticate(c.Request.Context(), req.WalletIdentity, req.SignatureProof)
	if err != nil {
		switch core.KindOf(err) {
		case core.KindValidation:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing walletIdentity or signatureProof"})
		case core.KindAuth:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		default:
			h.logger.Error().Err(err).Str("wallet", req.WalletIdentity).Msg("Authentication failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	h.cookies.set(c, directive.Token)

	resp := gin.H{
		"nextStep":       directive.NextStep,
		"walletIdentity": req.WalletIdentity,
		"stage":          directive.Stage,
	}
	if directive.Profile != nil {
		resp["profile"] = toProfileResponse(directive.Profile)
	}
	if directive.Destination != "" {
		resp["destination"] = directive.Destination
	}
	c.JSON(http.StatusOK, resp)
}

// Join handles profile form submission for the session's wallet
func (h *OnboardingHandlers) Join(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req struct {
		Name              string `json:"name"`
		Email             string `json:"email"`
		Project           string `json:"project"`
		Description       string `json:"description"`
		SocialHandle      string `json:"socialHandle"`
		CodeHostingHandle string `json:"codeHostingHandle"`
		WalletIdentity    string `json:"walletIdentity"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.onboarding.SubmitProfile(c.Request.Context(), session.WalletIdentity, req.WalletIdentity, core.ProfileFields{
		Name:              req.Name,
		Email:             req.Email,
		Project:           req.Project,
		Description:       req.Description,
		SocialHandle:      req.SocialHandle,
		CodeHostingHandle: req.CodeHostingHandle,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMissingField):
			c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		case errors.Is(err, core.ErrFieldTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Fields must be at most %d characters", core.MaxFieldLength)})
		case errors.Is(err, core.ErrInvalidField):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		case errors.Is(err, core.ErrWalletMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet does not match session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit form"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"recordId":    result.RecordID,
		"nextStep":    result.NextStep,
		"destination": result.Destination,
	})
}

// User returns the stored profile for a wallet, or null
func (h *OnboardingHandlers) User(c *gin.Context) {
	wallet := c.Query("walletIdentity")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing walletIdentity"})
		return
	}

	profile, err := h.onboarding.FetchProfile(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing walletIdentity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toProfileResponse(profile)})
}

// VerifySession reports whether the request carries a live session
func (h *OnboardingHandlers) VerifySession(c *gin.Context) {
	session, err := h.onboarding.CheckSession(c.Request.Context(), sessionToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated":  true,
		"walletIdentity": session.WalletIdentity,
	})
}

// Logout revokes the session and clears the cookie
func (h *OnboardingHandlers) Logout(c *gin.Context) {
	if err := h.onboarding.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		// Logging out of a dead session still clears the cookie.
		h.logger.Debug().Err(err).Msg("Logout without a live session")
	}

	h.cookies.clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GitHubStart redirects the browser to GitHub's authorize page
func (h *OnboardingHandlers) GitHubStart(c *gin.Context) {
	target, err := h.link.Begin(c.Query("walletIdentity"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "GitHub ID not configured"})
		return
	}

	c.Redirect(http.StatusFound, target)
}

// GitHubCallback completes the GitHub handshake and returns to the profile form
func (h *OnboardingHandlers) GitHubCallback(c *gin.Context) {
	target, err := h.link.Complete(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		var pe *core.ProviderError
		switch {
		case errors.Is(err, core.ErrMissingCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No authorization code provided"})
		case errors.Is(err, core.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "GitHub credentials not configured"})
		case errors.As(err, &pe):
			c.JSON(http.StatusBadRequest, gin.H{"error": pe.Message})
		case errors.Is(err, core.ErrProviderProfile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get GitHub user info"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate with GitHub"})
		}
		return
	}

	c.Redirect(http.StatusFound, target)
}
