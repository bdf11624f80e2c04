package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jonasXchen/magicblock-hacker-house/service"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// RouterConfig holds the transport-level settings
type RouterConfig struct {
	AllowedOrigins  []string
	CookieSecure    bool
	SessionTTL      time.Duration
	Logger          zerolog.Logger
	ReadinessChecks map[string]ReadinessCheck
}

// SetupRouter sets up the Gin router
func SetupRouter(onboarding *service.OnboardingService, link *service.LinkService, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(cfg.Logger))

	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, requestIDHeader)
		router.Use(cors.New(corsConfig))
	}

	handlers := NewOnboardingHandlers(onboarding, link, newCookieSettings(cfg.SessionTTL, cfg.CookieSecure), cfg.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	router.GET("/ready", readyHandler(cfg.ReadinessChecks))

	api := router.Group("/api")
	{
		api.POST("/auth", handlers.Authenticate)
		api.GET("/user", handlers.User)
		api.GET("/verify-session", handlers.VerifySession)
		api.POST("/logout", handlers.Logout)
		api.GET("/auth/github", handlers.GitHubStart)
		api.GET("/auth/github/callback", handlers.GitHubCallback)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(SessionMiddleware(onboarding))
	{
		protected.POST("/join", handlers.Join)
	}

	return router
}

func readyHandler(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
