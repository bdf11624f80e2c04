package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/jomei/notionapi"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jonasXchen/magicblock-hacker-house/adapters/directory"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/events"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/linker"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/store"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/tokenizer"
	"github.com/jonasXchen/magicblock-hacker-house/adapters/verifier"
	"github.com/jonasXchen/magicblock-hacker-house/internal/config"
	"github.com/jonasXchen/magicblock-hacker-house/internal/logger"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
	"github.com/jonasXchen/magicblock-hacker-house/service"
	httpapi "github.com/jonasXchen/magicblock-hacker-house/transport/http"
)

const serviceName = "hackerhouse"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	lg := logger.Init(serviceName, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal().Err(err).Msg("Service stopped with error")
	}
	lg.Info().Msg("Server exited")
}

func run(ctx context.Context, cfg *config.Config, lg zerolog.Logger) error {
	checks := map[string]httpapi.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return err
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	dir, db, err := buildDirectory(ctx, cfg, lg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["postgres"] = db.PingContext
	}

	var sessionStore ports.SessionStore
	switch cfg.Session.Backend {
	case "redis":
		sessionStore = store.NewRedisStore(redisClient)
	default:
		memStore := store.NewMemoryStore()
		go memStore.RunSweeper(ctx, cfg.Session.SweepInterval, lg.With().Str("component", "session_sweeper").Logger())
		sessionStore = memStore
	}

	publisher, err := buildPublisher(cfg, redisClient, lg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var identityLinker ports.IdentityLinker
	if cfg.GitHubConfigured() {
		gh, err := linker.NewGitHubLinker(linker.GitHubConfig{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.CallbackURL,
			HTTPClient:   &http.Client{Timeout: cfg.Onboarding.UpstreamTimeout},
		}, lg)
		if err != nil {
			return err
		}
		identityLinker = gh
	} else {
		lg.Warn().Msg("GitHub OAuth is not configured, code-hosting linking is disabled")
	}

	sessions := service.NewSessionService(
		tokenizer.NewJWTTokenizer([]byte(cfg.Session.Secret)),
		sessionStore,
		cfg.Session.TTL,
	)
	onboarding := service.NewOnboardingService(
		verifier.NewMultiVerifier(),
		dir,
		sessions,
		events.NewWatermillPublisher(publisher),
		lg,
		service.OnboardingOptions{
			ChallengeMessage: cfg.Onboarding.ChallengeMessage,
			DestinationURL:   cfg.Onboarding.DestinationURL,
			UpstreamTimeout:  cfg.Onboarding.UpstreamTimeout,
		},
	)
	link := service.NewLinkService(identityLinker, cfg.Onboarding.ProfileFormPath, cfg.Onboarding.UpstreamTimeout, lg)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.SetupRouter(onboarding, link, httpapi.RouterConfig{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		CookieSecure:    cfg.Server.CookieSecure,
		SessionTTL:      sessions.TTL(),
		Logger:          lg.With().Str("component", "http").Logger(),
		ReadinessChecks: checks,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		lg.Info().
			Str("addr", cfg.Server.Addr).
			Str("directory", cfg.Directory.Backend).
			Str("sessions", cfg.Session.Backend).
			Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	lg.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func buildDirectory(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (ports.Directory, *sql.DB, error) {
	switch cfg.Directory.Backend {
	case "notion":
		client := notionapi.NewClient(notionapi.Token(cfg.Notion.APIKey))
		return directory.NewNotionDirectory(client, cfg.Notion.DatabaseID, lg), nil, nil
	case "postgres":
		db, err := directory.OpenPostgres(ctx, cfg.Directory.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Directory.AutoMigrate {
			if err := directory.RunMigrations(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return directory.NewPostgresDirectory(db, cfg.Directory.Collection), db, nil
	default:
		lg.Warn().Msg("Using the in-memory directory, profiles are lost on restart")
		return directory.NewMemoryDirectory(), nil, nil
	}
}

func buildPublisher(cfg *config.Config, redisClient *redis.Client, lg zerolog.Logger) (message.Publisher, error) {
	wmLogger := logger.NewWatermillAdapter(lg)
	if cfg.Events.Stream {
		return redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			wmLogger,
		)
	}
	return gochannel.NewGoChannel(gochannel.Config{}, wmLogger), nil
}
