package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/commercegrid/identity-service/pkg/config"
	"github.com/commercegrid/identity-service/pkg/credentials"
	"github.com/commercegrid/identity-service/pkg/identity"
	"github.com/commercegrid/identity-service/pkg/identity/api"
	"github.com/commercegrid/identity-service/pkg/notification"
	"github.com/commercegrid/identity-service/pkg/ratelimit"
	"github.com/commercegrid/identity-service/pkg/token"
	"github.com/commercegrid/identity-service/pkg/verification"
)

// Config aggregates every configurable concern of the service
type Config struct {
	Server       config.ServerConfig
	Database     config.DatabaseConfig
	FileStore    config.FileStoreConfig
	JWT          config.JWTConfig
	Email        config.EmailConfig
	CORS         config.CORSConfig
	RateLimit    config.RateLimitConfig
	Verification config.VerificationConfig
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Error loading .env file")
	}

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	repo, cleanup, err := newUserRepository(cfg)
	if err != nil {
		slog.Error("Failed to initialize user store", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	notifier := newNotifier(cfg.Email)

	tokenExpiry, err := cfg.JWT.ParseAccessTokenExpiry()
	if err != nil {
		slog.Error("Invalid ACCESS_TOKEN_EXPIRY", "value", cfg.JWT.AccessTokenExpiry, "err", err)
		os.Exit(1)
	}
	tokenService := token.NewService(cfg.JWT.Secret, cfg.JWT.Algorithm,
		token.WithExpiry(tokenExpiry),
		token.WithIssuer(cfg.JWT.Issuer),
	)

	codeLifetime, err := time.ParseDuration(cfg.Verification.CodeLifetime)
	if err != nil {
		slog.Error("Invalid VERIFICATION_CODE_LIFETIME", "value", cfg.Verification.CodeLifetime, "err", err)
		os.Exit(1)
	}
	codeManager := verification.NewCodeManager(
		verification.WithCodeLength(cfg.Verification.CodeLength),
		verification.WithCodeLifetime(codeLifetime),
	)

	service := identity.NewService(
		repo,
		notifier,
		credentials.NewArgon2Hasher(credentials.DefaultArgon2Params()),
		credentials.NewDefaultPolicyChecker(nil),
		codeManager,
		tokenService,
		identity.WithDebugCodes(cfg.Verification.DebugCodes),
	)
	if cfg.Verification.DebugCodes {
		slog.Warn("Debug code exposure is enabled, do not use in production")
	}

	tokenAuth := jwtauth.New(cfg.JWT.Algorithm, []byte(cfg.JWT.Secret), nil)
	handler := api.NewHandler(service, tokenAuth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "OK")
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(ratelimit.Middleware(newLimiter(cfg.RateLimit)))
		}
		handler.Routes(r)
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(int(cfg.Server.Port)))
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting identity service", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "err", err)
	}
}

// newUserRepository selects the storage backend: PostgreSQL when a
// database host is configured, otherwise the file-backed store.
func newUserRepository(cfg Config) (identity.UserRepository, func(), error) {
	if cfg.Database.Configured() {
		pool, err := pgxpool.New(context.Background(), cfg.Database.ToDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using PostgreSQL user store", "host", cfg.Database.Host, "database", cfg.Database.Database)
		return identity.NewPostgresUserRepository(pool), pool.Close, nil
	}

	repo, err := identity.NewFileUserRepository(cfg.FileStore.DataDir)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Using file-backed user store", "dir", cfg.FileStore.DataDir)
	return repo, func() {}, nil
}

// newNotifier selects the notification backend: SMTP when a mail host
// is configured, otherwise a no-op notifier that only logs.
func newNotifier(cfg config.EmailConfig) notification.Notifier {
	if cfg.Configured() {
		notifier, err := notification.NewEmailNotifier(cfg.ToSMTPConfig())
		if err == nil {
			return notifier
		}
		slog.Error("Failed to create email notifier, falling back to noop", "err", err)
	}
	return notification.NoopNotifier{}
}

func newLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	ttl, err := time.ParseDuration(cfg.BucketTTL)
	if err != nil {
		ttl = 10 * time.Minute
	}
	return ratelimit.NewLimiter(cfg.Burst, cfg.PerSecond, ttl)
}
