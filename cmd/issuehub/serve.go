package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/issuehub/internal/cache"
	"github.com/dropDatabas3/issuehub/internal/config"
	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/email"
	httpserver "github.com/dropDatabas3/issuehub/internal/http"
	apikeyctl "github.com/dropDatabas3/issuehub/internal/http/controllers/apikey"
	authctl "github.com/dropDatabas3/issuehub/internal/http/controllers/auth"
	findingctl "github.com/dropDatabas3/issuehub/internal/http/controllers/finding"
	healthctl "github.com/dropDatabas3/issuehub/internal/http/controllers/health"
	trackerctl "github.com/dropDatabas3/issuehub/internal/http/controllers/tracker"
	apikeysvc "github.com/dropDatabas3/issuehub/internal/http/services/apikey"
	authsvc "github.com/dropDatabas3/issuehub/internal/http/services/auth"
	findingsvc "github.com/dropDatabas3/issuehub/internal/http/services/finding"
	trackersvc "github.com/dropDatabas3/issuehub/internal/http/services/tracker"
	jwtx "github.com/dropDatabas3/issuehub/internal/jwt"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/rate"
	"github.com/dropDatabas3/issuehub/internal/store/memrepo"
	"github.com/dropDatabas3/issuehub/internal/store/memstate"
	"github.com/dropDatabas3/issuehub/internal/store/pg"
	"github.com/dropDatabas3/issuehub/internal/store/redisstate"
	"github.com/dropDatabas3/issuehub/internal/tracker"
)

const stateSweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "issuehub",
	})
	defer func() { _ = logger.Sync() }()

	issuer, err := jwtx.NewIssuerFromEnv(cfg.Session.Issuer)
	if err != nil {
		return err
	}
	issuer.SessionTTL = config.Duration(cfg.Session.TTL, jwtx.DefaultSessionTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var (
		users      repository.UserRepository
		keys       repository.APIKeyRepository
		states     repository.OAuthStateLedger
		pgStore    *pg.Store
		background []func(context.Context) error
		health     = map[string]healthctl.Pinger{}
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pgStore, err = pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime, time.Hour),
		})
		if err != nil {
			return err
		}
		defer pgStore.Close()
		users = pgStore.Users()
		keys = pgStore.APIKeys()
		health["postgres"] = pgStore
	case "memory":
		logger.L().Warn("storage driver memory: solo para desarrollo")
		users = memrepo.NewUsers()
		keys = memrepo.NewAPIKeys()
	default:
		return fmt.Errorf("storage driver desconocido: %q", cfg.Storage.Driver)
	}

	// Ledger de states CSRF
	switch cfg.StateLedger.Backend {
	case "postgres":
		if pgStore == nil {
			return fmt.Errorf("state_ledger postgres requiere storage postgres")
		}
		pgStates := pgStore.OAuthStates()
		states = pgStates
		background = append(background, func(ctx context.Context) error {
			pgStates.RunSweeper(ctx, stateSweepInterval)
			return nil
		})
	case "redis":
		rl, err := redisstate.New(redisstate.Config{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Prefix + ":oauthstate",
		})
		if err != nil {
			return err
		}
		states = rl
	case "memory":
		states = memstate.New()
	}

	// Cache de metadata del tracker
	cacheClient, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Driver,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Prefix,
		DefaultTTL: config.Duration(cfg.Cache.DefaultTTL, 5*time.Minute),
	})
	if err != nil {
		return err
	}
	defer func() { _ = cacheClient.Close() }()
	health["cache"] = cacheClient

	var loginLimiter rate.Limiter
	if cfg.RateLimit.Max > 0 {
		loginLimiter, err = rate.New(rate.Config{
			Driver:   cfg.RateLimit.Backend,
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Prefix + ":rl",
			Max:      cfg.RateLimit.Max,
			Window:   config.Duration(cfg.RateLimit.Window, time.Minute),
		})
		if err != nil {
			return err
		}
	}

	notifier := email.NewNotifier(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		FromEmail: cfg.SMTP.FromEmail,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		TLSMode:   cfg.SMTP.TLSMode,
	})

	trkClient := tracker.New(tracker.Config{
		ClientID:     cfg.Tracker.ClientID,
		ClientSecret: cfg.Tracker.ClientSecret,
		RedirectURL:  cfg.Tracker.RedirectURL,
		Scopes:       cfg.Tracker.Scopes,
	})
	tokenSource := tracker.NewTokenSource(users, trkClient)

	// Services
	authS := authsvc.NewService(authsvc.Deps{Users: users, Issuer: issuer})
	keyS := apikeysvc.NewService(apikeysvc.Deps{Keys: keys, Users: users, Notifier: notifier})
	trkS := trackersvc.NewService(trackersvc.Deps{
		Users:    users,
		States:   states,
		Client:   trkClient,
		Source:   tokenSource,
		Cache:    cacheClient,
		Notifier: notifier,
	})
	findS := findingsvc.NewService(findingsvc.Deps{Users: users, Client: trkClient, Source: tokenSource})

	var poolFn func() *pgxpool.Pool
	if pgStore != nil {
		poolFn = pgStore.Pool
	}
	metricsHandler, err := httpserver.RegisterMetrics(httpserver.MetricsConfig{Pool: poolFn})
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(httpserver.Controllers{
		Auth: authctl.NewController(authS),
		Tracker: trackerctl.NewController(trkS, trackerctl.RedirectConfig{
			SuccessURL: cfg.Tracker.SuccessURL,
			ErrorURL:   cfg.Tracker.ErrorURL,
		}),
		APIKeys: apikeyctl.NewController(keyS),
		Finding: findingctl.NewController(findS),
		Health:  healthctl.NewController(health),
	}, httpserver.RouterDeps{
		Issuer:       issuer,
		KeyValidator: keyS,
		Metrics:      metricsHandler,
		LoginLimiter: loginLimiter,
	})

	return httpserver.Serve(ctx, httpserver.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     config.Duration(cfg.Server.ReadTimeout, 0),
		WriteTimeout:    config.Duration(cfg.Server.WriteTimeout, 0),
		ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout, 0),
	}, router, background...)
}
