// Package app wires configuration, storage and services into a runnable server
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"luxwise/cv-back/api"
	"luxwise/cv-back/cachestore"
	"luxwise/cv-back/config"
	"luxwise/cv-back/db"
	"luxwise/cv-back/middleware"
	"luxwise/cv-back/security"
	"luxwise/cv-back/service"
	"luxwise/cv-back/storage"
)

const (
	shutdownTimeout   = 10 * time.Second
	limiterSweepEvery = time.Minute
	readHeaderTimeout = 10 * time.Second
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	api        *api.API
	registrar  *service.Registrar
	limiter    *middleware.RateLimiter
	closeCache func() error
}

// New connects to everything the server depends on. Failing here means the
// server can't start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	d, err := db.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	tokens, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RegisterKeyPEM, cfg.RegisterIssuer, cfg.RegisterAudience)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer, %w", err)
	}

	var store service.ObjectStore
	if cfg.StorageType == "s3" {
		s3, err := storage.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}
		store = s3
	}

	cacheStore, closeCache, err := cachestore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize response cache, %w", err)
	}

	argon := security.NewArgon()
	transport := service.NewAuditedTransport(d, nil, cfg.AuditBodyLimit)

	identity := service.NewIdentityClient(cfg.IdentityURL, service.NewAuditedClient(transport, cfg.IdentityTimeout))
	registrar := service.NewRegistrar(d, argon, tokens, identity, service.NewMailer(cfg.SMTP), cfg.RegistrationTTL)

	cv := service.NewCVService(d, store)
	generator := service.NewGenerator(d, cv, cfg.GenerationURL, service.NewAuditedClient(transport, cfg.GenerationTimeout))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimit*2)

	a := api.NewRouter(cfg, api.Deps{
		DB:        d,
		Registrar: registrar,
		Auth:      service.NewAuthenticator(d, argon, tokens),
		CV:        cv,
		Generator: generator,
		Limiter:   limiter,
		Cache:     cacheStore,
	})

	return &App{
		cfg:        cfg,
		db:         d,
		api:        a,
		registrar:  registrar,
		limiter:    limiter,
		closeCache: closeCache,
	}, nil
}

// Run serves HTTP and the background cleanups until ctx is done, then shuts
// the server down gracefully
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(a.cfg.Port),
		Handler:           a.api.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed, %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.registrar.RunReclaimer(ctx, a.cfg.CleanupInterval)
	})

	g.Go(func() error {
		return a.limiter.Run(ctx, limiterSweepEvery)
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.close()

	return err
}

func (a *App) close() {
	if err := a.closeCache(); err != nil {
		zap.L().Warn("Failed to close cache", zap.Error(err))
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			zap.L().Warn("Failed to close database", zap.Error(err))
		}
	}
}
