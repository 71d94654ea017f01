package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rohits-web03/sharegate/internal/api"
	"github.com/rohits-web03/sharegate/internal/api/handlers"
	"github.com/rohits-web03/sharegate/internal/config"
	"github.com/rohits-web03/sharegate/internal/events"
	"github.com/rohits-web03/sharegate/internal/repositories"
	"github.com/rohits-web03/sharegate/internal/share"
	"github.com/rohits-web03/sharegate/internal/storage"
)

type objectStore interface {
	share.ObjectStorage
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if cfg.IsProduction() {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.With().Timestamp().Str("app", cfg.AppName).Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Open(cfg.DBDriver, cfg.DBURL, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var publisher share.Publisher = events.NopPublisher{}
	switch {
	case cfg.NATSURL != "":
		natsPub, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer natsPub.Close()
		publisher = natsPub
	case zerolog.GlobalLevel() <= zerolog.DebugLevel:
		publisher = events.LogPublisher{Log: logger}
	}

	shares := repositories.NewShareStore(db)
	hasher := share.NewBcryptHasher(cfg.BcryptCost)
	gate := share.NewGate(shares, share.NewCredentialVerifier(hasher))
	links := share.NewLinkIssuer(store, cfg.PublicBaseURL, cfg.AppName, cfg.PresignTTL)
	service := share.NewService(shares, gate, share.NewCounter(shares), links, publisher, logger)
	lifecycle := share.NewLifecycle(shares, store, hasher,
		share.WithAccessCodeLength(cfg.AccessCodeLength),
		share.WithPublisher(publisher),
		share.WithLogger(logger),
	)
	uploader := share.NewUploader(store, logger)

	if cfg.JanitorInterval > 0 {
		janitor := share.NewJanitor(lifecycle, cfg.JanitorInterval, logger.With().Str("component", "janitor").Logger())
		janitor.Start()
		defer janitor.Stop()
	}

	router := api.SetupRouter(cfg, api.Handlers{
		Shares: handlers.NewShareHandler(service, lifecycle, uploader, cfg.MaxUploadSize, logger),
		Auth:   handlers.NewAuthHandler(repositories.NewUserStore(db), cfg, logger),
		Health: handlers.Health(map[string]handlers.Check{
			"database": sqlDB.PingContext,
			"storage":  store.Ping,
		}, logger),
	}, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
		// Timeouts prevent resource exhaustion from slow clients
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting sharegate server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (objectStore, error) {
	switch cfg.StorageDriver {
	case "minio":
		return storage.NewMinio(ctx, cfg.Minio, logger)
	default:
		return storage.NewS3(cfg.R2)
	}
}
