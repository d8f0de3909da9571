package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parisxmas/checkindesk/internal/config"
	"github.com/parisxmas/checkindesk/internal/db"
	"github.com/parisxmas/checkindesk/internal/events"
	"github.com/parisxmas/checkindesk/internal/logging"
	"github.com/parisxmas/checkindesk/internal/metrics"
	"github.com/parisxmas/checkindesk/internal/repository"
	"github.com/parisxmas/checkindesk/internal/service"
	"github.com/parisxmas/checkindesk/internal/storage"
	"github.com/parisxmas/checkindesk/internal/validation"
)

// app holds the wired services shared by the serve and CLI commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Store
	repo    *repository.SubmissionRepo
	events  events.Publisher
	metrics *metrics.Metrics
	form    *service.FormService
	viewer  *service.ViewerService

	closeLog func() error
}

func newApp(ctx context.Context, cfg *config.Config, logLevel string) (*app, error) {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, closeLog := logging.New(logging.Options{
		Level:    level,
		Format:   cfg.Log.Format,
		GelfAddr: cfg.Log.GelfAddr,
		Service:  appName,
	})
	slog.SetDefault(logger)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		closeLog()
		return nil, err
	}
	logger.Info("storage ready", slog.String("backend", cfg.Store.Backend), slog.String("key", cfg.StorageKey))

	var pub events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		np, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			logger.Warn("NATS connect failed", slog.String("url", cfg.NATS.URL), slog.String("error", err.Error()))
		} else {
			pub = np
			logger.Info("NATS events enabled", slog.String("url", cfg.NATS.URL), slog.String("prefix", cfg.NATS.SubjectPrefix))
		}
	}

	m := metrics.New()
	repo := repository.NewSubmissionRepo(storage.NewAccessor(store, logger), cfg.StorageKey, logger)
	m.Stored.Set(float64(repo.Count(ctx)))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		repo:     repo,
		events:   pub,
		metrics:  m,
		form:     service.NewFormService(repo, validation.New(time.Now), pub, m, logger),
		viewer:   service.NewViewerService(repo, pub, m, logger),
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.logger.Warn("events close failed", slog.String("error", err.Error()))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("storage close failed", slog.String("error", err.Error()))
	}
	_ = a.closeLog()
}

// openStore builds the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	sc := cfg.Store
	switch sc.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	case config.BackendFile:
		return storage.NewFileStore(sc.Dir)
	case config.BackendSQLite:
		return storage.NewSQLiteStore(sc.SQLitePath)
	case config.BackendOxiDB:
		pool, err := db.NewPool(sc.OxiDB.Host, sc.OxiDB.Port, sc.OxiDB.PoolSize, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to OxiDB: %w", err)
		}
		logger.Info("connected to OxiDB",
			slog.String("host", sc.OxiDB.Host), slog.Int("port", sc.OxiDB.Port), slog.Int("pool_size", pool.Size()))
		store, err := storage.NewOxiDBStore(ctx, pool, sc.OxiDB.Bucket)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case config.BackendPostgres:
		return storage.NewPostgresStore(sc.DSN)
	case config.BackendGCS:
		return storage.NewGCSStore(ctx, sc.GCS.Bucket, sc.GCS.Prefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}
