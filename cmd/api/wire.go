package main

import (
	"context"
	"database/sql"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	appadvisor "github.com/bryanwahyu/wifi-survey/internal/application/advisor"
	appenv "github.com/bryanwahyu/wifi-survey/internal/application/environments"
	appsurveys "github.com/bryanwahyu/wifi-survey/internal/application/surveys"
	appusers "github.com/bryanwahyu/wifi-survey/internal/application/users"
	"github.com/bryanwahyu/wifi-survey/internal/config"
	"github.com/bryanwahyu/wifi-survey/internal/domain/advisor"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/infra/ai/openai"
	"github.com/bryanwahyu/wifi-survey/internal/infra/db/memory"
	"github.com/bryanwahyu/wifi-survey/internal/infra/db/mysql"
	"github.com/bryanwahyu/wifi-survey/internal/infra/db/postgres"
	"github.com/bryanwahyu/wifi-survey/internal/infra/storage"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
	"github.com/bryanwahyu/wifi-survey/internal/middleware"
)

// app is the wired set of services shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   store.Store
	archive *storage.Store

	surveys      *appsurveys.Service
	environments *appenv.Service
	users        *appusers.Service
	advisor      *appadvisor.Service

	db *sql.DB
}

// Close releases the database connection pool
func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// openDB connects the configured SQL driver; memory returns a nil db
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return mysql.Connect(ctx, cfg.MySQLDSN())
	case config.DriverPostgres:
		return postgres.Connect(ctx, cfg.PostgresDSN())
	case config.DriverMemory:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func openStore(cfg *config.Config, db *sql.DB) store.Store {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return mysql.NewStore(db)
	case config.DriverPostgres:
		return postgres.NewStore(db)
	default:
		return memory.New()
	}
}

func migrate(ctx context.Context, cfg *config.Config, db *sql.DB) error {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return mysql.Migrate(ctx, db)
	case config.DriverPostgres:
		return postgres.Migrate(ctx, db)
	}
	return nil
}

func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	a := &app{cfg: cfg, log: log, store: openStore(cfg, db), db: db}
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
	}

	var archive surveys.ArchiveStore
	if cfg.Minio.Enabled {
		a.archive, err = storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		archive = a.archive
	}

	var client advisor.Client
	if cfg.OpenAI.APIKey != "" {
		oc := goopenai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		client = openai.NewClientWithConfig(oc, cfg.OpenAI.Model)
	}

	clock := application.SystemClock{}
	a.surveys = appsurveys.NewService(a.store, archive, clock, middleware.IngestRecorder{}, log.With("component", "surveys"))
	a.environments = appenv.NewService(a.store, clock, log.With("component", "environments"))
	a.users = appusers.NewService(a.store, clock, log.With("component", "users"), cfg.BcryptCost)
	a.advisor = appadvisor.NewService(client, a.store, clock, log.With("component", "advisor"))
	return a, nil
}

// checkers lists the dependencies reported by /healthz
func (a *app) checkers() map[string]middleware.HealthChecker {
	out := map[string]middleware.HealthChecker{
		"database": middleware.PingChecker{Target: a.store},
	}
	if a.archive != nil {
		out["archive"] = middleware.PingChecker{Target: a.archive}
	}
	return out
}
