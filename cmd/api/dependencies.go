package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	importrepo "github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"

	"github.com/FACorreiaa/statement-ingest/pkg/config"
	"github.com/FACorreiaa/statement-ingest/pkg/cron"
	"github.com/FACorreiaa/statement-ingest/pkg/db"
	"github.com/FACorreiaa/statement-ingest/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	ImportRepo         importrepo.ImportRepository
	CategorizationRepo categorization.Repository

	// Services
	ImportService         *importservice.ImportService
	CategorizationService *categorization.Service
	FileStorage           storage.Storage
	Scheduler             *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	// Initialize services
	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// NewOfflineDependencies wires the services that work without a database:
// file analysis and row classification.
func NewOfflineDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	d := &Dependencies{Config: cfg, Logger: logger}
	d.ImportService = d.newImportService(nil)
	return d
}

// OpenDatabase connects to PostgreSQL with the pool settings used by every command.
func OpenDatabase(cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	return db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, logger)
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := OpenDatabase(d.Config, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() {
	d.ImportRepo = importrepo.NewPostgresImportRepository(d.DB.Pool)
	d.CategorizationRepo = categorization.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	aiCfg := d.Config.AI

	// Categorization: cache, rules and heuristics, with Gemini as the fallback layer
	d.CategorizationService = categorization.NewService(d.CategorizationRepo, d.Logger).
		WithAIBatchSize(aiCfg.BatchSize).
		WithRequestsPerMinute(aiCfg.RequestsPerMinute)
	if aiCfg.Enabled {
		classifier, err := categorization.NewGeminiClassifier(context.Background(), aiCfg.APIKey, aiCfg.Model)
		if err != nil {
			return fmt.Errorf("failed to init gemini classifier: %w", err)
		}
		d.CategorizationService.WithClassifier(classifier)
	} else {
		d.Logger.Info("AI categorization disabled")
	}

	// Import service with categorization wired in
	d.ImportService = d.newImportService(d.ImportRepo)
	d.ImportService.WithCategorizationService(newCategorizationAdapter(d.CategorizationService))

	// Archive for uploaded statements
	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Scheduler = cron.NewScheduler(
		d.CategorizationService,
		d.Config.Worker.RecategorizeSchedule,
		d.Config.Worker.SweepLimit,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) newImportService(repo importrepo.ImportRepository) *importservice.ImportService {
	return importservice.NewImportService(repo, d.Logger).
		WithBatchSize(d.Config.Import.BatchSize).
		WithMaxBytes(d.Config.Import.MaxBytes).
		WithRemoteWrite(d.Config.Import.RemoteWrite)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
