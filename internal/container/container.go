package container

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anime-shed/notes-ai-go/internal/config"
	"github.com/anime-shed/notes-ai-go/internal/controller"
	"github.com/anime-shed/notes-ai-go/internal/factory"
	"github.com/anime-shed/notes-ai-go/internal/functions"
	"github.com/anime-shed/notes-ai-go/internal/language"
	"github.com/anime-shed/notes-ai-go/internal/logger"
	"github.com/anime-shed/notes-ai-go/internal/observer"
	"github.com/anime-shed/notes-ai-go/internal/repository"
	"github.com/anime-shed/notes-ai-go/internal/session"
	"github.com/anime-shed/notes-ai-go/internal/storage"
	"github.com/anime-shed/notes-ai-go/internal/transport"
	"github.com/anime-shed/notes-ai-go/internal/vision"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	db       *gorm.DB
	blobs    storage.BlobStorage
	events   *observer.EventPublisher
	registry *controller.Registry
	notes    repository.NoteRepository
	metrics  *prometheus.Registry
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	// Metrics
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsObserver, err := observer.NewMetricsObserver(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metricsObserver)

	// Build dependency graph
	blobs, err := factory.NewStorageFactory(cfg).CreateStorage(factory.StorageType(cfg.StorageBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create blob storage: %w", err)
	}

	caller := functions.NewHTTPCaller(cfg.FunctionsBaseURL)
	visionService := vision.NewService(caller, blobs, cfg.AI)
	languageService := language.NewService(caller, cfg.AI)
	registry := controller.NewRegistry(visionService, languageService, events)

	db, err := repository.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	notes := repository.NewGormNoteRepository(db, languageService)

	deps := transport.Dependencies{
		Registry: registry,
		Notes:    notes,
		Verifier: session.NewTokenVerifier(cfg.AuthTokenSecret),
		Metrics:  promhttp.HandlerFor(metrics, promhttp.HandlerOpts{Registry: metrics}),
	}
	if cfg.StorageBackend == config.StorageLocal {
		deps.BlobDir = cfg.LocalBlobDir
	}
	handler := transport.NewHandler(deps, cfg)

	logger.WithFields(logrus.Fields{
		"storage_backend": cfg.StorageBackend,
		"functions_url":   cfg.FunctionsBaseURL,
		"database":        cfg.DatabasePath,
	}).Info("Container initialized")

	return &Container{
		config:   cfg,
		db:       db,
		blobs:    blobs,
		events:   events,
		registry: registry,
		notes:    notes,
		metrics:  metrics,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Registry returns the per-user interaction controllers
func (c *Container) Registry() *controller.Registry {
	return c.registry
}

// Close releases the database connection
func (c *Container) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
