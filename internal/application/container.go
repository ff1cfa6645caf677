// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"

	"github.com/jbctechsolutions/tokenmeter/internal/application/estimate"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/config"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/logging"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/storage"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	config  *config.Config
	verbose bool // raise log level to debug when true

	logger *logging.Logger
	tracer *tracing.Tracer

	registry *tokenizer.Registry
	prices   *pricing.Table

	estimateService *estimate.Service

	// historyRepo is nil when history is disabled.
	historyRepo *storage.HistoryRepository
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initPricing(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize pricing: %w", err)
	}

	c.registry = tokenizer.NewDefault(
		tokenizer.WithCharsPerToken(cfg.Heuristic.CharsPerToken),
	)
	c.estimateService = estimate.NewService(c.registry, c.prices, c.logger, c.tracer)

	if cfg.History.Enabled {
		if err := c.initHistory(); err != nil {
			// History is a convenience; an unopenable database must not
			// block estimation.
			c.logger.Warn("failed to open history database", "error", err)
		}
	}

	return c, nil
}

// initObservability initializes the logging and tracing subsystems.
func (c *Container) initObservability() error {
	ctx := context.Background()

	logLevel := logging.LevelInfo
	if c.verbose {
		logLevel = logging.LevelDebug
	} else {
		switch c.config.Logging.Level {
		case "debug":
			logLevel = logging.LevelDebug
		case "info":
			logLevel = logging.LevelInfo
		case "warn":
			logLevel = logging.LevelWarn
		case "error":
			logLevel = logging.LevelError
		}
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	c.logger = logging.New(logging.Config{
		Level:  logLevel,
		Format: logFormat,
	})

	if c.config.Tracing.Enabled {
		tracer, err := tracing.New(ctx, tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Tracing.ExporterType),
			OTLPEndpoint: c.config.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	return nil
}

// initPricing loads the built-in table plus any user overrides.
func (c *Container) initPricing() error {
	table, err := config.LoadPricingOverrides(c.config.Pricing.File)
	if err != nil {
		return err
	}
	c.prices = table
	return nil
}

// initHistory opens the estimate history database.
func (c *Container) initHistory() error {
	path, err := config.ExpandHome(c.config.History.Path)
	if err != nil {
		return err
	}

	repo, err := storage.OpenHistory(path)
	if err != nil {
		return err
	}
	c.historyRepo = repo
	return nil
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	ctx := context.Background()

	if c.tracer != nil {
		_ = c.tracer.Shutdown(ctx)
	}

	if c.historyRepo != nil {
		return c.historyRepo.Close()
	}
	return nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the OpenTelemetry tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Registry returns the model registry.
func (c *Container) Registry() *tokenizer.Registry {
	return c.registry
}

// Prices returns the effective pricing table (defaults plus overrides).
func (c *Container) Prices() *pricing.Table {
	return c.prices
}

// EstimateService returns the count/cost estimation service.
func (c *Container) EstimateService() *estimate.Service {
	return c.estimateService
}

// HistoryRepository returns the estimate history store.
// Returns nil if history is disabled or failed to open.
func (c *Container) HistoryRepository() *storage.HistoryRepository {
	return c.historyRepo
}
