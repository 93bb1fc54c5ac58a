// Package container provides dependency injection for the fintrack application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/fintrack/internal/categorizer"
	"fjacquet/fintrack/internal/config"
	"fjacquet/fintrack/internal/csvimport"
	"fjacquet/fintrack/internal/importer"
	"fjacquet/fintrack/internal/ledger"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/recurring"
	"fjacquet/fintrack/internal/store"
)

// ErrNoDatabase is returned when no database URL is configured.
var ErrNoDatabase = errors.New("database.url (or DATABASE_URL) is not set")

// Container holds all application dependencies and provides methods to access them.
// Container is immutable after creation.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     store.Store
	gemini    *categorizer.GeminiClient
	engine    *categorizer.Engine
	learner   *categorizer.Learner
	parser    *csvimport.Parser
	session   *importer.Session
	scheduler *recurring.Scheduler
	ledger    *ledger.Service
	seeder    *store.Seeder
}

// NewContainer opens the configured PostgreSQL database and wires every
// component on top of it.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.Database.URL == "" {
		return nil, ErrNoDatabase
	}

	// Create logger first as it's needed by other components
	logger := config.NewLogger(cfg)

	pg, err := store.OpenPostgres(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, logger)
	if err != nil {
		return nil, err
	}

	c, err := NewContainerWithStore(ctx, cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithStore wires every component on top of st. A nil logger
// is built from the configuration.
func NewContainerWithStore(ctx context.Context, cfg *config.Config, st store.Store, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	// Create AI strategy (if enabled)
	var (
		gemini *categorizer.GeminiClient
		ai     categorizer.CategorizationStrategy
	)
	if cfg.AI.Enabled {
		client, err := categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating AI client: %w", err)
		}
		gemini = client
		ai = categorizer.NewAIStrategy(client, cfg.AITimeout(), logger)
		logger.Info("AI categorization enabled", logging.F("model", cfg.AI.Model))
	} else {
		logger.Debug("AI categorization disabled")
	}

	engine := categorizer.NewEngine(st, ai, logger)
	learner := categorizer.NewLearner(st, logger)

	var ledgerLearner *categorizer.Learner
	if cfg.Categorization.AutoLearn {
		ledgerLearner = learner
	}

	mapperCfg := importer.MapperConfig{
		Workers:             cfg.Import.Workers,
		AutoAcceptThreshold: cfg.Categorization.AutoAcceptThreshold,
		ShowThreshold:       cfg.Categorization.ShowThreshold,
	}

	c := &Container{
		logger:    logger,
		config:    cfg,
		store:     st,
		gemini:    gemini,
		engine:    engine,
		learner:   learner,
		parser:    csvimport.NewParser(logger),
		session:   importer.NewSession(st, engine, mapperCfg, cfg.Import.BatchSize, logger),
		scheduler: recurring.NewScheduler(st, nil, cfg.Location(), logger),
		ledger:    ledger.NewService(st, ledgerLearner, logger),
		seeder:    store.NewSeeder(st, logger),
	}

	logger.Debug("Container initialized successfully",
		logging.F("ai_enabled", cfg.AI.Enabled),
		logging.F("workers", mapperCfg.Workers),
		logging.F("batch_size", cfg.Import.BatchSize))
	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the container's store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetEngine returns the categorization engine.
func (c *Container) GetEngine() *categorizer.Engine {
	return c.engine
}

// GetLearner returns the rule learner.
func (c *Container) GetLearner() *categorizer.Learner {
	return c.learner
}

// GetParser returns the CSV parser.
func (c *Container) GetParser() *csvimport.Parser {
	return c.parser
}

// GetImportSession returns the import pipeline.
func (c *Container) GetImportSession() *importer.Session {
	return c.session
}

// GetScheduler returns the recurrence scheduler.
func (c *Container) GetScheduler() *recurring.Scheduler {
	return c.scheduler
}

// GetLedger returns the transaction edit service.
func (c *Container) GetLedger() *ledger.Service {
	return c.ledger
}

// GetSeeder returns the system data seeder.
func (c *Container) GetSeeder() *store.Seeder {
	return c.seeder
}

// Close releases the AI client and the store.
func (c *Container) Close() error {
	var errs []error
	if c.gemini != nil {
		errs = append(errs, c.gemini.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}
