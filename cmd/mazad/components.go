package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/imagesearch"
	"github.com/hyperjump/mazad/internal/indexsync"
	"github.com/hyperjump/mazad/internal/keyword"
	"github.com/hyperjump/mazad/internal/search"
	"github.com/hyperjump/mazad/internal/storage"
	"github.com/hyperjump/mazad/pkg/utils"
)

// loadConfig loads .env and then the config file. When path is the default,
// config.yaml in the current directory wins if present (for development); when
// neither exists the built-in defaults are used. Returns the config and the
// path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads config and builds the logger for a command.
func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLoggerWithOptions(utils.LogOptions{Debug: cfg.Debug, File: cfg.LogFile})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.String("driver", cfg.Storage.Driver))
	return cfg, logger, nil
}

// newExpander builds the expander from the configured dictionaries.
func newExpander(cfg *config.Config, logger *zap.Logger) (*expand.Expander, error) {
	e := expand.New(expand.WithLogger(logger))
	switch {
	case cfg.Expansion.DictionaryPath != "":
		if err := e.ReloadFile(cfg.Expansion.DictionaryPath, cfg.Expansion.SymmetricConcepts); err != nil {
			return nil, err
		}
	case cfg.Expansion.SymmetricConcepts:
		e.Reload(expand.DefaultDictionaries().SymmetricConcepts())
	}
	return e, nil
}

// Components holds the wired application services.
type Components struct {
	Config   *config.Config
	Storage  storage.Storage
	Index    *keyword.BleveIndex
	Expander *expand.Expander
	Spell    *keyword.SpellChecker
	Syncer   *indexsync.Syncer
	Engine   *search.Engine
	Images   *imagesearch.Service
}

// Close releases the index and the store.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return storage.NewPostgresStorage(ctx, cfg.Storage.DatabaseURL)
	default:
		return storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Config: cfg}
	var err error

	c.Storage, err = openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	c.Index, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}
	c.Expander, err = newExpander(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Spell = keyword.NewSpellChecker(c.Index, keyword.WithTranspositions())
	c.Syncer = indexsync.NewSyncer(c.Storage, c.Index,
		indexsync.WithBatchSize(cfg.Sync.BatchSize),
		indexsync.WithLogger(logger),
		indexsync.WithOnChange(c.Spell.Invalidate),
	)

	engineOpts := []search.Option{
		search.WithSpellChecker(c.Spell),
		search.WithLogger(logger),
	}
	if pg, ok := c.Storage.(*storage.PostgresStorage); ok {
		engineOpts = append(engineOpts, search.WithFullText(pg))
	}
	c.Engine = search.NewEngine(c.Storage, c.Index, c.Expander, &cfg.Search, engineOpts...)

	analyzer, err := imagesearch.NewGeminiAnalyzer(ctx, cfg.ImageSearch.APIKey,
		imagesearch.WithModel(cfg.ImageSearch.Model),
		imagesearch.WithLogger(logger),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Images = imagesearch.NewService(analyzer, c.Engine, logger)
	return c, nil
}
