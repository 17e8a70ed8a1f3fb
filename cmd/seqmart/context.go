package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"seqmart/internal/config"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/pipeline"
)

// commandContext resolves configuration and shared handles once per
// invocation, however many subcommands consult them.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:    cfg.Logging.Level,
			Format:   cfg.Logging.Format,
			FilePath: filepath.Join(cfg.Paths.LogDir, "seqmart.log"),
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openStore opens the stage-event ledger next to the pipeline data. The
// caller owns the handle.
func (c *commandContext) openStore() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(filepath.Join(cfg.Paths.DataDir, "ledger.db"))
}

// newManager builds a pipeline manager with real clients and an open ledger.
// The returned closer releases the ledger handle.
func (c *commandContext) newManager(opts ...pipeline.Option) (*pipeline.Manager, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	manager := pipeline.New(cfg, logger, store, opts...)
	return manager, func() { _ = store.Close() }, nil
}
