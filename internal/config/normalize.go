package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.SampleSheet) == "" {
		c.Paths.SampleSheet = filepath.Join(c.Paths.DataDir, "samples.csv")
	}
	if c.Paths.SampleSheet, err = expandPath(c.Paths.SampleSheet); err != nil {
		return fmt.Errorf("paths.sample_sheet: %w", err)
	}

	c.Silva.Version = strings.TrimSpace(c.Silva.Version)
	c.Silva.SeedURL = strings.TrimSpace(c.Silva.SeedURL)
	c.Silva.GoldURL = strings.TrimSpace(c.Silva.GoldURL)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
