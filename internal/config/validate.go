package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateSilva(); err != nil {
		return err
	}
	if c.Plot.CutoffLevel < 0 || c.Plot.CutoffLevel > 1 {
		return errors.New("plot.cutoff_level must be between 0 and 1")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Jobs < 1 {
		return errors.New("pipeline.jobs must be at least 1")
	}
	if c.Pipeline.FilterChunkSize < 1 {
		return errors.New("pipeline.filter_chunk_size must be at least 1")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if c.Quality.Average < 0 || c.Quality.Average > 41 {
		return fmt.Errorf("quality.average must be a phred score between 0 and 41, got %d", c.Quality.Average)
	}
	if c.Quality.MaxAmbiguity < 0 {
		return errors.New("quality.max_ambiguity must not be negative")
	}
	if c.Quality.MaxHomopolymers < 1 {
		return errors.New("quality.max_homopolymers must be at least 1")
	}
	return nil
}

func (c *Config) validateSilva() error {
	if c.Silva.Version == "" {
		return errors.New("silva.version must be set")
	}
	if !strings.HasPrefix(c.Silva.SeedURL, "http") {
		return fmt.Errorf("silva.seed_url must be an http(s) URL, got %q", c.Silva.SeedURL)
	}
	if !strings.HasPrefix(c.Silva.GoldURL, "http") {
		return fmt.Errorf("silva.gold_url must be an http(s) URL, got %q", c.Silva.GoldURL)
	}
	if c.Silva.SeedPCRStart < 0 || c.Silva.SeedPCREnd <= c.Silva.SeedPCRStart {
		return errors.New("silva.seed_pcr_start/seed_pcr_end must describe a forward interval")
	}
	return nil
}
