package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envPrefix namespaces every environment override.
const envPrefix = "SEQMART_"

// applyEnv overlays SEQMART_* environment variables onto the config. Values
// loaded from the file lose to the environment; explicit call-site flags are
// applied later by the CLI and win over both.
func (c *Config) applyEnv() error {
	stringVars := []struct {
		name   string
		target *string
	}{
		{"DATA_DIR", &c.Paths.DataDir},
		{"CACHE_DIR", &c.Paths.CacheDir},
		{"LOG_DIR", &c.Paths.LogDir},
		{"SAMPLE_SHEET", &c.Paths.SampleSheet},
		{"SILVA_VERSION", &c.Silva.Version},
		{"SILVA_SEED_URL", &c.Silva.SeedURL},
		{"SILVA_GOLD_URL", &c.Silva.GoldURL},
		{"LOG_FORMAT", &c.Logging.Format},
		{"LOG_LEVEL", &c.Logging.Level},
	}
	for _, v := range stringVars {
		if value, ok := lookup(v.name); ok {
			*v.target = value
		}
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"JOBS", &c.Pipeline.Jobs},
		{"FILTER_CHUNK_SIZE", &c.Pipeline.FilterChunkSize},
		{"QUALITY_AVERAGE", &c.Quality.Average},
		{"MAX_AMBIGUITY", &c.Quality.MaxAmbiguity},
		{"MAX_HOMOPOLYMERS", &c.Quality.MaxHomopolymers},
		{"SILVA_SEED_PCR_START", &c.Silva.SeedPCRStart},
		{"SILVA_SEED_PCR_END", &c.Silva.SeedPCREnd},
	}
	for _, v := range intVars {
		value, ok := lookup(v.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", envPrefix, v.name, err)
		}
		*v.target = parsed
	}

	if value, ok := lookup("PLOT_CUTOFF"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parse %sPLOT_CUTOFF: %w", envPrefix, err)
		}
		c.Plot.CutoffLevel = parsed
	}

	return nil
}

func lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
