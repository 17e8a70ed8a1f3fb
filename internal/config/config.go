package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	CacheDir    string `toml:"cache_dir"`
	LogDir      string `toml:"log_dir"`
	SampleSheet string `toml:"sample_sheet"`
}

// Pipeline contains parallelism and batching knobs.
type Pipeline struct {
	Jobs            int `toml:"jobs"`
	FilterChunkSize int `toml:"filter_chunk_size"`
}

// Quality contains the thresholds handed to the filtering tool.
type Quality struct {
	Average         int `toml:"average"`
	MaxAmbiguity    int `toml:"max_ambiguity"`
	MaxHomopolymers int `toml:"max_homopolymers"`
}

// Silva describes the reference database release and where to get it.
// The seed URL may contain a {version} placeholder.
type Silva struct {
	Version      string `toml:"version"`
	SeedURL      string `toml:"seed_url"`
	GoldURL      string `toml:"gold_url"`
	SeedPCRStart int    `toml:"seed_pcr_start"`
	SeedPCREnd   int    `toml:"seed_pcr_end"`
}

// Plot contains settings for the phyloseq plotting collaborator.
type Plot struct {
	CutoffLevel float64 `toml:"cutoff_level"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for seqmart.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Pipeline Pipeline `toml:"pipeline"`
	Quality  Quality  `toml:"quality"`
	Silva    Silva    `toml:"silva"`
	Plot     Plot     `toml:"plot"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/seqmart/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded, environment overrides applied, and
// defaults filled in.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("seqmart.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SeedArchiveURL resolves the SILVA seed download URL for the configured version.
func (c *Config) SeedArchiveURL() string {
	return strings.ReplaceAll(c.Silva.SeedURL, "{version}", c.Silva.Version)
}

// PrefetchBinary returns the SRA toolkit prefetch executable name.
func (c *Config) PrefetchBinary() string { return "prefetch" }

// ValidateBinary returns the SRA toolkit validation executable name.
func (c *Config) ValidateBinary() string { return "vdb-validate" }

// DumpBinary returns the SRA toolkit FASTQ extraction executable name.
func (c *Config) DumpBinary() string { return "fasterq-dump" }

// MothurBinary returns the filtering/clustering executable name.
func (c *Config) MothurBinary() string { return "mothur" }

// RscriptBinary returns the executable used for the plotting collaborator.
func (c *Config) RscriptBinary() string { return "Rscript" }

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
