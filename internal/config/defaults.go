package config

import "runtime"

const (
	defaultDataDir         = "~/.local/share/seqmart/data"
	defaultCacheDir        = "~/.cache/seqmart"
	defaultLogDir          = "~/.local/share/seqmart/logs"
	defaultFilterChunkSize = 8
	defaultQualityAverage  = 35
	defaultMaxAmbiguity    = 0
	defaultMaxHomopolymers = 8
	defaultSilvaVersion    = "138"
	defaultSilvaSeedURL    = "https://mothur.s3.us-east-2.amazonaws.com/wiki/silva.seed_v{version}.tgz"
	defaultSilvaGoldURL    = "https://mothur.s3.us-east-2.amazonaws.com/wiki/silva.gold.bacteria.zip"
	defaultSeedPCRStart    = 6388
	defaultSeedPCREnd      = 13861
	defaultPlotCutoff      = 0.03
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Pipeline: Pipeline{
			Jobs:            runtime.NumCPU(),
			FilterChunkSize: defaultFilterChunkSize,
		},
		Quality: Quality{
			Average:         defaultQualityAverage,
			MaxAmbiguity:    defaultMaxAmbiguity,
			MaxHomopolymers: defaultMaxHomopolymers,
		},
		Silva: Silva{
			Version:      defaultSilvaVersion,
			SeedURL:      defaultSilvaSeedURL,
			GoldURL:      defaultSilvaGoldURL,
			SeedPCRStart: defaultSeedPCRStart,
			SeedPCREnd:   defaultSeedPCREnd,
		},
		Plot: Plot{
			CutoffLevel: defaultPlotCutoff,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
