// Package sra wraps the SRA toolkit binaries used by the fetch stage:
// prefetch, vdb-validate, and fasterq-dump.
package sra

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"seqmart/internal/config"
	"seqmart/internal/logging"
	"seqmart/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps SRA toolkit CLI interactions.
type Client struct {
	prefetchBin string
	validateBin string
	dumpBin     string
	threads     int
	exec        services.Executor
	logger      *slog.Logger
}

// New constructs an SRA toolkit client.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		prefetchBin: cfg.PrefetchBinary(),
		validateBin: cfg.ValidateBinary(),
		dumpBin:     cfg.DumpBinary(),
		threads:     cfg.Pipeline.Jobs,
		exec:        services.CommandExecutor{},
		logger:      logging.NewComponentLogger(logger, "sra"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Prefetch downloads the .sra archive for run into dir.
func (c *Client) Prefetch(ctx context.Context, dir, run string) error {
	return c.run(ctx, dir, "prefetch", c.prefetchBin, []string{"-O", dir, run})
}

// Validate verifies the prefetched archive directory.
func (c *Client) Validate(ctx context.Context, dir string) error {
	return c.run(ctx, dir, "validate", c.validateBin, []string{dir})
}

// Dump extracts FASTQ files for run inside dir. Paired layouts pass
// --split-files so mates land in separate files.
func (c *Client) Dump(ctx context.Context, dir, run string, split bool) error {
	args := []string{"--threads", strconv.Itoa(c.threads)}
	if split {
		args = append(args, "--split-files")
	}
	args = append(args, run)
	return c.run(ctx, dir, "dump", c.dumpBin, args)
}

func (c *Client) run(ctx context.Context, dir, operation, binary string, args []string) error {
	logger := logging.WithContext(ctx, c.logger)
	code, err := c.exec.Run(ctx, dir, binary, args, func(line string) {
		logger.Debug(line, logging.String("tool", binary))
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "fetch", operation, binary, err)
	}
	if code != 0 {
		return services.Wrap(services.ErrExternalTool, "fetch", operation,
			fmt.Sprintf("%s exited with status %d", binary, code), nil)
	}
	return nil
}
