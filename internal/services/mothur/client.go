// Package mothur drives the external filtering/clustering tool. Stages
// render a batch script from an embedded template, drop it into a workspace,
// and run the tool there; success is judged by the exit code plus the
// presence of the expected output files, because the tool has been observed
// to exit zero without producing its declared outputs.
package mothur

import (
	"context"
	"fmt"
	"log/slog"

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

// Client wraps mothur CLI interactions.
type Client struct {
	binary string
	exec   services.Executor
	logger *slog.Logger
}

// New constructs a mothur client.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		binary: cfg.MothurBinary(),
		exec:   services.CommandExecutor{},
		logger: logging.NewComponentLogger(logger, "mothur"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// RunScript executes the tool against a rendered script inside dir and
// returns the process exit code. Callers combine the code with the
// idempotence gate on their declared outputs.
func (c *Client) RunScript(ctx context.Context, dir, scriptPath string) (int, error) {
	logger := logging.WithContext(ctx, c.logger)
	code, err := c.exec.Run(ctx, dir, c.binary, []string{scriptPath}, func(line string) {
		logger.Debug(line)
	})
	if err != nil {
		return -1, services.Wrap(services.ErrExternalTool, "", "run script",
			fmt.Sprintf("%s %s", c.binary, scriptPath), err)
	}
	return code, nil
}
