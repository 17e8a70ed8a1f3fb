// Package phyloseq renders abundance plots from clustering outputs by
// driving an Rscript session with a generated phyloseq script.
package phyloseq

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/template"

	"seqmart/internal/config"
	"seqmart/internal/fileutil"
	"seqmart/internal/logging"
	"seqmart/internal/services"
	"seqmart/internal/workspace"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// BarPlot describes one abundance bar plot request.
type BarPlot struct {
	// Shared and Taxonomy are the clustering output tables to import.
	Shared   string
	Taxonomy string
	// List is optional; when set it is passed alongside the other tables.
	List string
	// Cutoff selects the OTU label to import, e.g. "0.03".
	Cutoff float64
	// Level is the taxonomic rank to color bars by.
	Level string
	// Output is the image path to write.
	Output string
}

// Option configures the plotter.
type Option func(*Plotter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(p *Plotter) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// Plotter runs phyloseq plotting scripts through Rscript.
type Plotter struct {
	binary   string
	cacheDir string
	exec     services.Executor
	logger   *slog.Logger
}

// New constructs a plotter.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Plotter {
	plotter := &Plotter{
		binary:   cfg.RscriptBinary(),
		cacheDir: cfg.Paths.CacheDir,
		exec:     services.CommandExecutor{},
		logger:   logging.NewComponentLogger(logger, "phyloseq"),
	}
	for _, opt := range opts {
		opt(plotter)
	}
	return plotter
}

// PlotBar renders and runs the phyloseq bar plot script, then verifies the
// image was written.
func (p *Plotter) PlotBar(ctx context.Context, req BarPlot) error {
	if err := p.validate(req); err != nil {
		return err
	}
	script, err := renderScript("plot_bar.R", map[string]any{
		"shared":   req.Shared,
		"taxonomy": req.Taxonomy,
		"list":     req.List,
		"cutoff":   strconv.FormatFloat(req.Cutoff, 'f', -1, 64),
		"level":    req.Level,
		"output":   req.Output,
	})
	if err != nil {
		return err
	}

	return workspace.With(p.cacheDir, func(ws *workspace.Workspace) error {
		scriptPath, err := ws.WriteFile("plot_bar.R", script)
		if err != nil {
			return services.Wrap(services.ErrTemplate, "plot", "write script", scriptPath, err)
		}
		logger := logging.WithContext(ctx, p.logger)
		logger.Info("rendering bar plot",
			logging.String("shared", req.Shared),
			logging.String("output", req.Output))

		code, err := p.exec.Run(ctx, ws.Path(), p.binary, []string{scriptPath}, func(line string) {
			logger.Debug(line)
		})
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "plot", "run Rscript", p.binary, err)
		}
		if code != 0 {
			return services.Wrap(services.ErrExternalTool, "plot", "run Rscript",
				fmt.Sprintf("exit code %d", code), nil)
		}
		if !fileutil.Exists(req.Output) {
			return services.Wrap(services.ErrMissingOutput, "plot", "verify output", req.Output, nil)
		}
		return nil
	})
}

func (p *Plotter) validate(req BarPlot) error {
	var missing []string
	for _, path := range []string{req.Shared, req.Taxonomy} {
		if !fileutil.Exists(path) {
			missing = append(missing, path)
		}
	}
	if req.List != "" && !fileutil.Exists(req.List) {
		missing = append(missing, req.List)
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, "plot", "check inputs",
			strings.Join(missing, ", "), nil)
	}
	if req.Output == "" {
		return services.Wrap(services.ErrValidation, "plot", "check inputs", "output path required", nil)
	}
	if req.Level == "" {
		return services.Wrap(services.ErrValidation, "plot", "check inputs", "taxonomic level required", nil)
	}
	return nil
}

func renderScript(name string, data map[string]any) (string, error) {
	tmpl, err := template.New(name + ".tmpl").
		Option("missingkey=error").
		ParseFS(templateFS, "templates/"+name+".tmpl")
	if err != nil {
		return "", services.Wrap(services.ErrTemplate, "plot", "parse template", name, err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", services.Wrap(services.ErrTemplate, "plot", "render template", name, err)
	}
	return buf.String(), nil
}
