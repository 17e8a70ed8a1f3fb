package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"seqmart/internal/dataset"
	"seqmart/internal/fileutil"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/pool"
	"seqmart/internal/services"
	"seqmart/internal/services/mothur"
	"seqmart/internal/stage"
	"seqmart/internal/workspace"
)

// FilterAll quality-filters every run. Runs are processed in chunks so the
// cache directory holds a bounded number of workspaces at once; within a
// chunk runs fan out through the pool.
func (m *Manager) FilterAll(ctx context.Context, samples []dataset.Sample) error {
	m.logger.Info("filtering runs",
		logging.Int("runs", len(samples)),
		logging.Int("chunk", m.cfg.Pipeline.FilterChunkSize))

	total := len(samples)
	completed := 0
	var all []pool.Result[dataset.Sample]
	for _, chunk := range pool.Chunk(samples, m.cfg.Pipeline.FilterChunkSize) {
		base := completed
		results := pool.Map(ctx, chunk, m.filterOne, pool.Options{
			Concurrency: m.cfg.Pipeline.Jobs,
			OnProgress: func(done, _ int) {
				m.reportProgress(StageFilter, base+done, total)
			},
		})
		completed += len(chunk)
		all = append(all, results...)
	}
	return collectFailures(StageFilter, all)
}

// filterOne runs the filtering script for one run inside a scoped workspace
// and promotes the declared outputs back to the run directory. A non-zero
// exit or a missing output leaves the run directory untouched, so the run
// stays incomplete and reruns next time.
func (m *Manager) filterOne(ctx context.Context, sample dataset.Sample) error {
	ctx = services.WithRun(ctx, sample.Run)
	ctx = services.WithStage(ctx, StageFilter)
	logger := logging.WithContext(ctx, m.logger)

	runDir := sample.Dir(m.cfg.Paths.DataDir)
	targets := stage.FilterTargets(runDir)
	if targets.Complete() {
		logger.Info("filtered outputs already present")
		m.record(ctx, sample.Run, StageFilter, ledger.StatusSkipped, "outputs present")
		return nil
	}

	fastqs, err := fileutil.Glob(runDir, "*.fastq")
	if err != nil || len(fastqs) == 0 {
		wrapped := services.Wrap(services.ErrValidation, StageFilter, "locate raw reads",
			"no fastq files in "+runDir, err)
		m.record(ctx, sample.Run, StageFilter, ledger.StatusFailed, wrapped.Error())
		return wrapped
	}

	suffixes, ok := stage.FilterSuffixes(sample.Layout)
	if !ok {
		wrapped := services.Wrap(services.ErrValidation, StageFilter, "resolve layout",
			string(sample.Layout), nil)
		m.record(ctx, sample.Run, StageFilter, ledger.StatusFailed, wrapped.Error())
		return wrapped
	}

	m.record(ctx, sample.Run, StageFilter, ledger.StatusStarted, "")
	err = workspace.With(m.cfg.Paths.CacheDir, func(ws *workspace.Workspace) error {
		for _, fastq := range fastqs {
			if err := fileutil.CopyFile(fastq, ws.Join(filepath.Base(fastq))); err != nil {
				return services.Wrap(services.ErrValidation, StageFilter, "stage raw reads", fastq, err)
			}
		}

		data, err := m.filterData(ws, sample, fastqs)
		if err != nil {
			return err
		}
		script, err := mothur.Render(mothur.ScriptFilter, data)
		if err != nil {
			return err
		}
		scriptPath, err := ws.WriteFile("filter.batch", script)
		if err != nil {
			return services.Wrap(services.ErrTemplate, StageFilter, "write script", scriptPath, err)
		}

		code, err := m.mothur.RunScript(ctx, ws.Path(), scriptPath)
		if err != nil {
			return err
		}
		if code != 0 {
			return services.Wrap(services.ErrExternalTool, StageFilter, "run filter script",
				fmt.Sprintf("exit code %d", code), nil)
		}

		return promoteFilterOutputs(ws, sample.Run, suffixes, targets)
	})
	if err != nil {
		m.record(ctx, sample.Run, StageFilter, ledger.StatusFailed, err.Error())
		return err
	}

	logger.Info("run filtered")
	m.record(ctx, sample.Run, StageFilter, ledger.StatusCompleted, "")
	return nil
}

// filterData builds the script mapping for one run. Optional branches expect
// their keys present but empty, so every key is always populated.
func (m *Manager) filterData(ws *workspace.Workspace, sample dataset.Sample, fastqs []string) (map[string]any, error) {
	data := map[string]any{
		"inputdir":   ws.Path(),
		"prefix":     sample.Run,
		"processors": m.cfg.Pipeline.Jobs,
		"qaverage":   m.cfg.Quality.Average,
		"maxambig":   m.cfg.Quality.MaxAmbiguity,
		"maxhomop":   m.cfg.Quality.MaxHomopolymers,
		"minlength":  sample.MinLength,
		"maxlength":  sample.MaxLength,
		"paired":     sample.Layout == dataset.LayoutPaired,
		"oligos":     "",
		"fastq_file": "",
		"group":      "",
	}

	switch sample.Layout {
	case dataset.LayoutPaired:
		// Pre-trimmed reads carry no primers, so no oligos file is handed
		// to the assembly command.
		if !sample.Trimmed {
			oligos, err := ws.WriteFile("primers.oligos",
				fmt.Sprintf("primer %s %s\n", sample.PrimerF, sample.PrimerR))
			if err != nil {
				return nil, services.Wrap(services.ErrTemplate, StageFilter, "write oligos", sample.Run, err)
			}
			data["oligos"] = oligos
		}
	case dataset.LayoutSingle:
		manifest, err := ws.WriteFile(sample.Run+".file", singleManifest(ws, fastqs))
		if err != nil {
			return nil, services.Wrap(services.ErrTemplate, StageFilter, "write manifest", sample.Run, err)
		}
		data["fastq_file"] = manifest
		data["group"] = ws.Join(sample.Run + ".group")
	}
	return data, nil
}

// singleManifest lists each staged FASTQ under its basename stem, the format
// the extraction command reads for unpaired input.
func singleManifest(ws *workspace.Workspace, fastqs []string) string {
	var sb strings.Builder
	for _, fastq := range fastqs {
		name := filepath.Base(fastq)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		sb.WriteString(stem)
		sb.WriteString(" ")
		sb.WriteString(ws.Join(name))
		sb.WriteString("\n")
	}
	return sb.String()
}

// promoteFilterOutputs moves the tool's suffix-named outputs from the
// workspace onto the run directory's declared target paths. All sources are
// verified before any file moves so a partial tool run promotes nothing.
func promoteFilterOutputs(ws *workspace.Workspace, prefix string, suffixes stage.Suffixes, targets stage.TargetPathSet) error {
	sources := map[string]string{
		stage.RoleFasta:   ws.Join(prefix + suffixes.Fasta),
		stage.RoleGroup:   ws.Join(prefix + suffixes.Group),
		stage.RoleSummary: ws.Join(prefix + suffixes.Summary),
	}
	var missing []string
	for _, src := range sources {
		if !fileutil.Exists(src) {
			missing = append(missing, filepath.Base(src))
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrMissingOutput, StageFilter, "collect outputs",
			strings.Join(missing, ", "), nil)
	}
	for role, src := range sources {
		if err := fileutil.MoveFile(src, targets[role]); err != nil {
			return services.Wrap(services.ErrMissingOutput, StageFilter, "promote outputs",
				targets[role], err)
		}
	}
	return nil
}
