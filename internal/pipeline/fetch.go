package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"seqmart/internal/dataset"
	"seqmart/internal/fileutil"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/pool"
	"seqmart/internal/services"
)

// FetchAll downloads raw reads for every sample through the bounded pool.
// Each run fails or succeeds independently; the aggregate error reports
// every failed run after the whole batch has been attempted.
func (m *Manager) FetchAll(ctx context.Context, samples []dataset.Sample) error {
	m.logger.Info("fetching raw reads",
		logging.Int("runs", len(samples)),
		logging.Int("jobs", m.cfg.Pipeline.Jobs))

	results := pool.Map(ctx, samples, m.fetchOne, pool.Options{
		Concurrency: m.cfg.Pipeline.Jobs,
		OnProgress: func(completed, total int) {
			m.reportProgress(StageFetch, completed, total)
		},
	})
	return collectFailures(StageFetch, results)
}

// fetchOne materializes FASTQ files for one run inside its directory. Raw
// file presence is the completion signal: when any FASTQ already exists the
// run is skipped without touching the toolkit, and the archive download is
// skipped separately when the .sra file survives from an earlier attempt.
func (m *Manager) fetchOne(ctx context.Context, sample dataset.Sample) error {
	ctx = services.WithRun(ctx, sample.Run)
	ctx = services.WithStage(ctx, StageFetch)
	logger := logging.WithContext(ctx, m.logger)

	runDir := sample.Dir(m.cfg.Paths.DataDir)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, StageFetch, "create run directory", runDir, err)
	}

	if fastqs, _ := fileutil.Glob(runDir, "*.fastq"); len(fastqs) > 0 {
		logger.Info("raw reads already present", logging.Int("files", len(fastqs)))
		m.record(ctx, sample.Run, StageFetch, ledger.StatusSkipped,
			strconv.Itoa(len(fastqs))+" fastq files present")
		return nil
	}
	m.record(ctx, sample.Run, StageFetch, ledger.StatusStarted, "")

	archive := filepath.Join(runDir, sample.Run+".sra")
	if fileutil.Exists(archive) {
		logger.Info("archive already downloaded", logging.String("archive", archive))
	} else {
		if err := m.sra.Prefetch(ctx, runDir, sample.Run); err != nil {
			m.record(ctx, sample.Run, StageFetch, ledger.StatusFailed, err.Error())
			return err
		}
		if err := m.sra.Validate(ctx, runDir); err != nil {
			m.record(ctx, sample.Run, StageFetch, ledger.StatusFailed, err.Error())
			return err
		}
	}

	split := sample.Layout == dataset.LayoutPaired
	if err := m.sra.Dump(ctx, runDir, sample.Run, split); err != nil {
		m.record(ctx, sample.Run, StageFetch, ledger.StatusFailed, err.Error())
		return err
	}

	fastqs, _ := fileutil.Glob(runDir, "*.fastq")
	if len(fastqs) == 0 {
		err := services.Wrap(services.ErrMissingOutput, StageFetch, "verify extraction",
			"no fastq files in "+runDir, nil)
		m.record(ctx, sample.Run, StageFetch, ledger.StatusFailed, err.Error())
		return err
	}

	logger.Info("raw reads fetched", logging.Int("files", len(fastqs)))
	m.record(ctx, sample.Run, StageFetch, ledger.StatusCompleted,
		strconv.Itoa(len(fastqs))+" fastq files")
	return nil
}
