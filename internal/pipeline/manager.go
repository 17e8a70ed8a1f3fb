// Package pipeline sequences the processing stages over a sample sheet:
// fetch raw reads per run, quality-filter each run, merge the filtered
// outputs, install the reference datasets, and preprocess the merged batch.
// Per-run stages fan out through a bounded pool; batch stages run once. Every
// stage is gated on its declared output files and skipped when they already
// exist, so an interrupted pipeline resumes by rerunning it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"seqmart/internal/config"
	"seqmart/internal/dataset"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/pool"
	"seqmart/internal/services"
	"seqmart/internal/services/mothur"
	"seqmart/internal/services/silva"
	"seqmart/internal/services/sra"
)

// Stage names as recorded in the ledger and reported through Progress.
const (
	StageFetch      = "fetch"
	StageFilter     = "filter"
	StageMerge      = "merge"
	StageReference  = "reference"
	StagePreprocess = "preprocess"
)

// ErrLocked indicates another pipeline process owns the data directory.
var ErrLocked = errors.New("data directory is locked by another process")

// Option configures the manager.
type Option func(*Manager)

// WithSRAClient replaces the fetch-stage client (primarily for tests).
func WithSRAClient(client *sra.Client) Option {
	return func(m *Manager) { m.sra = client }
}

// WithMothurClient replaces the filtering-tool client (primarily for tests).
func WithMothurClient(client *mothur.Client) Option {
	return func(m *Manager) { m.mothur = client }
}

// WithSilvaInstaller replaces the reference installer (primarily for tests).
func WithSilvaInstaller(installer *silva.Installer) Option {
	return func(m *Manager) { m.silva = installer }
}

// WithProgress registers a progress observer for per-run stages. It is called
// with the stage name, the number of finished items, and the batch total.
func WithProgress(fn func(stage string, completed, total int)) Option {
	return func(m *Manager) { m.progress = fn }
}

// Manager owns the stage sequence for one data directory.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ledger.Store
	sra      *sra.Client
	mothur   *mothur.Client
	silva    *silva.Installer
	progress func(stage string, completed, total int)
}

// New constructs a manager with real clients. The ledger store is optional;
// a nil store disables event recording.
func New(cfg *config.Config, logger *slog.Logger, store *ledger.Store, opts ...Option) *Manager {
	manager := &Manager{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		store:  store,
		sra:    sra.New(cfg, logger),
		mothur: mothur.New(cfg, logger),
		silva:  silva.New(cfg, logger),
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// Run executes the full stage sequence. Per-run stages act as barriers: the
// next stage starts only after every run has been attempted, but a run's
// failure never stops the sequence. Later stages work with whatever outputs
// the earlier ones produced, so one bad accession cannot hold back the rest
// of the batch. The returned error aggregates every stage's failures.
func (m *Manager) Run(ctx context.Context) error {
	unlock, err := m.lock()
	if err != nil {
		return err
	}
	defer unlock()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	m.logger.Info("pipeline starting", logging.Args(logging.ContextFields(ctx)...)...)

	samples, err := m.loadSamples()
	if err != nil {
		return err
	}

	var failures []error
	runStage := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			m.logger.Warn("stage reported failures",
				logging.String("stage", name),
				logging.Error(err))
			failures = append(failures, err)
		}
	}

	runStage(StageFetch, func(ctx context.Context) error { return m.FetchAll(ctx, samples) })
	runStage(StageFilter, func(ctx context.Context) error { return m.FilterAll(ctx, samples) })
	runStage(StageMerge, m.Merge)
	runStage(StageReference, m.InstallReference)
	runStage(StagePreprocess, m.Preprocess)

	return errors.Join(failures...)
}

// lock takes an exclusive advisory lock on the data directory so two
// pipeline processes never race on the same run directories.
func (m *Manager) lock() (func(), error) {
	lockPath := filepath.Join(m.cfg.Paths.DataDir, ".seqmart.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data directory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (m *Manager) loadSamples() ([]dataset.Sample, error) {
	samples, err := dataset.Load(m.cfg.Paths.SampleSheet)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "load", "read sample sheet",
			m.cfg.Paths.SampleSheet, err)
	}
	if len(samples) == 0 {
		return nil, services.Wrap(services.ErrValidation, "load", "read sample sheet",
			"sample sheet has no rows", nil)
	}
	return samples, nil
}

// record appends a ledger event, tolerating a nil store. Recording failures
// are logged and never fail a stage.
func (m *Manager) record(ctx context.Context, run, stageName string, status ledger.Status, detail string) {
	if m.store == nil {
		return
	}
	event := ledger.Event{Run: run, Stage: stageName, Status: status, Detail: detail}
	if err := m.store.Record(ctx, event); err != nil {
		m.logger.Warn("record ledger event",
			logging.String("run", run),
			logging.String("stage", stageName),
			logging.Error(err))
	}
}

func (m *Manager) reportProgress(stageName string, completed, total int) {
	if m.progress != nil {
		m.progress(stageName, completed, total)
	}
}

// collectFailures folds per-item results into a single error, or nil when
// every item succeeded.
func collectFailures(stageName string, results []pool.Result[dataset.Sample]) error {
	var failures []error
	for _, result := range results {
		if result.Err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", result.Item.Run, result.Err))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%s failed for %d of %d runs: %w",
		stageName, len(failures), len(results), errors.Join(failures...))
}
