package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"seqmart/internal/dataset"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/pipeline"
	"seqmart/internal/services/sra"
	"seqmart/internal/stage"
	"seqmart/internal/testsupport"
)

func TestRunExecutesFullSequence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSampleSheet(t, cfg.Paths.SampleSheet, pairedSample("SRR100"))
	installReference(t, cfg)
	store := testsupport.MustOpenStore(t, cfg)

	suffixes, _ := stage.FilterSuffixes(dataset.LayoutPaired)
	outDir := filepath.Join(cfg.Paths.DataDir, pipeline.PreprocessDir)
	fake := &fakeExecutor{}
	fake.onRun = func(dir, binary string, args []string) {
		if binary != "mothur" {
			toolkitEffects(dir, binary, args)
			return
		}
		switch scriptBase(fake.calls[len(fake.calls)-1]) {
		case "filter.batch":
			for _, suffix := range []string{suffixes.Fasta, suffixes.Group, suffixes.Summary} {
				os.WriteFile(filepath.Join(dir, "SRR100"+suffix), []byte("out\n"), 0o644)
			}
		case "merge.batch":
			os.WriteFile(filepath.Join(dir, "merged.fasta"), []byte("merged\n"), 0o644)
			os.WriteFile(filepath.Join(dir, "merged.group"), []byte("merged\n"), 0o644)
		case "preprocess.batch":
			for _, path := range stage.PreprocessTargets(outDir) {
				os.WriteFile(path, []byte("out\n"), 0o644)
			}
		}
	}
	manager := newManager(t, cfg, fake, store)

	if err := manager.Run(t.Context()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !stage.MergeTargets(cfg.Paths.DataDir).Complete() {
		t.Error("merged outputs missing after full run")
	}
	if !stage.PreprocessTargets(outDir).Complete() {
		t.Error("preprocessed outputs missing after full run")
	}

	states, err := store.Latest(t.Context())
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	byStage := make(map[string]ledger.Status)
	for _, state := range states {
		byStage[state.Stage] = state.Status
	}
	for _, stageName := range []string{
		pipeline.StageFetch, pipeline.StageFilter, pipeline.StageMerge, pipeline.StagePreprocess,
	} {
		if byStage[stageName] != ledger.StatusCompleted {
			t.Errorf("stage %s status = %q, want completed", stageName, byStage[stageName])
		}
	}
	if byStage[pipeline.StageReference] != ledger.StatusCompleted {
		t.Errorf("reference status = %q, want completed", byStage[pipeline.StageReference])
	}

	// A second run skips everything.
	fake.calls = nil
	if err := manager.Run(t.Context()); err != nil {
		t.Fatalf("Run() second pass error: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("second pass invoked tools %d times", len(fake.calls))
	}
}

func TestRunContinuesPastRunFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	good := singleSample("SRRGOOD")
	bad := singleSample("SRRBAD")
	testsupport.WriteSampleSheet(t, cfg.Paths.SampleSheet, good, bad)
	installReference(t, cfg)
	store := testsupport.MustOpenStore(t, cfg)

	stageRawReads(t, cfg, good)
	stageRawReads(t, cfg, bad)
	stageFilteredRun(t, cfg, good.Run)

	// The good run is already filtered, so the only filter.batch belongs to
	// the bad run and exits non-zero. Merge and preprocess still succeed.
	outDir := filepath.Join(cfg.Paths.DataDir, pipeline.PreprocessDir)
	fake := &fakeExecutor{}
	fake.onRun = func(dir, binary string, args []string) {
		if binary != "mothur" {
			return
		}
		switch scriptBase(fake.calls[len(fake.calls)-1]) {
		case "filter.batch":
			fake.code = 1
		case "merge.batch":
			fake.code = 0
			os.WriteFile(filepath.Join(dir, "merged.fasta"), []byte("merged\n"), 0o644)
			os.WriteFile(filepath.Join(dir, "merged.group"), []byte("merged\n"), 0o644)
		case "preprocess.batch":
			fake.code = 0
			for _, path := range stage.PreprocessTargets(outDir) {
				os.WriteFile(path, []byte("out\n"), 0o644)
			}
		}
	}
	manager := newManager(t, cfg, fake, store)

	err := manager.Run(t.Context())
	if err == nil {
		t.Fatal("Run() error = nil, want the failed run reported")
	}
	if !strings.Contains(err.Error(), bad.Run) {
		t.Errorf("Run() error %q does not name %s", err, bad.Run)
	}

	if got := fake.count("mothur"); got != 3 {
		t.Fatalf("filtering tool invoked %d times, want 3 (filter, merge, preprocess)", got)
	}
	if !stage.MergeTargets(cfg.Paths.DataDir).Complete() {
		t.Error("merged outputs missing despite one healthy filtered run")
	}
	if !stage.PreprocessTargets(outDir).Complete() {
		t.Error("preprocessed outputs missing after run")
	}

	states, err := store.Latest(t.Context())
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	for _, state := range states {
		if state.Stage == pipeline.StageMerge && state.Status != ledger.StatusCompleted {
			t.Errorf("merge status = %q, want completed", state.Status)
		}
	}
}

func TestFetchReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeExecutor{onRun: toolkitEffects}

	type tick struct {
		stage     string
		completed int
		total     int
	}
	var mu sync.Mutex
	var ticks []tick
	manager := pipeline.New(cfg, logging.NewNop(), nil,
		pipeline.WithSRAClient(sra.New(cfg, logging.NewNop(), sra.WithExecutor(fake))),
		pipeline.WithProgress(func(stageName string, completed, total int) {
			mu.Lock()
			ticks = append(ticks, tick{stageName, completed, total})
			mu.Unlock()
		}),
	)

	samples := []dataset.Sample{singleSample("SRR200"), singleSample("SRR300")}
	if err := manager.FetchAll(t.Context(), samples); err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}
	if len(ticks) != 2 {
		t.Fatalf("got %d progress ticks, want 2", len(ticks))
	}
	last := ticks[len(ticks)-1]
	if last.stage != pipeline.StageFetch || last.completed != 2 || last.total != 2 {
		t.Fatalf("final tick = %+v, want fetch 2/2", last)
	}
}

func TestRunRefusesLockedDataDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSampleSheet(t, cfg.Paths.SampleSheet, pairedSample("SRR100"))

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, ".seqmart.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-lock failed: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	manager := newManager(t, cfg, &fakeExecutor{}, nil)
	if err := manager.Run(t.Context()); !errors.Is(err, pipeline.ErrLocked) {
		t.Fatalf("Run() error = %v, want ErrLocked", err)
	}
}

func TestRunRejectsEmptySampleSheet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.SampleSheet,
		"sra,layout,primer_f,primer_r,trimmed,min_length,max_length\n")

	manager := newManager(t, cfg, &fakeExecutor{}, nil)
	if err := manager.Run(t.Context()); err == nil {
		t.Fatal("expected error for empty sample sheet")
	}
}
