package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"seqmart/internal/config"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/pipeline"
	"seqmart/internal/services/mothur"
	"seqmart/internal/services/silva"
	"seqmart/internal/services/sra"
	"seqmart/internal/testsupport"
)

// call records one executor invocation.
type call struct {
	dir    string
	binary string
	args   []string
}

// fakeExecutor scripts external tool behavior per binary name.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []call
	code  int
	// onRun, when set, simulates the tool's filesystem effects. It runs
	// under the mutex so tests may mutate shared state freely.
	onRun func(dir, binary string, args []string)
}

func (f *fakeExecutor) Run(_ context.Context, dir, binary string, args []string, _ func(string)) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{dir: dir, binary: binary, args: args})
	if f.onRun != nil {
		f.onRun(dir, binary, args)
	}
	return f.code, nil
}

func (f *fakeExecutor) count(binary string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.binary == binary {
			n++
		}
	}
	return n
}

func (f *fakeExecutor) last(binary string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].binary == binary {
			return f.calls[i], true
		}
	}
	return call{}, false
}

// toolkitEffects simulates prefetch and fasterq-dump writing their files.
func toolkitEffects(dir, binary string, args []string) {
	switch binary {
	case "prefetch":
		run := args[len(args)-1]
		os.WriteFile(filepath.Join(dir, run+".sra"), []byte("sra"), 0o644)
	case "fasterq-dump":
		run := args[len(args)-1]
		split := false
		for _, arg := range args {
			if arg == "--split-files" {
				split = true
			}
		}
		if split {
			os.WriteFile(filepath.Join(dir, run+"_1.fastq"), []byte("@r\nA\n+\nI\n"), 0o644)
			os.WriteFile(filepath.Join(dir, run+"_2.fastq"), []byte("@r\nA\n+\nI\n"), 0o644)
		} else {
			os.WriteFile(filepath.Join(dir, run+".fastq"), []byte("@r\nA\n+\nI\n"), 0o644)
		}
	}
}

// scriptBase returns the batch script filename of a filtering tool call.
func scriptBase(c call) string {
	if len(c.args) == 0 {
		return ""
	}
	return filepath.Base(c.args[0])
}

func newManager(t *testing.T, cfg *config.Config, fake *fakeExecutor, store *ledger.Store) *pipeline.Manager {
	t.Helper()
	logger := logging.NewNop()
	return pipeline.New(cfg, logger, store,
		pipeline.WithSRAClient(sra.New(cfg, logger, sra.WithExecutor(fake))),
		pipeline.WithMothurClient(mothur.New(cfg, logger, mothur.WithExecutor(fake))),
		pipeline.WithSilvaInstaller(silva.New(cfg, logger)),
	)
}

// installReference fakes an installed reference so preprocessing can run.
func installReference(t *testing.T, cfg *config.Config) string {
	t.Helper()
	seedDir := filepath.Join(cfg.Paths.DataDir, "silva.seed_v"+cfg.Silva.Version)
	align := filepath.Join(seedDir, "silva.seed_v"+cfg.Silva.Version+".align")
	testsupport.WriteFile(t, align, ">ref\nACGT\n")
	goldDir := filepath.Join(cfg.Paths.DataDir, "silva.gold.bacteria")
	testsupport.WriteFile(t, filepath.Join(goldDir, "silva.gold.align"), ">gold\nACGT\n")
	return align
}

// workspaceCount reports how many scratch directories remain under the cache.
func workspaceCount(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	n := 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "ws-") {
			n++
		}
	}
	return n
}
