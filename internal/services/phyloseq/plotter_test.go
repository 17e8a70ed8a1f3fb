package phyloseq

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seqmart/internal/config"
	"seqmart/internal/logging"
	"seqmart/internal/services"
)

type fakeExecutor struct {
	code   int
	err    error
	script string
	onRun  func()
}

func (f *fakeExecutor) Run(_ context.Context, dir, binary string, args []string, _ func(string)) (int, error) {
	if len(args) == 1 {
		raw, err := os.ReadFile(args[0])
		if err == nil {
			f.script = string(raw)
		}
	}
	if f.onRun != nil {
		f.onRun()
	}
	return f.code, f.err
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testSetup(t *testing.T, fake *fakeExecutor) (*Plotter, BarPlot) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()
	output := filepath.Join(dir, "abundance.png")
	fake.onRun = func() {
		if fake.err == nil && fake.code == 0 {
			if err := os.WriteFile(output, []byte("png"), 0o644); err != nil {
				t.Errorf("write output: %v", err)
			}
		}
	}
	req := BarPlot{
		Shared:   writeInput(t, dir, "final.shared"),
		Taxonomy: writeInput(t, dir, "final.cons.taxonomy"),
		Cutoff:   0.03,
		Level:    "Rank6",
		Output:   output,
	}
	return New(&cfg, logging.NewNop(), WithExecutor(fake)), req
}

func TestPlotBarRendersScript(t *testing.T) {
	fake := &fakeExecutor{}
	plotter, req := testSetup(t, fake)

	if err := plotter.PlotBar(t.Context(), req); err != nil {
		t.Fatalf("PlotBar() error: %v", err)
	}
	for _, want := range []string{
		"import_mothur(",
		`mothur_shared_file = "` + req.Shared + `"`,
		`mothur_constaxonomy_file = "` + req.Taxonomy + `"`,
		`cutoff = "0.03"`,
		`fill = "Rank6"`,
		`ggsave("` + req.Output + `"`,
	} {
		if !strings.Contains(fake.script, want) {
			t.Errorf("script missing %q:\n%s", want, fake.script)
		}
	}
	if strings.Contains(fake.script, "mothur_list_file") {
		t.Errorf("script references list file without one:\n%s", fake.script)
	}
}

func TestPlotBarIncludesOptionalListFile(t *testing.T) {
	fake := &fakeExecutor{}
	plotter, req := testSetup(t, fake)
	req.List = writeInput(t, filepath.Dir(req.Shared), "final.list")

	if err := plotter.PlotBar(t.Context(), req); err != nil {
		t.Fatalf("PlotBar() error: %v", err)
	}
	if !strings.Contains(fake.script, `mothur_list_file = "`+req.List+`"`) {
		t.Errorf("script missing list file:\n%s", fake.script)
	}
}

func TestPlotBarRejectsMissingInputs(t *testing.T) {
	fake := &fakeExecutor{}
	plotter, req := testSetup(t, fake)
	req.Shared = filepath.Join(t.TempDir(), "absent.shared")

	err := plotter.PlotBar(t.Context(), req)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("PlotBar() error = %v, want ErrValidation", err)
	}
	if fake.script != "" {
		t.Error("executor ran despite missing inputs")
	}
}

func TestPlotBarReportsNonZeroExit(t *testing.T) {
	fake := &fakeExecutor{code: 1}
	plotter, req := testSetup(t, fake)

	err := plotter.PlotBar(t.Context(), req)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("PlotBar() error = %v, want ErrExternalTool", err)
	}
}

func TestPlotBarRequiresOutputFile(t *testing.T) {
	fake := &fakeExecutor{}
	plotter, req := testSetup(t, fake)
	fake.onRun = nil // exit zero but never write the image

	err := plotter.PlotBar(t.Context(), req)
	if !errors.Is(err, services.ErrMissingOutput) {
		t.Fatalf("PlotBar() error = %v, want ErrMissingOutput", err)
	}
}
