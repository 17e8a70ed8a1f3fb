package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"seqmart/internal/ledger"
	"seqmart/internal/services"
	"seqmart/internal/services/mothur"
	"seqmart/internal/stage"
)

// PreprocessDir is the batch-level output directory under the data dir.
const PreprocessDir = "preprocessed"

// Preprocess dereplicates the merged batch, aligns it against the trimmed
// reference, and screens the alignment. It requires the merged outputs and
// the installed reference, and is gated on its own output files like every
// other stage.
func (m *Manager) Preprocess(ctx context.Context) error {
	ctx = services.WithStage(ctx, StagePreprocess)

	dataDir := m.cfg.Paths.DataDir
	outDir := filepath.Join(dataDir, PreprocessDir)
	targets := stage.PreprocessTargets(outDir)
	if targets.Complete() {
		m.logger.Info("preprocessed outputs already present")
		m.record(ctx, "", StagePreprocess, ledger.StatusSkipped, "outputs present")
		return nil
	}

	merged := stage.MergeTargets(dataDir)
	if !merged.Complete() {
		err := services.Wrap(services.ErrValidation, StagePreprocess, "check merged inputs",
			"missing "+strings.Join(merged.Missing(), ", "), nil)
		m.record(ctx, "", StagePreprocess, ledger.StatusFailed, err.Error())
		return err
	}
	seedAlignment := m.silva.SeedAlignment()
	if _, err := os.Stat(seedAlignment); err != nil {
		wrapped := services.Wrap(services.ErrValidation, StagePreprocess, "check reference",
			seedAlignment, err)
		m.record(ctx, "", StagePreprocess, ledger.StatusFailed, wrapped.Error())
		return wrapped
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, StagePreprocess, "create output directory", outDir, err)
	}

	seedBase := strings.TrimSuffix(filepath.Base(seedAlignment), ".align")
	script, err := mothur.Render(mothur.ScriptPreprocess, map[string]any{
		"outputdir":     outDir,
		"merged_fasta":  merged[stage.RoleFasta],
		"merged_name":   filepath.Join(outDir, "merged.names"),
		"merged_group":  merged[stage.RoleGroup],
		"silva_seed":    seedAlignment,
		"pcr_start":     m.cfg.Silva.SeedPCRStart,
		"pcr_end":       m.cfg.Silva.SeedPCREnd,
		"unique_fasta":  filepath.Join(outDir, "merged.unique.fasta"),
		"silva_pcr":     filepath.Join(outDir, seedBase+".pcr.align"),
		"aligned_fasta": filepath.Join(outDir, "merged.unique.align"),
		"count_table":   filepath.Join(outDir, "merged.count_table"),
		"processors":    m.cfg.Pipeline.Jobs,
	})
	if err != nil {
		m.record(ctx, "", StagePreprocess, ledger.StatusFailed, err.Error())
		return err
	}

	scriptPath := filepath.Join(outDir, "preprocess.batch")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return services.Wrap(services.ErrTemplate, StagePreprocess, "write script", scriptPath, err)
	}

	m.record(ctx, "", StagePreprocess, ledger.StatusStarted, "")
	code, err := m.mothur.RunScript(ctx, outDir, scriptPath)
	if err != nil {
		m.record(ctx, "", StagePreprocess, ledger.StatusFailed, err.Error())
		return err
	}
	if code != 0 {
		wrapped := services.Wrap(services.ErrExternalTool, StagePreprocess, "run preprocess script",
			fmt.Sprintf("exit code %d", code), nil)
		m.record(ctx, "", StagePreprocess, ledger.StatusFailed, wrapped.Error())
		return wrapped
	}
	if !targets.Complete() {
		wrapped := services.Wrap(services.ErrMissingOutput, StagePreprocess, "verify outputs",
			"missing "+strings.Join(targets.Missing(), ", "), nil)
		m.record(ctx, "", StagePreprocess, ledger.StatusFailed, wrapped.Error())
		return wrapped
	}

	m.logger.Info("batch preprocessed")
	m.record(ctx, "", StagePreprocess, ledger.StatusCompleted, "")
	return nil
}
