package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"seqmart/internal/fileutil"
	"seqmart/internal/ledger"
	"seqmart/internal/logging"
	"seqmart/internal/services"
	"seqmart/internal/services/mothur"
	"seqmart/internal/stage"
	"seqmart/internal/workspace"
)

// Merge concatenates every run's filtered outputs into the batch-level
// merged pair. The stage is skipped when the merged files already exist, and
// also when no run has produced filtered outputs yet.
func (m *Manager) Merge(ctx context.Context) error {
	ctx = services.WithStage(ctx, StageMerge)

	dataDir := m.cfg.Paths.DataDir
	targets := stage.MergeTargets(dataDir)
	if targets.Complete() {
		m.logger.Info("merged outputs already present")
		m.record(ctx, "", StageMerge, ledger.StatusSkipped, "outputs present")
		return nil
	}

	fastas, err := fileutil.GlobRecursive(dataDir, "filtered.fasta")
	if err != nil {
		return services.Wrap(services.ErrValidation, StageMerge, "locate filtered outputs", dataDir, err)
	}
	groups, err := fileutil.GlobRecursive(dataDir, "filtered.group")
	if err != nil {
		return services.Wrap(services.ErrValidation, StageMerge, "locate filtered outputs", dataDir, err)
	}
	if len(fastas) == 0 || len(groups) == 0 {
		m.logger.Info("no filtered outputs to merge")
		m.record(ctx, "", StageMerge, ledger.StatusSkipped, "no filtered outputs")
		return nil
	}

	m.record(ctx, "", StageMerge, ledger.StatusStarted,
		strconv.Itoa(len(fastas))+" runs")
	err = workspace.With(m.cfg.Paths.CacheDir, func(ws *workspace.Workspace) error {
		script, err := mothur.Render(mothur.ScriptMerge, map[string]any{
			"input_fastas": mothur.JoinInputs(fastas),
			"input_groups": mothur.JoinInputs(groups),
			"output_fasta": ws.Join("merged.fasta"),
			"output_group": ws.Join("merged.group"),
		})
		if err != nil {
			return err
		}
		scriptPath, err := ws.WriteFile("merge.batch", script)
		if err != nil {
			return services.Wrap(services.ErrTemplate, StageMerge, "write script", scriptPath, err)
		}

		code, err := m.mothur.RunScript(ctx, ws.Path(), scriptPath)
		if err != nil {
			return err
		}
		if code != 0 {
			return services.Wrap(services.ErrExternalTool, StageMerge, "run merge script",
				fmt.Sprintf("exit code %d", code), nil)
		}

		// The tool has been observed to decorate output names, so the
		// produced files are re-resolved by pattern rather than assumed.
		return promoteMergeOutputs(ws, targets)
	})
	if err != nil {
		m.record(ctx, "", StageMerge, ledger.StatusFailed, err.Error())
		return err
	}

	m.logger.Info("runs merged", logging.Int("runs", len(fastas)))
	m.record(ctx, "", StageMerge, ledger.StatusCompleted,
		strconv.Itoa(len(fastas))+" runs")
	return nil
}

func promoteMergeOutputs(ws *workspace.Workspace, targets stage.TargetPathSet) error {
	sources := map[string]string{
		stage.RoleFasta: "merged*.fasta",
		stage.RoleGroup: "merged*.group",
	}
	resolved := make(map[string]string, len(sources))
	for role, pattern := range sources {
		matches, err := fileutil.Glob(ws.Path(), pattern)
		if err != nil || len(matches) == 0 {
			return services.Wrap(services.ErrMissingOutput, StageMerge, "collect outputs", pattern, err)
		}
		resolved[role] = matches[0]
	}
	for role, src := range resolved {
		if err := fileutil.MoveFile(src, targets[role]); err != nil {
			return services.Wrap(services.ErrMissingOutput, StageMerge, "promote outputs",
				targets[role], err)
		}
	}
	return nil
}
