package pipeline

import (
	"context"

	"seqmart/internal/ledger"
	"seqmart/internal/services"
)

// InstallReference ensures the reference datasets are installed locally.
// The installer itself skips datasets whose directories already exist.
func (m *Manager) InstallReference(ctx context.Context) error {
	ctx = services.WithStage(ctx, StageReference)

	m.record(ctx, "", StageReference, ledger.StatusStarted, m.cfg.Silva.Version)
	if err := m.silva.Install(ctx); err != nil {
		m.record(ctx, "", StageReference, ledger.StatusFailed, err.Error())
		return err
	}
	m.record(ctx, "", StageReference, ledger.StatusCompleted, m.cfg.Silva.Version)
	return nil
}
