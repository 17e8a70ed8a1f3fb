package ledger

import "time"

// Status classifies a recorded stage outcome.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Event is one recorded stage outcome for a run. Batch-level stages record
// events with an empty Run.
type Event struct {
	ID        int64
	Run       string
	Stage     string
	Status    Status
	Detail    string
	CreatedAt time.Time
}

// RunState summarizes the most recent event per (run, stage) pair.
type RunState struct {
	Run       string
	Stage     string
	Status    Status
	Detail    string
	UpdatedAt time.Time
}
