package model

import "time"

// Run statuses as persisted in the runs table.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Work selection modes of a decomposition run.
const (
	ModeFull      = "full"
	ModeSample    = "sample"
	ModeIndexList = "indexlist"
)

// RunCounts tallies the outcome of a decomposition run. Units counts
// processed work units, Fitted the spectra that produced components,
// Skipped the units dropped after per-unit errors, Filtered the units
// masked out before fitting, Components the persisted records.
type RunCounts struct {
	Units      int64 `json:"units"`
	Fitted     int64 `json:"fitted"`
	Skipped    int64 `json:"skipped"`
	Filtered   int64 `json:"filtered"`
	Components int64 `json:"components"`
}

// Run is the bookkeeping record of one decomposition run, stored next to
// the components it produced.
type Run struct {
	ID        string    `json:"id"`
	Infile    string    `json:"infile"`
	Mode      string    `json:"mode"`
	Config    string    `json:"config"` // fit parameter snapshot, JSON
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is nil while the run is in flight.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Counts RunCounts `json:"counts"`

	// CheckpointUnits and CheckpointAt track the last durable flush, the
	// point a crashed run can be diffed against.
	CheckpointUnits int64      `json:"checkpoint_units"`
	CheckpointAt    *time.Time `json:"checkpoint_at,omitempty"`
}
