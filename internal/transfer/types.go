package transfer

import "time"

// Status classifies one object's outcome.
type Status string

const (
	StatusTransferred Status = "transferred"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

// Action is what a run does with each source object.
type Action string

const (
	ActionCopy Action = "copy"
	ActionMove Action = "move"
)

// Policy fixes the engine's behavior for the lifetime of one run.
type Policy struct {
	Workers      int
	Move         bool
	SkipExisting bool
	Verify       bool
}

// Outcome is the result of one object's run through the transfer
// protocol. Err is set only for failed outcomes; Warning records an
// advisory checksum mismatch that did not change the status.
type Outcome struct {
	Key     string
	Status  Status
	Bytes   int64
	Err     error
	Warning string
}

// Summary aggregates a run's outcomes. Transferred, Skipped and Failed
// always sum to Total.
type Summary struct {
	Total       int
	Transferred int
	Skipped     int
	Failed      int
	Bytes       int64
	Action      Action
	Duration    time.Duration
}
