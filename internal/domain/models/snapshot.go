package models

import "time"

// RunState is the analysis lifecycle state.
type RunState string

const (
	StateUninitialized RunState = "uninitialized"
	StateRunning       RunState = "running"
	StateReady         RunState = "ready"
	StateFailed        RunState = "failed"
)

// Failure is the published error descriptor of a failed run.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Snapshot is the published terminal state of a run. Exactly one of Result and
// Failure is set.
type Snapshot struct {
	RunID       string
	State       RunState
	StartedAt   time.Time
	CompletedAt time.Time
	Result      *AnalysisResult
	Failure     *Failure
}

// Ready reports whether the snapshot carries a result.
func (s *Snapshot) Ready() bool {
	return s != nil && s.State == StateReady && s.Result != nil
}

// RunStatus describes the service without exposing the result.
type RunStatus struct {
	State       RunState  `json:"state"`
	Running     bool      `json:"running"`
	RunID       string    `json:"run_id,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Failure     *Failure  `json:"failure,omitempty"`
	Runs        int64     `json:"runs"`
}

// RunRecord is the persisted history row of one finished run.
type RunRecord struct {
	RunID           string
	Trigger         string
	Engine          string
	State           RunState
	StartedAt       time.Time
	CompletedAt     time.Time
	Digest          string
	Tau             int
	ChangePointDate string
	Mu1             float64
	Mu2             float64
	Sigma1          float64
	Sigma2          float64
	ErrorKind       string
	ErrorMessage    string
}

// Duration returns the wall time of the run.
func (r RunRecord) Duration() time.Duration { return r.CompletedAt.Sub(r.StartedAt) }
