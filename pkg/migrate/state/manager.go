package state

import "time"

type RunLogState string

const (
	Started RunLogState = "STARTED"
	Success RunLogState = "SUCCESS"
	Aborted RunLogState = "ABORTED"
	Failed  RunLogState = "FAILED"
)

type Base struct {
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type RunLog struct {
	RunID  string        `json:"run_id"`
	Status RunLogState   `json:"status"`
	ErrMsg string        `json:"err_msg"`
	Steps  []*StepRunLog `json:"steps"`
	Base
}

// StepRunLog : one warehouse job of a run
type StepRunLog struct {
	ParentRunID string      `json:"parent_run_id"`
	Step        string      `json:"step"`
	JobID       string      `json:"job_id"`
	Status      RunLogState `json:"status"`
	ErrMsg      string      `json:"err_msg"`
	Base
}

// Manager : tracks where a run is so a failure can be pinned to a step
type Manager interface {
	InitRunLog(runID string)
	// GetRunLog : a copy of the run log , nil if the run is unknown
	GetRunLog(runID string) *RunLog
	FailedRunLog(runID string, err error)
	PassedRunLog(runID string)
	InitStepRunLog(runID string, step string)
	FailedStepRun(runID string, step string, err error)
	PassedStepRun(runID string, step string, jobID string)
}
