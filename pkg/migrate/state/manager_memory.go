package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NewMemoryManager : run logs live as long as the process , transitions are logged to log
func NewMemoryManager(log zerolog.Logger) *MemoryManager {
	return &MemoryManager{
		runs: make(map[string]*RunLog),
		log:  log,
	}
}

type MemoryManager struct {
	mu   sync.Mutex
	runs map[string]*RunLog
	log  zerolog.Logger
}

func (m *MemoryManager) InitRunLog(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID] = &RunLog{
		RunID:  runID,
		Status: Started,
		Base:   Base{CreatedAt: currentTime(), UpdatedAt: currentTime()},
	}
	m.log.Debug().Str("run_id", runID).Str("status", string(Started)).Msg("run")
}

func (m *MemoryManager) GetRunLog(runID string) *RunLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil
	}
	cp := *run
	cp.Steps = make([]*StepRunLog, len(run.Steps))
	for i, step := range run.Steps {
		s := *step
		cp.Steps[i] = &s
	}
	return &cp
}

func (m *MemoryManager) FailedRunLog(runID string, err error) {
	m.updateRunStatus(runID, statusFor(err), err)
}

func (m *MemoryManager) PassedRunLog(runID string) {
	m.updateRunStatus(runID, Success, nil)
}

func (m *MemoryManager) InitStepRunLog(runID string, step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return
	}
	run.Steps = append(run.Steps, &StepRunLog{
		ParentRunID: runID,
		Step:        step,
		Status:      Started,
		Base:        Base{CreatedAt: currentTime(), UpdatedAt: currentTime()},
	})
}

func (m *MemoryManager) FailedStepRun(runID string, step string, err error) {
	m.updateStepRunStatus(runID, step, statusFor(err), "", err)
}

func (m *MemoryManager) PassedStepRun(runID string, step string, jobID string) {
	m.updateStepRunStatus(runID, step, Success, jobID, nil)
}

func (m *MemoryManager) updateRunStatus(runID string, status RunLogState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return
	}
	run.Status = status
	run.UpdatedAt = currentTime()
	if err != nil {
		run.ErrMsg = err.Error()
	}
	// steps still running when the run ends did not finish
	if status != Success {
		for _, step := range run.Steps {
			if step.Status == Started {
				step.Status = Aborted
				step.UpdatedAt = currentTime()
			}
		}
	}
	m.log.Debug().Str("run_id", runID).Str("status", string(status)).Msg("run")
}

func (m *MemoryManager) updateStepRunStatus(runID string, step string, status RunLogState, jobID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return
	}
	for i := len(run.Steps) - 1; i >= 0; i-- {
		s := run.Steps[i]
		if s.Step != step || s.Status != Started {
			continue
		}
		s.Status = status
		s.JobID = jobID
		s.UpdatedAt = currentTime()
		if err != nil {
			s.ErrMsg = err.Error()
		}
		m.log.Debug().Str("run_id", runID).Str("step", step).Str("status", string(status)).Msg("step")
		return
	}
}

// an interrupted run is aborted rather than failed
func statusFor(err error) RunLogState {
	if errors.Is(err, context.Canceled) {
		return Aborted
	}
	return Failed
}

func currentTime() *time.Time {
	now := time.Now()
	return &now
}
