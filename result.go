package labflow

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StepStatus represents the lifecycle status of a single operation's step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "PENDING"
	StepStatusRunning   StepStatus = "RUNNING"
	StepStatusSucceeded StepStatus = "SUCCEEDED"
	StepStatusFailed    StepStatus = "FAILED"
	StepStatusTimedOut  StepStatus = "TIMED_OUT"
)

// Terminal reports whether the status permits no further transitions.
func (s StepStatus) Terminal() bool {
	return s == StepStatusSucceeded || s == StepStatusFailed || s == StepStatusTimedOut
}

// WorkflowStatus is the overall outcome of one workflow execution.
type WorkflowStatus string

const (
	WorkflowStatusSucceeded WorkflowStatus = "SUCCEEDED"
	WorkflowStatusFailed    WorkflowStatus = "FAILED"
)

// StepResult records the execution of one operation: which remote task it
// became, how it ended, and what it produced.
type StepResult struct {
	OperationID  string         `json:"operation_id"`
	RemoteTaskID string         `json:"remote_task_id,omitempty"`
	Status       StepStatus     `json:"status"`
	Output       map[string]any `json:"output,omitempty"`
	Error        *ErrorInfo     `json:"error,omitempty"`
	StartTime    time.Time      `json:"start_time,omitzero"`
	EndTime      time.Time      `json:"end_time,omitzero"`
}

// Copy returns a copy of the step result safe to hand to other goroutines.
// The output map is copied shallowly.
func (r *StepResult) Copy() *StepResult {
	cp := *r
	if r.Output != nil {
		cp.Output = copyMap(r.Output)
	}
	if r.Error != nil {
		errInfo := *r.Error
		cp.Error = &errInfo
	}
	return &cp
}

// WorkflowResult describes one complete execution: every step that ran, in
// order, and the overall outcome. An execution always produces exactly one.
type WorkflowResult struct {
	WorkflowName string         `json:"workflow_name"`
	ExecutionID  string         `json:"execution_id"`
	Steps        []*StepResult  `json:"steps"`
	FinalStatus  WorkflowStatus `json:"final_status"`
	CompletedAt  time.Time      `json:"completed_at,omitzero"`
}

// FailedStep returns the step that ended the execution, or nil if every step
// succeeded.
func (r *WorkflowResult) FailedStep() *StepResult {
	for _, step := range r.Steps {
		if step.Status != StepStatusSucceeded {
			return step
		}
	}
	return nil
}

// WriteResultFile writes a workflow result to a file as indented JSON.
func WriteResultFile(path string, result *WorkflowResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}
