package labflow

import (
	"context"
	"time"
)

// StepLogEntry represents a single step log entry
type StepLogEntry struct {
	ExecutionID   string         `json:"execution_id"`
	OperationID   string         `json:"operation_id"`
	OperationType string         `json:"operation_type"`
	TaskKind      string         `json:"task_kind,omitempty"`
	RemoteTaskID  string         `json:"remote_task_id,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Status        StepStatus     `json:"status"`
	Output        map[string]any `json:"output,omitempty"`
	Error         string         `json:"error,omitempty"`
	Polls         int            `json:"polls,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	Duration      float64        `json:"duration"`
}

// StepLogger defines simple step logging interface
type StepLogger interface {
	// LogStep logs a completed step
	LogStep(ctx context.Context, entry *StepLogEntry) error

	// GetStepHistory retrieves the step log for an execution
	GetStepHistory(ctx context.Context, executionID string) ([]*StepLogEntry, error)
}
