package labflow

import "time"

// RunSummary provides a summary view of a stored run without its step
// details.
type RunSummary struct {
	ExecutionID  string          `json:"execution_id"`
	WorkflowName string          `json:"workflow_name"`
	Status       ExecutionStatus `json:"status"`
	StartTime    time.Time       `json:"start_time,omitzero"`
	EndTime      time.Time       `json:"end_time,omitzero"`
	Duration     time.Duration   `json:"duration"`
	StepCount    int             `json:"step_count"`
	Error        string          `json:"error,omitempty"`
}
