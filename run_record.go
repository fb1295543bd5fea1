package labflow

import "time"

// RunRecord is a serializable snapshot of one execution's progress. The
// engine records a snapshot after every step and once more when the
// execution reaches a terminal status, so the newest record for an execution
// is always its most complete view.
type RunRecord struct {
	ID           string          `json:"id"`
	ExecutionID  string          `json:"execution_id"`
	WorkflowName string          `json:"workflow_name"`
	Status       ExecutionStatus `json:"status"`
	Steps        []*StepResult   `json:"steps"`
	Error        string          `json:"error,omitempty"`
	StartTime    time.Time       `json:"start_time,omitzero"`
	EndTime      time.Time       `json:"end_time,omitzero"`
	RecordedAt   time.Time       `json:"recorded_at,omitzero"`
}
