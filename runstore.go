package labflow

import "context"

// RunStore persists run records so that progress survives the process and
// past runs can be inspected later.
type RunStore interface {
	// SaveRun saves a snapshot of an execution.
	SaveRun(ctx context.Context, record *RunRecord) error

	// LoadRun loads the latest record for an execution. Returns nil with no
	// error when the execution has no stored records.
	LoadRun(ctx context.Context, executionID string) (*RunRecord, error)

	// DeleteRun removes all stored records for an execution.
	DeleteRun(ctx context.Context, executionID string) error
}
