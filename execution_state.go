package labflow

import "time"

// executionState consolidates the mutable state of one execution: the steps
// recorded so far and the outputs available for reference resolution. Only
// the goroutine running the execution touches it.
type executionState struct {
	executionID  string
	workflowName string
	status       ExecutionStatus
	startTime    time.Time
	endTime      time.Time
	err          error
	steps        []*StepResult
	priorOutputs map[string]map[string]any
}

func newExecutionState(executionID, workflowName string) *executionState {
	return &executionState{
		executionID:  executionID,
		workflowName: workflowName,
		status:       ExecutionStatusPending,
		steps:        []*StepResult{},
		priorOutputs: map[string]map[string]any{},
	}
}

func (s *executionState) appendStep(step *StepResult) {
	s.steps = append(s.steps, step)
}

// setOutput publishes a completed operation's result for reference
// resolution. The entry nests the result under "output" to match the
// reference grammar.
func (s *executionState) setOutput(operationID string, result map[string]any) {
	s.priorOutputs[operationID] = map[string]any{"output": result}
}

func (s *executionState) copySteps() []*StepResult {
	steps := make([]*StepResult, len(s.steps))
	for i, step := range s.steps {
		steps[i] = step.Copy()
	}
	return steps
}

// toRunRecord snapshots the state for persistence.
func (s *executionState) toRunRecord(recordID string, now time.Time) *RunRecord {
	record := &RunRecord{
		ID:           recordID,
		ExecutionID:  s.executionID,
		WorkflowName: s.workflowName,
		Status:       s.status,
		Steps:        s.copySteps(),
		StartTime:    s.startTime,
		EndTime:      s.endTime,
		RecordedAt:   now,
	}
	if s.err != nil {
		record.Error = s.err.Error()
	}
	return record
}

// copyMap creates a shallow copy of a map.
func copyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
