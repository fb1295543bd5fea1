package labflow

import (
	"context"
	"time"
)

// ExecutionCallbacks defines the callback interface for workflow execution
// events. Callbacks are invoked synchronously from the executing goroutine.
type ExecutionCallbacks interface {
	// Workflow-level callbacks
	BeforeWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent)
	AfterWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent)

	// Operation-level callbacks
	BeforeOperationExecution(ctx context.Context, event *OperationExecutionEvent)
	AfterOperationExecution(ctx context.Context, event *OperationExecutionEvent)
}

// WorkflowExecutionEvent provides context for workflow-level execution events
type WorkflowExecutionEvent struct {
	ExecutionID    string
	WorkflowName   string
	Status         ExecutionStatus
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	OperationCount int
	Result         *WorkflowResult
	Error          error
}

// OperationExecutionEvent provides context for operation-level execution events
type OperationExecutionEvent struct {
	ExecutionID   string
	WorkflowName  string
	OperationID   string
	OperationType string
	TaskKind      string
	RemoteTaskID  string
	Parameters    map[string]any
	Status        StepStatus
	Output        map[string]any
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	Polls         int
	Error         error
}

// BaseExecutionCallbacks provides a default implementation of
// ExecutionCallbacks that does nothing. Embed this in your own callback
// implementations to only override the events you care about.
type BaseExecutionCallbacks struct{}

func (c *BaseExecutionCallbacks) BeforeWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
	// noop
}

func (c *BaseExecutionCallbacks) AfterWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
	// noop
}

func (c *BaseExecutionCallbacks) BeforeOperationExecution(ctx context.Context, event *OperationExecutionEvent) {
	// noop
}

func (c *BaseExecutionCallbacks) AfterOperationExecution(ctx context.Context, event *OperationExecutionEvent) {
	// noop
}

// CallbackChain combines multiple callbacks into one. Callbacks are invoked
// in the order they were added.
type CallbackChain struct {
	callbacks []ExecutionCallbacks
}

// NewCallbackChain creates a chain of the given callbacks.
func NewCallbackChain(callbacks ...ExecutionCallbacks) *CallbackChain {
	return &CallbackChain{callbacks: callbacks}
}

// Add appends a callback to the chain.
func (c *CallbackChain) Add(callback ExecutionCallbacks) {
	c.callbacks = append(c.callbacks, callback)
}

func (c *CallbackChain) BeforeWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeWorkflowExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterWorkflowExecution(ctx, event)
	}
}

func (c *CallbackChain) BeforeOperationExecution(ctx context.Context, event *OperationExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeOperationExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterOperationExecution(ctx context.Context, event *OperationExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterOperationExecution(ctx, event)
	}
}
