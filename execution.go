package labflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.jetify.com/typeid"
)

// NewExecutionID returns a new identifier for one workflow execution.
func NewExecutionID() string {
	id, err := typeid.WithPrefix("exec")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// ExecutionStatus represents the execution lifecycle status
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ExecutionConfig carries the polling parameters for one execution. The
// engine never reads ambient configuration; callers pass values explicitly.
type ExecutionConfig struct {
	// PollInterval is the fixed delay between task status queries.
	PollInterval time.Duration

	// MaxWait bounds the wait for each operation's task independently.
	MaxWait time.Duration

	// StatusRetries enables bounded retry of recoverable status-query
	// failures while polling. Zero means the first failure aborts.
	StatusRetries int

	// StatusRetryDelay is the pause between status retry attempts.
	StatusRetryDelay time.Duration
}

// ExecutionOptions are used to configure a new execution.
type ExecutionOptions struct {
	// Workflow to execute. Required.
	Workflow *Workflow

	// Client submits tasks and queries their state. Required.
	Client TaskClient

	// Registry of operation handlers. Required.
	Registry *Registry

	// Config carries the polling parameters. Required.
	Config ExecutionConfig

	// Logger for execution logging.
	Logger *slog.Logger

	// Clock supplies time. Defaults to the system clock.
	Clock Clock

	// RunStore persists progress snapshots. Defaults to a no-op store.
	RunStore RunStore

	// StepLogger records per-step log entries. Defaults to a no-op logger.
	StepLogger StepLogger

	// Callbacks receive execution lifecycle events.
	Callbacks ExecutionCallbacks

	// ExecutionID overrides the generated id.
	ExecutionID string
}

// Execution runs one workflow against the remote task service: each
// operation is resolved, validated, submitted, polled to completion, and its
// result captured, in declaration order. An execution is single-use.
type Execution struct {
	workflow   *Workflow
	client     TaskClient
	registry   *Registry
	config     ExecutionConfig
	waiter     *Waiter
	clock      Clock
	runStore   RunStore
	stepLogger StepLogger
	callbacks  ExecutionCallbacks
	logger     *slog.Logger

	state         *executionState
	mutex         sync.Mutex
	started       bool
	recordCounter int
	result        *WorkflowResult
}

// NewExecution returns a new Execution configured with the given options.
func NewExecution(opts ExecutionOptions) (*Execution, error) {
	if opts.Workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("task client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("operation registry is required")
	}
	if opts.Config.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if opts.Config.MaxWait <= 0 {
		return nil, fmt.Errorf("max wait must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.RunStore == nil {
		opts.RunStore = NewNullRunStore()
	}
	if opts.StepLogger == nil {
		opts.StepLogger = NewNullStepLogger()
	}
	if opts.Callbacks == nil {
		opts.Callbacks = &BaseExecutionCallbacks{}
	}
	if opts.ExecutionID == "" {
		opts.ExecutionID = NewExecutionID()
	}

	logger := opts.Logger.With("execution_id", opts.ExecutionID)
	waiter, err := NewWaiter(WaiterOptions{
		Client:           opts.Client,
		Clock:            opts.Clock,
		Logger:           logger,
		StatusRetries:    opts.Config.StatusRetries,
		StatusRetryDelay: opts.Config.StatusRetryDelay,
	})
	if err != nil {
		return nil, err
	}

	return &Execution{
		workflow:   opts.Workflow,
		client:     opts.Client,
		registry:   opts.Registry,
		config:     opts.Config,
		waiter:     waiter,
		clock:      opts.Clock,
		runStore:   opts.RunStore,
		stepLogger: opts.StepLogger,
		callbacks:  opts.Callbacks,
		logger:     logger,
		state:      newExecutionState(opts.ExecutionID, opts.Workflow.Name()),
	}, nil
}

// ID returns the execution ID
func (e *Execution) ID() string {
	return e.state.executionID
}

// Status returns the execution lifecycle status. It is meaningful once Run
// has returned.
func (e *Execution) Status() ExecutionStatus {
	return e.state.status
}

// Result returns the workflow result. It is nil until Run returns.
func (e *Execution) Result() *WorkflowResult {
	return e.result
}

func (e *Execution) start() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.started {
		return fmt.Errorf("execution already started")
	}
	e.started = true
	return nil
}

// Run executes the workflow to completion. It always returns a non-nil
// WorkflowResult describing which steps ran and how they ended. The returned
// error is non-nil exactly when the final status is FAILED, and mirrors the
// failure recorded on the step that ended the run.
func (e *Execution) Run(ctx context.Context) (*WorkflowResult, error) {
	if err := e.start(); err != nil {
		return nil, err
	}
	return e.run(ctx)
}

func (e *Execution) run(ctx context.Context) (*WorkflowResult, error) {
	e.state.status = ExecutionStatusRunning
	e.state.startTime = e.clock.Now()

	operations := e.workflow.Operations()
	e.callbacks.BeforeWorkflowExecution(ctx, &WorkflowExecutionEvent{
		ExecutionID:    e.ID(),
		WorkflowName:   e.workflow.Name(),
		Status:         e.state.status,
		StartTime:      e.state.startTime,
		OperationCount: len(operations),
	})
	e.logger.Info("starting workflow execution",
		"workflow", e.workflow.Name(),
		"operations", len(operations))

	var runErr error
	if err := checkDuplicateIDs(operations); err != nil {
		runErr = err
	} else {
		for _, op := range operations {
			step, err := e.executeOperation(ctx, op)
			e.state.appendStep(step)
			e.saveRunRecord(ctx)
			if err != nil {
				runErr = err
				break
			}
		}
	}

	endTime := e.clock.Now()
	e.state.endTime = endTime
	finalStatus := WorkflowStatusSucceeded
	if runErr != nil {
		finalStatus = WorkflowStatusFailed
		e.state.status = ExecutionStatusFailed
		e.state.err = runErr
		e.logger.Error("workflow execution failed", "error", runErr)
	} else {
		e.state.status = ExecutionStatusCompleted
		e.logger.Info("workflow execution completed",
			"steps", len(e.state.steps))
	}

	result := &WorkflowResult{
		WorkflowName: e.workflow.Name(),
		ExecutionID:  e.ID(),
		Steps:        e.state.steps,
		FinalStatus:  finalStatus,
		CompletedAt:  endTime,
	}
	e.result = result

	e.callbacks.AfterWorkflowExecution(ctx, &WorkflowExecutionEvent{
		ExecutionID:    e.ID(),
		WorkflowName:   e.workflow.Name(),
		Status:         e.state.status,
		StartTime:      e.state.startTime,
		EndTime:        endTime,
		Duration:       endTime.Sub(e.state.startTime),
		OperationCount: len(operations),
		Result:         result,
		Error:          runErr,
	})

	// Final snapshot carries the terminal status
	e.saveRunRecord(ctx)
	return result, runErr
}

// executeOperation runs a single operation through resolve, validate,
// submit, wait, and fetch. It always returns a step result; a non-nil error
// means the workflow must stop.
func (e *Execution) executeOperation(ctx context.Context, op *Operation) (*StepResult, error) {
	startTime := e.clock.Now()
	step := &StepResult{
		OperationID: op.ID,
		Status:      StepStatusPending,
		StartTime:   startTime,
	}
	logger := e.logger.With("operation_id", op.ID, "operation_type", op.Type)
	logger.Info("executing operation")

	event := &OperationExecutionEvent{
		ExecutionID:   e.ID(),
		WorkflowName:  e.workflow.Name(),
		OperationID:   op.ID,
		OperationType: op.Type,
		Status:        StepStatusPending,
		StartTime:     startTime,
	}
	// Callbacks get a snapshot; the event keeps accumulating detail until
	// the operation is terminal.
	beforeEvent := *event
	e.callbacks.BeforeOperationExecution(ctx, &beforeEvent)

	fail := func(status StepStatus, failErr error) (*StepResult, error) {
		step.Status = status
		step.Error = ClassifyError(failErr)
		step.EndTime = e.clock.Now()
		event.Status = status
		event.EndTime = step.EndTime
		event.Duration = step.EndTime.Sub(startTime)
		event.Error = failErr
		e.callbacks.AfterOperationExecution(ctx, event)
		e.logStep(ctx, event, step)
		logger.Error("operation failed",
			"status", status,
			"error", failErr)
		return step, failErr
	}

	resolved, err := ResolveParams(op.Params, e.state.priorOutputs)
	if err != nil {
		return fail(StepStatusFailed, err)
	}
	event.Parameters = copyMap(resolved)

	handler, err := e.registry.Handler(op.ID, op.Type)
	if err != nil {
		return fail(StepStatusFailed, err)
	}
	event.TaskKind = handler.TaskKind()

	if err := handler.Validate(op.ID, resolved); err != nil {
		return fail(StepStatusFailed, err)
	}
	request, err := handler.BuildRequest(op.ID, resolved)
	if err != nil {
		return fail(StepStatusFailed, err)
	}

	taskID, err := e.client.Submit(ctx, handler.TaskKind(), request)
	if err != nil {
		return fail(StepStatusFailed, err)
	}
	step.RemoteTaskID = taskID
	step.Status = StepStatusRunning
	event.RemoteTaskID = taskID
	logger.Info("task submitted",
		"task_kind", handler.TaskKind(),
		"task_id", taskID)

	outcome, err := e.waiter.Wait(ctx, taskID, e.config.PollInterval, e.config.MaxWait)
	if err != nil {
		return fail(StepStatusFailed, err)
	}
	event.Polls = outcome.Polls

	switch outcome.Status {
	case StepStatusFailed:
		return fail(StepStatusFailed, &RemoteTaskFailedError{TaskID: taskID, Detail: outcome.ErrorDetail})
	case StepStatusTimedOut:
		return fail(StepStatusTimedOut, &WaiterTimeoutError{TaskID: taskID, MaxWait: e.config.MaxWait})
	}

	output, err := e.client.FetchResult(ctx, taskID)
	if err != nil {
		return fail(StepStatusFailed, err)
	}
	e.state.setOutput(op.ID, output)

	step.Status = StepStatusSucceeded
	step.Output = output
	step.EndTime = e.clock.Now()
	event.Status = StepStatusSucceeded
	event.Output = copyMap(output)
	event.EndTime = step.EndTime
	event.Duration = step.EndTime.Sub(startTime)
	e.callbacks.AfterOperationExecution(ctx, event)
	e.logStep(ctx, event, step)
	logger.Info("operation completed",
		"task_id", taskID,
		"polls", outcome.Polls,
		"duration", event.Duration)
	return step, nil
}

// logStep appends the terminal step entry to the step logger. Logging
// failures are reported but never fail the run.
func (e *Execution) logStep(ctx context.Context, event *OperationExecutionEvent, step *StepResult) {
	entry := &StepLogEntry{
		ExecutionID:   event.ExecutionID,
		OperationID:   event.OperationID,
		OperationType: event.OperationType,
		TaskKind:      event.TaskKind,
		RemoteTaskID:  event.RemoteTaskID,
		Parameters:    event.Parameters,
		Status:        step.Status,
		Output:        step.Output,
		Polls:         event.Polls,
		StartTime:     step.StartTime,
		Duration:      step.EndTime.Sub(step.StartTime).Seconds(),
	}
	if step.Error != nil {
		entry.Error = step.Error.Message
	}
	if err := e.stepLogger.LogStep(ctx, entry); err != nil {
		e.logger.Error("failed to log step", "error", err)
	}
}

// saveRunRecord snapshots the execution into the run store. Store failures
// are reported but never fail the run.
func (e *Execution) saveRunRecord(ctx context.Context) {
	e.recordCounter++
	record := e.state.toRunRecord(fmt.Sprintf("%d", e.recordCounter), e.clock.Now())
	if err := e.runStore.SaveRun(ctx, record); err != nil {
		e.logger.Error("failed to save run record", "error", err)
	}
}

// checkDuplicateIDs enforces operation id uniqueness before any remote call
// is made.
func checkDuplicateIDs(operations []*Operation) error {
	seen := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		if _, exists := seen[op.ID]; exists {
			return &DuplicateOperationIDError{OperationID: op.ID}
		}
		seen[op.ID] = struct{}{}
	}
	return nil
}
