package labflow

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds recorded on step results. Every failure an execution can
// produce classifies into exactly one of these.
const (
	ErrorKindDuplicateOperationID = "duplicate_operation_id"
	ErrorKindUnsupportedOperation = "unsupported_operation"
	ErrorKindMissingParameter     = "missing_parameter"
	ErrorKindInvalidParameterType = "invalid_parameter_type"
	ErrorKindUnknownReference     = "unknown_reference"
	ErrorKindInvalidFieldPath     = "invalid_field_path"
	ErrorKindSubmission           = "submission"
	ErrorKindStatusQuery          = "status_query"
	ErrorKindResultFetch          = "result_fetch"
	ErrorKindWaiterTimeout        = "waiter_timeout"
	ErrorKindRemoteTaskFailed     = "remote_task_failed"
	ErrorKindInternal             = "internal"
)

// ErrorInfo is the serializable classification of a failure, suitable for
// embedding in step results and run records.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// DuplicateOperationIDError indicates two operations in a workflow share an
// id. Detected before any remote call is made.
type DuplicateOperationIDError struct {
	OperationID string
}

func (e *DuplicateOperationIDError) Error() string {
	return fmt.Sprintf("duplicate operation id %q", e.OperationID)
}

// UnsupportedOperationError indicates an operation's type has no registered
// handler.
type UnsupportedOperationError struct {
	OperationID string
	Type        string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %q: type %q not registered", e.OperationID, e.Type)
}

// MissingParameterError indicates a required parameter was absent after
// reference resolution.
type MissingParameterError struct {
	OperationID string
	Parameter   string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("operation %q: missing required parameter %q", e.OperationID, e.Parameter)
}

// InvalidParameterTypeError indicates a parameter value had the wrong type
// after reference resolution.
type InvalidParameterTypeError struct {
	OperationID string
	Parameter   string
	Expected    string
}

func (e *InvalidParameterTypeError) Error() string {
	return fmt.Sprintf("operation %q: parameter %q must be %s", e.OperationID, e.Parameter, e.Expected)
}

// UnknownReferenceError indicates a parameter referenced an operation that
// does not exist or has not completed yet.
type UnknownReferenceError struct {
	Reference string
	TargetID  string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("reference %q: operation %q not found or not executed yet", e.Reference, e.TargetID)
}

// InvalidFieldPathError indicates a reference named an operation whose output
// does not contain the requested field path.
type InvalidFieldPathError struct {
	Reference string
	TargetID  string
	Segment   string
}

func (e *InvalidFieldPathError) Error() string {
	return fmt.Sprintf("reference %q: segment %q not found in output of operation %q", e.Reference, e.Segment, e.TargetID)
}

// SubmissionError indicates a task submission did not yield a task id.
type SubmissionError struct {
	Kind string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("task submission failed for kind %q: %v", e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// StatusQueryError indicates a status query could not determine the task's
// state.
type StatusQueryError struct {
	TaskID string
	Err    error
}

func (e *StatusQueryError) Error() string {
	return fmt.Sprintf("status query failed for task %q: %v", e.TaskID, e.Err)
}

func (e *StatusQueryError) Unwrap() error {
	return e.Err
}

// ResultFetchError indicates a result could not be retrieved for a task.
type ResultFetchError struct {
	TaskID string
	Err    error
}

func (e *ResultFetchError) Error() string {
	return fmt.Sprintf("result fetch failed for task %q: %v", e.TaskID, e.Err)
}

func (e *ResultFetchError) Unwrap() error {
	return e.Err
}

// WaiterTimeoutError indicates a task was still not terminal when the
// maximum wait elapsed. The remote task may still be running.
type WaiterTimeoutError struct {
	TaskID  string
	MaxWait time.Duration
}

func (e *WaiterTimeoutError) Error() string {
	return fmt.Sprintf("task %q did not complete within %s", e.TaskID, e.MaxWait)
}

// RemoteTaskFailedError indicates the remote service reported the task as
// FAILED. Detail carries the service's error verbatim.
type RemoteTaskFailedError struct {
	TaskID string
	Detail string
}

func (e *RemoteTaskFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("task %q failed", e.TaskID)
	}
	return fmt.Sprintf("task %q failed: %s", e.TaskID, e.Detail)
}

// ClassifyError maps an error to the ErrorInfo recorded on step results.
// Errors that match none of the known types classify as internal.
func ClassifyError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Kind: ErrorKindInternal, Message: err.Error()}

	var (
		duplicateID   *DuplicateOperationIDError
		unsupported   *UnsupportedOperationError
		missingParam  *MissingParameterError
		invalidParam  *InvalidParameterTypeError
		unknownRef    *UnknownReferenceError
		invalidPath   *InvalidFieldPathError
		submission    *SubmissionError
		statusQuery   *StatusQueryError
		resultFetch   *ResultFetchError
		waiterTimeout *WaiterTimeoutError
		remoteFailed  *RemoteTaskFailedError
	)
	switch {
	case errors.As(err, &duplicateID):
		info.Kind = ErrorKindDuplicateOperationID
	case errors.As(err, &unsupported):
		info.Kind = ErrorKindUnsupportedOperation
	case errors.As(err, &missingParam):
		info.Kind = ErrorKindMissingParameter
	case errors.As(err, &invalidParam):
		info.Kind = ErrorKindInvalidParameterType
	case errors.As(err, &unknownRef):
		info.Kind = ErrorKindUnknownReference
	case errors.As(err, &invalidPath):
		info.Kind = ErrorKindInvalidFieldPath
	case errors.As(err, &submission):
		info.Kind = ErrorKindSubmission
	case errors.As(err, &statusQuery):
		info.Kind = ErrorKindStatusQuery
	case errors.As(err, &resultFetch):
		info.Kind = ErrorKindResultFetch
	case errors.As(err, &waiterTimeout):
		info.Kind = ErrorKindWaiterTimeout
	case errors.As(err, &remoteFailed):
		info.Kind = ErrorKindRemoteTaskFailed
	}
	return info
}
