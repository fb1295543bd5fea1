package labflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "duplicate operation id",
			err:     &DuplicateOperationIDError{OperationID: "measure"},
			message: `duplicate operation id "measure"`,
		},
		{
			name:    "unsupported operation",
			err:     &UnsupportedOperationError{OperationID: "measure", Type: "uo_sdl2_xrd"},
			message: `operation "measure": type "uo_sdl2_xrd" not registered`,
		},
		{
			name:    "missing parameter",
			err:     &MissingParameterError{OperationID: "smooth", Parameter: "csv_id"},
			message: `operation "smooth": missing required parameter "csv_id"`,
		},
		{
			name:    "invalid parameter type",
			err:     &InvalidParameterTypeError{OperationID: "smooth", Parameter: "window_size", Expected: "an integer"},
			message: `operation "smooth": parameter "window_size" must be an integer`,
		},
		{
			name:    "unknown reference",
			err:     &UnknownReferenceError{Reference: "$a.output.id", TargetID: "a"},
			message: `reference "$a.output.id": operation "a" not found or not executed yet`,
		},
		{
			name:    "invalid field path",
			err:     &InvalidFieldPathError{Reference: "$a.output.id", TargetID: "a", Segment: "id"},
			message: `reference "$a.output.id": segment "id" not found in output of operation "a"`,
		},
		{
			name:    "submission",
			err:     &SubmissionError{Kind: "cv", Err: errors.New("connection refused")},
			message: `task submission failed for kind "cv": connection refused`,
		},
		{
			name:    "status query",
			err:     &StatusQueryError{TaskID: "task-1", Err: errors.New("unexpected status 500 Internal Server Error")},
			message: `status query failed for task "task-1": unexpected status 500 Internal Server Error`,
		},
		{
			name:    "result fetch",
			err:     &ResultFetchError{TaskID: "task-1", Err: errors.New("unexpected status 404 Not Found")},
			message: `result fetch failed for task "task-1": unexpected status 404 Not Found`,
		},
		{
			name:    "waiter timeout",
			err:     &WaiterTimeoutError{TaskID: "task-1", MaxWait: 2 * time.Second},
			message: `task "task-1" did not complete within 2s`,
		},
		{
			name:    "remote task failed",
			err:     &RemoteTaskFailedError{TaskID: "task-1", Detail: "electrode fault"},
			message: `task "task-1" failed: electrode fault`,
		},
		{
			name:    "remote task failed without detail",
			err:     &RemoteTaskFailedError{TaskID: "task-1"},
			message: `task "task-1" failed`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Run("nil classifies to nil", func(t *testing.T) {
		require.Nil(t, ClassifyError(nil))
	})

	t.Run("known kinds", func(t *testing.T) {
		tests := []struct {
			err  error
			kind string
		}{
			{&DuplicateOperationIDError{OperationID: "a"}, ErrorKindDuplicateOperationID},
			{&UnsupportedOperationError{OperationID: "a", Type: "t"}, ErrorKindUnsupportedOperation},
			{&MissingParameterError{OperationID: "a", Parameter: "p"}, ErrorKindMissingParameter},
			{&InvalidParameterTypeError{OperationID: "a", Parameter: "p", Expected: "a number"}, ErrorKindInvalidParameterType},
			{&UnknownReferenceError{Reference: "$a.output.id", TargetID: "a"}, ErrorKindUnknownReference},
			{&InvalidFieldPathError{Reference: "$a.output.id", TargetID: "a", Segment: "id"}, ErrorKindInvalidFieldPath},
			{&SubmissionError{Kind: "cv", Err: errors.New("boom")}, ErrorKindSubmission},
			{&StatusQueryError{TaskID: "t", Err: errors.New("boom")}, ErrorKindStatusQuery},
			{&ResultFetchError{TaskID: "t", Err: errors.New("boom")}, ErrorKindResultFetch},
			{&WaiterTimeoutError{TaskID: "t", MaxWait: time.Second}, ErrorKindWaiterTimeout},
			{&RemoteTaskFailedError{TaskID: "t", Detail: "boom"}, ErrorKindRemoteTaskFailed},
		}
		for _, tt := range tests {
			info := ClassifyError(tt.err)
			require.NotNil(t, info)
			require.Equal(t, tt.kind, info.Kind, tt.kind)
			require.Equal(t, tt.err.Error(), info.Message)
		}
	})

	t.Run("wrapped errors classify through", func(t *testing.T) {
		err := fmt.Errorf("step failed: %w", &WaiterTimeoutError{TaskID: "t", MaxWait: time.Second})
		info := ClassifyError(err)
		require.Equal(t, ErrorKindWaiterTimeout, info.Kind)
		require.Contains(t, info.Message, "step failed")
	})

	t.Run("unknown errors classify as internal", func(t *testing.T) {
		info := ClassifyError(errors.New("something odd"))
		require.Equal(t, ErrorKindInternal, info.Kind)
		require.Equal(t, "something odd", info.Message)
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	require.ErrorIs(t, &SubmissionError{Kind: "cv", Err: cause}, cause)
	require.ErrorIs(t, &StatusQueryError{TaskID: "t", Err: cause}, cause)
	require.ErrorIs(t, &ResultFetchError{TaskID: "t", Err: cause}, cause)
}
