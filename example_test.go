package labflow_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/deepnoodle-ai/labflow"
	"github.com/deepnoodle-ai/labflow/operations"
	"github.com/stretchr/testify/require"
)

func TestWorkflowLibraryExample(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	wf, err := labflow.New(labflow.Options{
		Name:        "cv-analysis",
		Description: "Measure a voltammogram and find its current peaks",
		Operations: []*labflow.Operation{
			{
				ID:   "measure",
				Type: "uo_sdl2_cv",
				Params: map[string]any{
					"v_range": []any{-0.5, 0.5},
					"freq":    0.1,
				},
			},
			{
				ID:   "peaks",
				Type: "uo_sdl2_peak_detection",
				Params: map[string]any{
					"csv_id":     "$measure.output.id",
					"prominence": 0.05,
				},
			},
		},
	})
	require.NoError(t, err)

	// Stand-in for the task service: the measurement produces a csv trace
	// and the analysis finds one peak in it.
	client := &stubTaskClient{
		resultFunc: func(taskID string) (map[string]any, error) {
			if taskID == "task-1" {
				return map[string]any{"id": "csv-41"}, nil
			}
			return map[string]any{
				"peaks": []any{
					map[string]any{"voltage": 0.21, "current": 0.8},
				},
			}, nil
		},
	}
	registry, err := labflow.NewRegistry(operations.Builtin()...)
	require.NoError(t, err)

	execution, err := labflow.NewExecution(labflow.ExecutionOptions{
		Workflow: wf,
		Client:   client,
		Registry: registry,
		Config: labflow.ExecutionConfig{
			PollInterval: time.Second,
			MaxWait:      time.Minute,
		},
		Logger: logger,
		Clock:  newTestClock(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := execution.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, labflow.ExecutionStatusCompleted, execution.Status())
	require.Equal(t, labflow.WorkflowStatusSucceeded, result.FinalStatus)
	require.Len(t, result.Steps, 2)
	require.Equal(t, "csv-41", result.Steps[0].Output["id"])

	// The analysis step was submitted with the resolved csv id.
	require.Len(t, client.submissions, 2)
	require.Equal(t, "peak_detection", client.submissions[1].kind)
	require.Equal(t, "csv-41", client.submissions[1].request["csv_id"])
}
