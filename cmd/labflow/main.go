package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepnoodle-ai/labflow"
	"github.com/deepnoodle-ai/labflow/operations"
	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "labflow",
		Usage: "Execute declarative lab workflows against a remote task service",
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			runsCommand(),
			uploadCSVCommand(),
			fetchCSVCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL of the task service",
			Value:   "http://localhost:8000",
			Sources: cli.EnvVars("SDL2_API_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key sent as X-API-Key (optional)",
			Sources: cli.EnvVars("SDL2_API_KEY"),
		},
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
}

func newClient(command *cli.Command, logger *slog.Logger) (*labflow.HTTPTaskClient, error) {
	return labflow.NewHTTPTaskClient(labflow.HTTPTaskClientOptions{
		BaseURL: command.String("base-url"),
		APIKey:  command.String("api-key"),
		Logger:  logger,
	})
}

func runCommand() *cli.Command {
	flags := append(clientFlags(),
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Path to the workflow definition file (JSON or YAML)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "poll-interval",
			Usage:   "Seconds between task status queries",
			Value:   5,
			Sources: cli.EnvVars("TASK_POLL_INTERVAL_SECONDS"),
		},
		&cli.IntFlag{
			Name:    "max-wait",
			Usage:   "Maximum seconds to wait for each task",
			Value:   3600,
			Sources: cli.EnvVars("TASK_MAX_WAIT_SECONDS"),
		},
		&cli.IntFlag{
			Name:  "status-retries",
			Usage: "Extra attempts for recoverable status query failures",
			Value: 0,
		},
		&cli.StringFlag{
			Name:    "result-file",
			Usage:   "Path to write the workflow result JSON (empty to skip)",
			Value:   "result.json",
			Sources: cli.EnvVars("CANVAS_RESULT_FILE"),
		},
		&cli.StringFlag{
			Name:  "runs-dir",
			Usage: "Directory to persist run records (optional)",
		},
		&cli.StringFlag{
			Name:  "step-logs",
			Usage: "Directory to store per-step logs (optional)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Overall execution timeout (e.g. 30s, 5m)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the workflow result as JSON to stdout",
		},
		logLevelFlag(),
	)
	return &cli.Command{
		Name:   "run",
		Usage:  "Execute a workflow definition",
		Flags:  flags,
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	logger := labflow.NewLogger(parseLogLevel(command.String("log-level")))

	path := command.String("file")
	color.Blue("Loading workflow from: %s", path)
	wf, err := labflow.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}
	color.Cyan("Workflow: %s", wf.Name())
	if wf.Description() != "" {
		color.White("Description: %s", wf.Description())
	}

	client, err := newClient(command, logger)
	if err != nil {
		return err
	}
	registry, err := labflow.NewRegistry(operations.Builtin()...)
	if err != nil {
		return err
	}

	var runStore labflow.RunStore
	if dir := command.String("runs-dir"); dir != "" {
		runStore, err = labflow.NewFileRunStore(dir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		color.Blue("Run records: %s", dir)
	} else {
		runStore = labflow.NewNullRunStore()
	}

	var stepLogger labflow.StepLogger
	if dir := command.String("step-logs"); dir != "" {
		stepLogger = labflow.NewFileStepLogger(dir)
		color.Blue("Step logs: %s", dir)
	} else {
		stepLogger = labflow.NewNullStepLogger()
	}

	execution, err := labflow.NewExecution(labflow.ExecutionOptions{
		Workflow: wf,
		Client:   client,
		Registry: registry,
		Config: labflow.ExecutionConfig{
			PollInterval:  time.Duration(command.Int("poll-interval")) * time.Second,
			MaxWait:       time.Duration(command.Int("max-wait")) * time.Second,
			StatusRetries: int(command.Int("status-retries")),
		},
		Logger:     logger,
		RunStore:   runStore,
		StepLogger: stepLogger,
		Callbacks:  &progressPrinter{},
	})
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	if timeout := command.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
		color.Yellow("Timeout: %v", timeout)
	}

	color.Green("Starting execution (ID: %s)", execution.ID())
	startTime := time.Now()
	result, runErr := execution.Run(ctx)
	duration := time.Since(startTime)

	showResult(result, duration)

	if resultFile := command.String("result-file"); resultFile != "" {
		if err := labflow.WriteResultFile(resultFile, result); err != nil {
			return err
		}
		color.Blue("Result written to: %s", resultFile)
	}
	if command.Bool("json") {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
		fmt.Println(string(data))
	}

	if runErr != nil {
		return fmt.Errorf("workflow failed: %w", runErr)
	}
	return nil
}

// progressPrinter prints per-operation progress as the execution runs.
type progressPrinter struct {
	labflow.BaseExecutionCallbacks
}

func (p *progressPrinter) BeforeOperationExecution(ctx context.Context, event *labflow.OperationExecutionEvent) {
	color.Blue("Running %s (%s)...", event.OperationID, event.OperationType)
}

func (p *progressPrinter) AfterOperationExecution(ctx context.Context, event *labflow.OperationExecutionEvent) {
	switch event.Status {
	case labflow.StepStatusSucceeded:
		color.Green("Operation %s succeeded in %v (%d polls)",
			event.OperationID, event.Duration.Round(time.Millisecond), event.Polls)
	case labflow.StepStatusTimedOut:
		color.Yellow("Operation %s timed out after %v",
			event.OperationID, event.Duration.Round(time.Millisecond))
	default:
		color.Red("Operation %s failed: %v", event.OperationID, event.Error)
	}
}

func showResult(result *labflow.WorkflowResult, duration time.Duration) {
	fmt.Println()
	color.White("Execution completed in %v", duration.Round(time.Millisecond))
	color.White("Status: %s", result.FinalStatus)
	if result.FinalStatus == labflow.WorkflowStatusSucceeded {
		color.Green("Workflow successful!")
		return
	}
	if step := result.FailedStep(); step != nil && step.Error != nil {
		color.Red("Failed at %s (%s): %s", step.OperationID, step.Error.Kind, step.Error.Message)
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check a workflow definition without executing it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow definition file (JSON or YAML)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			wf, err := labflow.LoadFile(command.String("file"))
			if err != nil {
				return fmt.Errorf("failed to load workflow: %w", err)
			}
			registry, err := labflow.NewRegistry(operations.Builtin()...)
			if err != nil {
				return err
			}
			if err := labflow.ValidateWorkflow(wf, registry); err != nil {
				return fmt.Errorf("workflow is invalid: %w", err)
			}
			color.Green("Workflow %q is valid (%d operations)", wf.Name(), len(wf.Operations()))
			return nil
		},
	}
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List stored workflow runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "runs-dir",
				Usage: "Directory where run records are stored (defaults to ~/.labflow/runs)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			store, err := labflow.NewFileRunStore(command.String("runs-dir"))
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}
			summaries, err := store.ListRuns(ctx)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if len(summaries) == 0 {
				color.Blue("No stored runs")
				return nil
			}
			for _, summary := range summaries {
				line := fmt.Sprintf("%s  %-12s %-10s %d steps  %v",
					summary.StartTime.Format(time.RFC3339),
					summary.WorkflowName,
					summary.Status,
					summary.StepCount,
					summary.Duration.Round(time.Millisecond))
				switch summary.Status {
				case labflow.ExecutionStatusCompleted:
					color.Green("%s", line)
				case labflow.ExecutionStatusFailed:
					color.Red("%s  %s", line, summary.Error)
				default:
					color.White("%s", line)
				}
				color.White("  %s", summary.ExecutionID)
			}
			return nil
		},
	}
}

func uploadCSVCommand() *cli.Command {
	flags := append(clientFlags(),
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Path to the CSV file to upload",
			Required: true,
		},
		logLevelFlag(),
	)
	return &cli.Command{
		Name:  "upload-csv",
		Usage: "Upload a CSV file to the task service",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := labflow.NewLogger(parseLogLevel(command.String("log-level")))
			client, err := newClient(command, logger)
			if err != nil {
				return err
			}
			path := command.String("file")
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			csvID, err := client.UploadCSV(ctx, filepath.Base(path), f)
			if err != nil {
				return err
			}
			color.Green("Uploaded %s", path)
			fmt.Println(csvID)
			return nil
		},
	}
}

func fetchCSVCommand() *cli.Command {
	flags := append(clientFlags(),
		&cli.StringFlag{
			Name:     "id",
			Usage:    "CSV id to download",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Output path (defaults to <id>.csv)",
		},
		logLevelFlag(),
	)
	return &cli.Command{
		Name:  "fetch-csv",
		Usage: "Download a stored CSV from the task service",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := labflow.NewLogger(parseLogLevel(command.String("log-level")))
			client, err := newClient(command, logger)
			if err != nil {
				return err
			}
			csvID := command.String("id")
			csv, err := client.FetchCSV(ctx, csvID)
			if err != nil {
				return err
			}
			out := command.String("out")
			if out == "" {
				out = csvID + ".csv"
			}
			if err := os.WriteFile(out, []byte(csv.Content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			color.Green("CSV written to: %s", out)
			return nil
		},
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
