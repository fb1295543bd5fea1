package labflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// TaskStatus is the lifecycle state a remote task reports.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"
	TaskStatusFailed    TaskStatus = "FAILED"
)

// Terminal reports whether the task can make no further progress.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// TaskState is the answer to one status query.
type TaskState struct {
	Status TaskStatus
	Error  string // remote error detail, set when Status is FAILED
}

// TaskClient is the boundary to the remote task-execution service. All
// methods are synchronous and safe for concurrent use.
type TaskClient interface {
	// Submit creates a task of the given kind and returns its id.
	Submit(ctx context.Context, kind string, request map[string]any) (string, error)

	// GetStatus returns the current state of a task. Implementations never
	// retry internally; retry policy belongs to the caller.
	GetStatus(ctx context.Context, taskID string) (*TaskState, error)

	// FetchResult returns a task's result payload. Only valid once the task
	// has SUCCEEDED.
	FetchResult(ctx context.Context, taskID string) (map[string]any, error)
}

// StatusQuerier is the subset of TaskClient that polling needs.
type StatusQuerier interface {
	GetStatus(ctx context.Context, taskID string) (*TaskState, error)
}

// CSVData is a CSV payload stored on the task service.
type CSVData struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ExtractCSVID reads the csv id out of a task result payload. Measurement
// tasks record the id of the trace they produced under "id".
func ExtractCSVID(result map[string]any) (string, bool) {
	id, ok := result["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// HTTPTaskClientOptions are used to configure an HTTPTaskClient.
type HTTPTaskClientOptions struct {
	// BaseURL of the task service, e.g. "http://localhost:8000". Required.
	BaseURL string

	// APIKey is sent as the X-API-Key header when set.
	APIKey string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Logger for request-level logging.
	Logger *slog.Logger
}

// HTTPTaskClient talks to the task service over HTTP with JSON bodies.
type HTTPTaskClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPTaskClient returns a client configured with the given options.
func NewHTTPTaskClient(opts HTTPTaskClientOptions) (*HTTPTaskClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HTTPTaskClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}, nil
}

type submitResponse struct {
	TaskID string `json:"taskId"`
}

type taskResponse struct {
	Status string         `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Submit posts a request body to /tasks/{kind}/ and returns the new task id.
func (c *HTTPTaskClient) Submit(ctx context.Context, kind string, request map[string]any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", &SubmissionError{Kind: kind, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}
	url := fmt.Sprintf("%s/tasks/%s/", c.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &SubmissionError{Kind: kind, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	c.logger.Debug("submitting task", "kind", kind, "url", url)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &SubmissionError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmissionError{Kind: kind, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &SubmissionError{Kind: kind, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if parsed.TaskID == "" {
		return "", &SubmissionError{Kind: kind, Err: fmt.Errorf("response missing taskId")}
	}
	c.logger.Debug("task submitted", "kind", kind, "task_id", parsed.TaskID)
	return parsed.TaskID, nil
}

// GetStatus queries /task/{id} and returns the task's current state. A
// status string outside the known lifecycle is a query failure.
func (c *HTTPTaskClient) GetStatus(ctx context.Context, taskID string) (*TaskState, error) {
	task, err := c.getTask(ctx, taskID)
	if err != nil {
		return nil, &StatusQueryError{TaskID: taskID, Err: err}
	}
	status := TaskStatus(task.Status)
	switch status {
	case TaskStatusPending, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed:
	default:
		return nil, &StatusQueryError{TaskID: taskID, Err: fmt.Errorf("unknown task status %q", task.Status)}
	}
	return &TaskState{Status: status, Error: task.Error}, nil
}

// FetchResult queries /task/{id} and returns the result payload of a
// SUCCEEDED task.
func (c *HTTPTaskClient) FetchResult(ctx context.Context, taskID string) (map[string]any, error) {
	task, err := c.getTask(ctx, taskID)
	if err != nil {
		return nil, &ResultFetchError{TaskID: taskID, Err: err}
	}
	if TaskStatus(task.Status) != TaskStatusSucceeded {
		return nil, &ResultFetchError{
			TaskID: taskID,
			Err:    fmt.Errorf("task status is %q, not %q", task.Status, TaskStatusSucceeded),
		}
	}
	return task.Result, nil
}

func (c *HTTPTaskClient) getTask(ctx context.Context, taskID string) (*taskResponse, error) {
	url := fmt.Sprintf("%s/task/%s", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var parsed taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &parsed, nil
}

// FetchCSV downloads a stored CSV payload from /csv/{id}.
func (c *HTTPTaskClient) FetchCSV(ctx context.Context, csvID string) (*CSVData, error) {
	url := fmt.Sprintf("%s/csv/%s", c.baseURL, csvID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch csv %q: %w", csvID, err)
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch csv %q: %w", csvID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch csv %q: unexpected status %s", csvID, resp.Status)
	}
	var parsed CSVData
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to fetch csv %q: %w", csvID, err)
	}
	return &parsed, nil
}

// UploadCSV posts a CSV file to /upload/ as multipart form data and returns
// the id assigned by the service.
func (c *HTTPTaskClient) UploadCSV(ctx context.Context, filename string, data io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to upload csv: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", fmt.Errorf("failed to upload csv: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to upload csv: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to upload csv: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload csv: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to upload csv: unexpected status %s", resp.Status)
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to upload csv: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("failed to upload csv: response missing id")
	}
	c.logger.Debug("csv uploaded", "filename", filename, "csv_id", parsed.ID)
	return parsed.ID, nil
}

func (c *HTTPTaskClient) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
