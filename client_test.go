package labflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHTTPTaskClientSubmit(t *testing.T) {
	taskID := uuid.New().String()
	var gotPath, gotContentType, gotAPIKey string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAPIKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"taskId": %q}`, taskID)
	}))
	defer server.Close()

	client, err := NewHTTPTaskClient(HTTPTaskClientOptions{
		BaseURL: server.URL + "/", // trailing slash is trimmed
		APIKey:  "secret-key",
	})
	require.NoError(t, err)

	id, err := client.Submit(context.Background(), "cv", map[string]any{
		"v_range": []float64{-0.5, 0.5},
		"freq":    0.1,
	})
	require.NoError(t, err)
	require.Equal(t, taskID, id)
	require.Equal(t, "/tasks/cv/", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "secret-key", gotAPIKey)
	require.Equal(t, map[string]any{
		"v_range": []any{-0.5, 0.5},
		"freq":    0.1,
	}, gotBody)
}

func TestHTTPTaskClientSubmitErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Submit(context.Background(), "cv", map[string]any{})
		require.Error(t, err)

		var submitErr *SubmissionError
		require.ErrorAs(t, err, &submitErr)
		require.Equal(t, "cv", submitErr.Kind)
		require.Contains(t, err.Error(), "500")
	})

	t.Run("missing task id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Submit(context.Background(), "cv", map[string]any{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing taskId")
	})

	t.Run("unreachable server", func(t *testing.T) {
		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		_, err = client.Submit(context.Background(), "cv", map[string]any{})
		require.Error(t, err)

		var submitErr *SubmissionError
		require.ErrorAs(t, err, &submitErr)
	})
}

func TestHTTPTaskClientGetStatus(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/task/task-1", r.URL.Path)
			fmt.Fprint(w, `{"status": "RUNNING"}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		state, err := client.GetStatus(context.Background(), "task-1")
		require.NoError(t, err)
		require.Equal(t, TaskStatusRunning, state.Status)
		require.Empty(t, state.Error)
		require.False(t, state.Status.Terminal())
	})

	t.Run("failed with detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "FAILED", "error": "electrode fault"}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		state, err := client.GetStatus(context.Background(), "task-1")
		require.NoError(t, err)
		require.Equal(t, TaskStatusFailed, state.Status)
		require.Equal(t, "electrode fault", state.Error)
		require.True(t, state.Status.Terminal())
	})

	t.Run("unknown status string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "EXPLODED"}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.GetStatus(context.Background(), "task-1")
		require.Error(t, err)

		var statusErr *StatusQueryError
		require.ErrorAs(t, err, &statusErr)
		require.Contains(t, err.Error(), `unknown task status "EXPLODED"`)
	})

	t.Run("http failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.GetStatus(context.Background(), "task-1")
		require.Error(t, err)

		var statusErr *StatusQueryError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, "task-1", statusErr.TaskID)
	})
}

func TestHTTPTaskClientFetchResult(t *testing.T) {
	t.Run("succeeded task returns result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "SUCCEEDED", "result": {"id": "csv-1", "points": 1200}}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		result, err := client.FetchResult(context.Background(), "task-1")
		require.NoError(t, err)
		require.Equal(t, "csv-1", result["id"])
	})

	t.Run("non-terminal task is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "RUNNING"}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.FetchResult(context.Background(), "task-1")
		require.Error(t, err)

		var fetchErr *ResultFetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Contains(t, err.Error(), `task status is "RUNNING"`)
	})

	t.Run("http failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.FetchResult(context.Background(), "task-1")
		require.Error(t, err)

		var fetchErr *ResultFetchError
		require.ErrorAs(t, err, &fetchErr)
	})
}

func TestHTTPTaskClientCSV(t *testing.T) {
	t.Run("fetch csv", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/csv/csv-1", r.URL.Path)
			fmt.Fprint(w, `{"id": "csv-1", "content": "voltage,current\n0.0,0.001\n"}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		csv, err := client.FetchCSV(context.Background(), "csv-1")
		require.NoError(t, err)
		require.Equal(t, "csv-1", csv.ID)
		require.Contains(t, csv.Content, "voltage,current")
	})

	t.Run("upload csv", func(t *testing.T) {
		csvID := uuid.New().String()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/upload/", r.URL.Path)

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			require.Equal(t, "trace.csv", header.Filename)

			content, err := io.ReadAll(file)
			require.NoError(t, err)
			require.Equal(t, "voltage,current\n0.0,0.001\n", string(content))

			fmt.Fprintf(w, `{"id": %q}`, csvID)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		id, err := client.UploadCSV(context.Background(), "trace.csv",
			strings.NewReader("voltage,current\n0.0,0.001\n"))
		require.NoError(t, err)
		require.Equal(t, csvID, id)
	})

	t.Run("upload without id in response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		client, err := NewHTTPTaskClient(HTTPTaskClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.UploadCSV(context.Background(), "trace.csv", strings.NewReader("a,b\n"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing id")
	})
}

func TestExtractCSVID(t *testing.T) {
	id, ok := ExtractCSVID(map[string]any{"id": "csv-1"})
	require.True(t, ok)
	require.Equal(t, "csv-1", id)

	_, ok = ExtractCSVID(map[string]any{"id": 7})
	require.False(t, ok)

	_, ok = ExtractCSVID(map[string]any{})
	require.False(t, ok)

	_, ok = ExtractCSVID(nil)
	require.False(t, ok)
}

func TestNewHTTPTaskClientValidation(t *testing.T) {
	_, err := NewHTTPTaskClient(HTTPTaskClientOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "base url is required")
}
