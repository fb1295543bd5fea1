package labflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileRunStore is a file-based implementation that persists run records to
// disk, one directory per execution.
type FileRunStore struct {
	dataDir string
}

// NewFileRunStore creates a new file-based run store
func NewFileRunStore(dataDir string) (*FileRunStore, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".labflow", "runs")
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	return &FileRunStore{dataDir: dataDir}, nil
}

// SaveRun saves the run record to disk
func (s *FileRunStore) SaveRun(ctx context.Context, record *RunRecord) error {
	executionDir := filepath.Join(s.dataDir, record.ExecutionID)
	if err := os.MkdirAll(executionDir, 0755); err != nil {
		return fmt.Errorf("failed to create execution directory: %w", err)
	}

	// Save the record as JSON
	recordPath := filepath.Join(executionDir, fmt.Sprintf("record-%s.json", record.ID))
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := os.WriteFile(recordPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write run record file: %w", err)
	}

	// Update the latest record symlink
	latestPath := filepath.Join(executionDir, "latest.json")
	if err := s.updateLatestSymlink(recordPath, latestPath); err != nil {
		return fmt.Errorf("failed to update latest symlink: %w", err)
	}

	return nil
}

// LoadRun loads the latest run record for an execution
func (s *FileRunStore) LoadRun(ctx context.Context, executionID string) (*RunRecord, error) {
	latestPath := filepath.Join(s.dataDir, executionID, "latest.json")

	// Check if a latest record exists
	if _, err := os.Stat(latestPath); os.IsNotExist(err) {
		return nil, nil // No record found
	}

	// Read the record file
	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read run record file: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &record, nil
}

// DeleteRun removes all stored records for an execution
func (s *FileRunStore) DeleteRun(ctx context.Context, executionID string) error {
	executionDir := filepath.Join(s.dataDir, executionID)
	if err := os.RemoveAll(executionDir); err != nil {
		return fmt.Errorf("failed to delete execution directory: %w", err)
	}
	return nil
}

// ListRuns returns a list of all stored runs with their latest record info
func (s *FileRunStore) ListRuns(ctx context.Context) ([]*RunSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*RunSummary{}, nil // No runs directory yet
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var summaries []*RunSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		executionID := entry.Name()
		summary, err := s.getRunSummary(executionID)
		if err != nil {
			// Skip runs we can't read
			continue
		}
		if summary != nil {
			summaries = append(summaries, summary)
		}
	}

	// Sort by start time (newest first)
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})

	return summaries, nil
}

// getRunSummary reads the latest record and creates a summary
func (s *FileRunStore) getRunSummary(executionID string) (*RunSummary, error) {
	record, err := s.LoadRun(context.Background(), executionID)
	if err != nil || record == nil {
		return nil, err
	}

	return &RunSummary{
		ExecutionID:  record.ExecutionID,
		WorkflowName: record.WorkflowName,
		Status:       record.Status,
		StartTime:    record.StartTime,
		EndTime:      record.EndTime,
		Duration:     s.calculateDuration(record),
		StepCount:    len(record.Steps),
		Error:        record.Error,
	}, nil
}

// calculateDuration calculates the run duration
func (s *FileRunStore) calculateDuration(record *RunRecord) time.Duration {
	if !record.EndTime.IsZero() {
		return record.EndTime.Sub(record.StartTime)
	}
	// If still running, calculate duration from start to the latest snapshot
	return record.RecordedAt.Sub(record.StartTime)
}

// updateLatestSymlink updates the symlink to point to the latest record
func (s *FileRunStore) updateLatestSymlink(recordPath, latestPath string) error {
	// Remove existing symlink if it exists
	if _, err := os.Lstat(latestPath); err == nil {
		if err := os.Remove(latestPath); err != nil {
			return fmt.Errorf("failed to remove existing latest symlink: %w", err)
		}
	}

	// On Windows, copy the file instead of creating a symlink
	if strings.Contains(os.Getenv("OS"), "Windows") {
		data, err := os.ReadFile(recordPath)
		if err != nil {
			return fmt.Errorf("failed to read run record for copy: %w", err)
		}
		return os.WriteFile(latestPath, data, 0644)
	}

	// Create relative symlink
	rel, err := filepath.Rel(filepath.Dir(latestPath), recordPath)
	if err != nil {
		return fmt.Errorf("failed to create relative path: %w", err)
	}

	return os.Symlink(rel, latestPath)
}
