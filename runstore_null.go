package labflow

import "context"

// NullRunStore is a no-op implementation
type NullRunStore struct{}

func NewNullRunStore() *NullRunStore {
	return &NullRunStore{}
}

func (s *NullRunStore) SaveRun(ctx context.Context, record *RunRecord) error {
	return nil
}

func (s *NullRunStore) LoadRun(ctx context.Context, executionID string) (*RunRecord, error) {
	return nil, nil
}

func (s *NullRunStore) DeleteRun(ctx context.Context, executionID string) error {
	return nil
}
