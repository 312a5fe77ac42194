package store

import (
	"context"

	"github.com/amishk599/gigradar/internal/model"
)

// NopStore is a no-op store used in dry-run mode. Nothing is persisted, so
// every job appears new on each run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Exists(context.Context, string) (bool, error) { return false, nil }
func (s *NopStore) Upsert(context.Context, model.Job, model.Classification) (bool, error) {
	return true, nil
}
func (s *NopStore) MarkNotified(context.Context, string) error     { return nil }
func (s *NopStore) RecordRun(context.Context, model.RunStats) error { return nil }
