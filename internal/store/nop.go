package store

import "github.com/amishk599/boardsync/internal/model"

// NopStore is a no-op ledger used for dry runs. Nothing is ever recorded,
// so every job appears unpublished.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (NopStore) HasPublished(string) (bool, error)        { return false, nil }
func (NopStore) RecordPublished(model.PublishedJob) error { return nil }
func (NopStore) RecordRun(model.RunSummary) error         { return nil }
