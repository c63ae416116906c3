package ai

import (
	"context"

	"github.com/amishk599/boardsync/internal/model"
)

// NopNormalizer is used when ai.enabled is false.
// It returns the jobs unchanged with no LLM calls.
type NopNormalizer struct{}

// NewNopNormalizer returns a NopNormalizer.
func NewNopNormalizer() *NopNormalizer {
	return &NopNormalizer{}
}

// Normalize returns jobs unchanged.
func (NopNormalizer) Normalize(_ context.Context, jobs []model.JobRecord) ([]model.JobRecord, error) {
	return jobs, nil
}
