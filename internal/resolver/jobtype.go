package resolver

import (
	"context"
	"log/slog"

	"github.com/amishk599/boardsync/internal/cache"
	"github.com/amishk599/boardsync/internal/niceboard"
)

// JobTypeAPI is the slice of the board client the job-type resolver needs.
type JobTypeAPI interface {
	ListJobTypes(ctx context.Context) ([]niceboard.Entity, error)
}

// JobTypeResolver maps job-type labels onto the board's fixed set.
type JobTypeResolver struct {
	listing   listing
	cache     *cache.Cache
	defaultID int
	logger    *slog.Logger
}

// NewJobTypeResolver creates a job-type resolver falling back to defaultID.
func NewJobTypeResolver(api JobTypeAPI, defaultID int, logger *slog.Logger) *JobTypeResolver {
	return &JobTypeResolver{
		listing:   listing{fetch: api.ListJobTypes},
		cache:     cache.New(),
		defaultID: defaultID,
		logger:    logger,
	}
}

// Resolve returns the ID of the job type named label. Unknown labels and
// board errors yield the default job type; nothing is ever created.
func (r *JobTypeResolver) Resolve(ctx context.Context, label string) int {
	key := cache.Key(label)
	if key == "" {
		return r.defaultID
	}
	if id, ok := r.cache.Get(key); ok {
		return id
	}

	types, err := r.listing.get(ctx)
	if err != nil {
		r.logger.Error("job type listing failed, using default",
			"job_type", label,
			"default_id", r.defaultID,
			"error", err,
		)
		return r.defaultID
	}
	jt, ok := findExact(types, label)
	if !ok {
		r.logger.Info("job type not on board, using default",
			"job_type", label,
			"default_id", r.defaultID,
		)
		return r.defaultID
	}
	r.cache.Set(key, jt.ID)
	return jt.ID
}
