// Package pipeline runs one end-to-end sync:
// fetch → filter → normalize → publish → notify → record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/boardsync/internal/ai"
	"github.com/amishk599/boardsync/internal/filter"
	"github.com/amishk599/boardsync/internal/model"
)

// Publisher publishes a batch under a caller-chosen run ID.
type Publisher interface {
	Run(ctx context.Context, runID string, jobs []model.JobRecord) (model.ProcessingStats, error)
}

// Pipeline wires the stages of a run together.
type Pipeline struct {
	source     model.JobSource
	filter     model.JobFilter
	normalizer ai.Normalizer
	publisher  Publisher
	ledger     model.PublishLedger
	notifier   model.Notifier
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a pipeline wired with all its dependencies.
func New(
	source model.JobSource,
	f model.JobFilter,
	normalizer ai.Normalizer,
	publisher Publisher,
	ledger model.PublishLedger,
	notifier model.Notifier,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		source:     source,
		filter:     f,
		normalizer: normalizer,
		publisher:  publisher,
		ledger:     ledger,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger,
	}
}

// Run executes one sync. The summary is always recorded and sent, even when
// the run fails; notification and ledger errors are logged, not returned.
func (p *Pipeline) Run(ctx context.Context) (model.RunSummary, error) {
	sum := model.RunSummary{RunID: uuid.NewString(), StartedAt: p.now()}
	logger := p.logger.With("run_id", sum.RunID)
	logger.Info("run started")

	sum.Stats, sum.Err = p.run(ctx, logger, sum.RunID)
	sum.FinishedAt = p.now()

	if err := p.ledger.RecordRun(sum); err != nil {
		logger.Error("recording run", "error", err)
	}
	if err := p.notifier.Notify(sum); err != nil {
		logger.Error("sending run notification", "error", err)
	}
	return sum, sum.Err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, runID string) (model.ProcessingStats, error) {
	jobs, err := p.source.FetchJobs(ctx)
	if err != nil {
		return model.ProcessingStats{}, fmt.Errorf("fetching jobs: %w", err)
	}

	matched := filter.Apply(p.filter, jobs)
	logger.Info("fetched jobs", "fetched", len(jobs), "matched", len(matched))
	if len(matched) == 0 {
		return model.ProcessingStats{}, nil
	}

	normalized, err := p.normalizer.Normalize(ctx, matched)
	if err != nil {
		return model.ProcessingStats{}, fmt.Errorf("normalizing jobs: %w", err)
	}

	stats, err := p.publisher.Run(ctx, runID, normalized)
	if err != nil {
		return stats, fmt.Errorf("publishing jobs: %w", err)
	}
	return stats, nil
}
