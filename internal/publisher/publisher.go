package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/boardsync/internal/dedup"
	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/niceboard"
	"github.com/amishk599/boardsync/internal/payload"
	"github.com/amishk599/boardsync/internal/ratelimit"
)

// Board is the slice of the board client the publisher needs.
type Board interface {
	ExistingPostings(ctx context.Context) ([]model.Posting, error)
	CreateJob(ctx context.Context, p niceboard.JobPayload) (int, error)
}

type nameResolver interface {
	Resolve(ctx context.Context, name string) int
}

type locationResolver interface {
	Resolve(ctx context.Context, city, state, country string) (int, bool, error)
}

// Resolvers maps free-text job fields to board IDs.
type Resolvers struct {
	Company  nameResolver
	Location locationResolver
	JobType  nameResolver
	Category nameResolver
}

// FetchErrorPolicy decides what happens when existing postings cannot be listed.
type FetchErrorPolicy string

const (
	FailOnFetchError  FetchErrorPolicy = "fail"  // abort the batch
	EmptyOnFetchError FetchErrorPolicy = "empty" // continue as if the board were empty
)

// Options tunes a Publisher.
type Options struct {
	OnFetchError FetchErrorPolicy
	DryRun       bool // build and log payloads without creating anything
}

// Publisher owns the batch pipeline for one board:
// existing postings → pace → ledger → dedup → resolve → build → create.
type Publisher struct {
	board     Board
	resolvers Resolvers
	builder   *payload.Builder
	ledger    model.PublishLedger
	pacer     ratelimit.Pacer
	opts      Options
	logger    *slog.Logger
}

// New creates a publisher wired with all its dependencies.
func New(
	board Board,
	resolvers Resolvers,
	builder *payload.Builder,
	ledger model.PublishLedger,
	pacer ratelimit.Pacer,
	opts Options,
	logger *slog.Logger,
) *Publisher {
	if opts.OnFetchError == "" {
		opts.OnFetchError = FailOnFetchError
	}
	return &Publisher{
		board:     board,
		resolvers: resolvers,
		builder:   builder,
		ledger:    ledger,
		pacer:     pacer,
		opts:      opts,
		logger:    logger,
	}
}

// ProcessJobs publishes jobs under a fresh run ID.
func (p *Publisher) ProcessJobs(ctx context.Context, jobs []model.JobRecord) (model.ProcessingStats, error) {
	return p.Run(ctx, uuid.NewString(), jobs)
}

// Run publishes jobs in order and counts each one as created, skipped or
// failed. A returned error means the batch itself could not proceed; per-job
// failures are only counted. If ctx is cancelled mid-batch, the stats cover
// the jobs handled so far.
func (p *Publisher) Run(ctx context.Context, runID string, jobs []model.JobRecord) (model.ProcessingStats, error) {
	logger := p.logger.With("run_id", runID)

	existing, err := p.board.ExistingPostings(ctx)
	if err != nil {
		if p.opts.OnFetchError != EmptyOnFetchError {
			return model.ProcessingStats{}, fmt.Errorf("fetching existing postings: %w", err)
		}
		logger.Warn("existing postings unavailable, continuing without duplicate check", "error", err)
		existing = nil
	}
	detector := dedup.NewDetector(existing)

	logger.Info("processing batch", "jobs", len(jobs), "existing", len(existing), "dry_run", p.opts.DryRun)

	var stats model.ProcessingStats
	for _, job := range jobs {
		if err := p.pacer.Wait(ctx); err != nil {
			logger.Warn("batch interrupted", "processed", stats.Total, "remaining", len(jobs)-stats.Total)
			return stats, err
		}
		stats.Total++

		switch p.processJob(ctx, logger, runID, detector, job) {
		case created:
			stats.Created++
		case skipped:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}

	logger.Info("batch complete",
		"total", stats.Total,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

type outcome int

const (
	failed outcome = iota
	created
	skipped
)

func (p *Publisher) processJob(ctx context.Context, logger *slog.Logger, runID string, detector *dedup.Detector, job model.JobRecord) outcome {
	logger = logger.With("uniq_id", job.UniqID, "title", job.Title, "company", job.CompanyName)

	done, err := p.ledger.HasPublished(job.UniqID)
	if err != nil {
		logger.Error("checking publish ledger", "error", err)
		return failed
	}
	if done {
		logger.Debug("skipping job published in an earlier run")
		return skipped
	}
	if detector.IsDuplicate(job) {
		logger.Info("skipping duplicate job")
		return skipped
	}

	ids, err := p.resolve(ctx, job)
	if err != nil {
		logger.Error("failed to process job", "error", err)
		return failed
	}

	body := p.builder.Build(job, ids)
	if p.opts.DryRun {
		logger.Info("dry run: would create job",
			"company_id", body.CompanyID,
			"location_id", body.LocationID,
			"jobtype_id", body.JobTypeID,
			"category_id", body.CategoryID,
			"apply_by_form", body.ApplyByForm,
		)
		detector.Add(model.Posting{Title: job.Title, CompanyName: job.CompanyName})
		return created
	}

	jobID, err := p.board.CreateJob(ctx, body)
	if err != nil {
		logger.Error("failed to process job", "error", err)
		return failed
	}
	detector.Add(model.Posting{ID: jobID, Title: job.Title, CompanyName: job.CompanyName})
	logger.Info("created job", "job_id", jobID)

	// The job is on the board; a ledger failure only risks a later duplicate
	// check by title and company.
	if err := p.ledger.RecordPublished(model.PublishedJob{
		UniqID:     job.UniqID,
		BoardJobID: jobID,
		Title:      job.Title,
		Company:    job.CompanyName,
		RunID:      runID,
	}); err != nil {
		logger.Error("recording published job", "error", err)
	}
	return created
}

// resolve looks up the four board IDs concurrently. Only location resolution
// can fail; the others fall back to their default IDs. A location failure
// does not cancel the other lookups.
func (p *Publisher) resolve(ctx context.Context, job model.JobRecord) (payload.IDs, error) {
	var ids payload.IDs
	var g errgroup.Group

	g.Go(func() error {
		ids.Company = p.resolvers.Company.Resolve(ctx, job.CompanyName)
		return nil
	})
	g.Go(func() error {
		id, ok, err := p.resolvers.Location.Resolve(ctx, job.City, job.State, job.Country)
		if err != nil {
			return err
		}
		if ok {
			ids.Location = id
		}
		return nil
	})
	g.Go(func() error {
		ids.JobType = p.resolvers.JobType.Resolve(ctx, job.JobType)
		return nil
	})
	g.Go(func() error {
		ids.Category = p.resolvers.Category.Resolve(ctx, job.Category)
		return nil
	})

	if err := g.Wait(); err != nil {
		return payload.IDs{}, err
	}
	return ids, nil
}
