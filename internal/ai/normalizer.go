package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/retry"
)

// Normalizer rewrites job titles and categories to the board's vocabulary.
// The result has the same length and order as the input.
type Normalizer interface {
	Normalize(ctx context.Context, jobs []model.JobRecord) ([]model.JobRecord, error)
}

// CategorySource supplies the board's category names for the prompt.
type CategorySource interface {
	Names(ctx context.Context) ([]string, error)
}

// LLMNormalizer implements Normalizer using an LLM, in chunks.
type LLMNormalizer struct {
	provider    LLMProvider
	tmpl        *template.Template
	categories  CategorySource // may be nil
	chunkSize   int
	concurrency int
	policy      retry.Policy
	logger      *slog.Logger
}

// NormalizerOptions tunes chunking and retries.
type NormalizerOptions struct {
	ChunkSize   int // records per LLM call, default 10
	Concurrency int // chunks in flight, default 2
	Retry       retry.Policy
}

// NewLLMNormalizer creates a normalizer backed by provider.
func NewLLMNormalizer(provider LLMProvider, tmpl *template.Template, categories CategorySource, opts NormalizerOptions, logger *slog.Logger) *LLMNormalizer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	return &LLMNormalizer{
		provider:    provider,
		tmpl:        tmpl,
		categories:  categories,
		chunkSize:   opts.ChunkSize,
		concurrency: opts.Concurrency,
		policy:      opts.Retry,
		logger:      logger,
	}
}

// promptJob is the subset of fields the LLM sees.
type promptJob struct {
	UniqID      string `json:"uniq_id"`
	Title       string `json:"job_title"`
	CompanyName string `json:"company_name"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Category    string `json:"category,omitempty"`
}

// standardizedRow is one element of the LLM's "jobs" array.
type standardizedRow struct {
	UniqID   string `json:"uniq_id"`
	Title    string `json:"job_title"`
	Category string `json:"category"`
}

// Normalize sends jobs to the LLM in chunks and merges the answers back by
// uniq_id. A failed chunk is logged and its records are returned unchanged.
// Only context cancellation is reported as an error.
func (n *LLMNormalizer) Normalize(ctx context.Context, jobs []model.JobRecord) ([]model.JobRecord, error) {
	out := make([]model.JobRecord, len(jobs))
	copy(out, jobs)
	if len(jobs) == 0 {
		return out, nil
	}

	var vocabulary []string
	if n.categories != nil {
		names, err := n.categories.Names(ctx)
		if err != nil {
			n.logger.Warn("category vocabulary unavailable, normalizing without it", "error", err)
		}
		vocabulary = names
	}

	totalChunks := (len(jobs) + n.chunkSize - 1) / n.chunkSize
	n.logger.Info("normalizing jobs", "jobs", len(jobs), "chunks", totalChunks)

	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for i := 0; i < len(jobs); i += n.chunkSize {
		lo, hi := i, min(i+n.chunkSize, len(jobs))
		chunkNo := i/n.chunkSize + 1
		g.Go(func() error {
			// Each goroutine owns out[lo:hi]; no locking needed.
			if err := n.normalizeChunk(ctx, out[lo:hi], vocabulary); err != nil {
				n.logger.Error("chunk normalization failed, keeping originals",
					"chunk", chunkNo,
					"chunks", totalChunks,
					"error", err,
				)
			}
			return nil
		})
	}
	// Chunk failures are logged above; no goroutine returns an error.
	g.Wait()

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}

// normalizeChunk rewrites chunk in place.
func (n *LLMNormalizer) normalizeChunk(ctx context.Context, chunk []model.JobRecord, vocabulary []string) error {
	input := make([]promptJob, 0, len(chunk))
	for _, j := range chunk {
		input = append(input, promptJob{
			UniqID:      j.UniqID,
			Title:       j.Title,
			CompanyName: j.CompanyName,
			City:        j.City,
			State:       j.State,
			Country:     j.Country,
			JobType:     j.JobType,
			Category:    j.Category,
		})
	}
	jobsJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}

	var promptBuf bytes.Buffer
	if err := n.tmpl.Execute(&promptBuf, struct {
		Categories []string
		Jobs       string
	}{
		Categories: vocabulary,
		Jobs:       string(jobsJSON),
	}); err != nil {
		return fmt.Errorf("render prompt: %w", err)
	}

	raw, err := retry.Do(ctx, n.policy, n.logger, "llm normalize", func(ctx context.Context) (string, error) {
		return n.provider.Complete(ctx, promptBuf.String())
	})
	if err != nil {
		return fmt.Errorf("llm complete: %w", err)
	}

	rows, err := parseRows(raw)
	if err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	merged := mergeByID(chunk, rows)
	if merged < len(chunk) {
		n.logger.Warn("llm response incomplete, unmatched jobs keep originals",
			"matched", merged,
			"chunk_size", len(chunk),
		)
	}
	return nil
}

func parseRows(raw string) ([]standardizedRow, error) {
	var resp struct {
		Jobs []standardizedRow `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal standardized jobs: %w", err)
	}
	return resp.Jobs, nil
}

// mergeByID applies rows onto chunk keyed by uniq_id, never by position.
// Unknown IDs are ignored; an ID answered more than once is ambiguous and
// left untouched. Empty fields keep the original value. Returns the number
// of records updated.
func mergeByID(chunk []model.JobRecord, rows []standardizedRow) int {
	byID := make(map[string]standardizedRow, len(rows))
	ambiguous := make(map[string]bool)
	for _, r := range rows {
		id := strings.TrimSpace(r.UniqID)
		if _, seen := byID[id]; seen {
			ambiguous[id] = true
			continue
		}
		byID[id] = r
	}

	merged := 0
	for i := range chunk {
		id := chunk[i].UniqID
		row, ok := byID[id]
		if !ok || ambiguous[id] || id == "" {
			continue
		}
		if t := strings.TrimSpace(row.Title); t != "" {
			chunk[i].Title = t
		}
		if c := strings.TrimSpace(row.Category); c != "" {
			chunk[i].Category = c
		}
		merged++
	}
	return merged
}
