package model

import (
	"context"
	"strings"
	"time"
)

// JobRecord is a normalized job posting handed to the publishing pipeline.
// Produced by the source fetch step; treated as immutable afterwards.
type JobRecord struct {
	UniqID      string // unique per source document
	Title       string
	CompanyName string
	City        string
	State       string
	Country     string
	JobType     string // "Full Time", "Contract", ...
	Category    string
	PostDate    string
	SourceURL   string // posting URL on the originating board

	Description     string // plain text
	HTMLDescription string

	ApplyURL     string
	ContactEmail string

	IsRemote   bool
	HasExpired bool

	Salary *Salary // nil when the source inferred nothing
}

// Salary holds the source's inferred salary data.
type Salary struct {
	Min      float64
	Max      float64
	Currency string
	TimeUnit string // yearly, monthly, weekly, hourly, daily
}

// LocationLabel joins the non-empty location parts as "city, state, country".
func (j JobRecord) LocationLabel() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{j.City, j.State, j.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Posting is the board-side view of an already published job, as used for
// duplicate detection.
type Posting struct {
	ID          int
	Title       string
	CompanyName string
}

// ProcessingStats counts the outcome of one publishing batch.
// Every job lands in exactly one of Created, Skipped or Failed.
type ProcessingStats struct {
	Total   int
	Created int
	Skipped int
	Failed  int
}

// Valid reports whether the counters add up.
func (s ProcessingStats) Valid() bool {
	return s.Total == s.Created+s.Skipped+s.Failed
}

// RunSummary describes a finished pipeline run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      ProcessingStats
	Err        error // batch-fatal error, nil on success
}

// JobSource fetches a batch of job records (e.g. from JobsPikr).
type JobSource interface {
	FetchJobs(ctx context.Context) ([]JobRecord, error)
}

// JobFilter decides whether a fetched record should be published at all.
type JobFilter interface {
	Match(job JobRecord) bool
}

// PublishLedger remembers which source records were already published in
// earlier runs, and keeps a history of runs.
type PublishLedger interface {
	HasPublished(uniqID string) (bool, error)
	RecordPublished(rec PublishedJob) error
	RecordRun(summary RunSummary) error
}

// PublishedJob is one ledger entry.
type PublishedJob struct {
	UniqID     string
	BoardJobID int
	Title      string
	Company    string
	RunID      string
}

// Notifier reports the outcome of a run.
type Notifier interface {
	Notify(summary RunSummary) error
}
