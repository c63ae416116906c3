package filter

import (
	"strings"

	"github.com/amishk599/boardsync/internal/model"
)

// Ensure RecordFilter implements model.JobFilter.
var _ model.JobFilter = (*RecordFilter)(nil)

// Options configures a RecordFilter. Empty keyword lists are treated as
// "match all".
type Options struct {
	TitleKeywords   []string // title must contain one of these
	ExcludeKeywords []string // title must contain none of these
	Locations       []string // location label must contain one of these
	SkipExpired     bool
}

// RecordFilter drops fetched records that should never reach the board.
// Matching is case-insensitive substring matching.
type RecordFilter struct {
	include   []string
	exclude   []string
	locations []string
	expired   bool
}

// New returns a filter built from opts.
func New(opts Options) *RecordFilter {
	return &RecordFilter{
		include:   lower(opts.TitleKeywords),
		exclude:   lower(opts.ExcludeKeywords),
		locations: lower(opts.Locations),
		expired:   opts.SkipExpired,
	}
}

// Match returns true if the job passes every configured rule.
func (f *RecordFilter) Match(job model.JobRecord) bool {
	if f.expired && job.HasExpired {
		return false
	}

	title := strings.ToLower(job.Title)
	if len(f.include) > 0 && !containsAny(title, f.include) {
		return false
	}
	if containsAny(title, f.exclude) {
		return false
	}

	if len(f.locations) > 0 {
		// Remote jobs have no meaningful location to match against.
		if !job.IsRemote && !containsAny(strings.ToLower(job.LocationLabel()), f.locations) {
			return false
		}
	}

	return true
}

// Apply returns the jobs that match, preserving order.
func Apply(f model.JobFilter, jobs []model.JobRecord) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
