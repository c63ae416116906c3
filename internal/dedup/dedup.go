package dedup

import (
	"strings"

	"github.com/amishk599/boardsync/internal/model"
)

// IsDuplicate reports whether some existing posting has the same title and
// company name as candidate, compared trimmed and case-insensitively.
func IsDuplicate(candidate model.JobRecord, existing []model.Posting) bool {
	for _, p := range existing {
		if sameField(p.Title, candidate.Title) && sameField(p.CompanyName, candidate.CompanyName) {
			return true
		}
	}
	return false
}

func sameField(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Detector holds the postings known to be on the board for one batch.
// Not safe for concurrent use.
type Detector struct {
	postings []model.Posting
}

// NewDetector starts from the postings fetched at batch start.
func NewDetector(existing []model.Posting) *Detector {
	return &Detector{postings: existing}
}

// IsDuplicate checks candidate against every known posting.
func (d *Detector) IsDuplicate(candidate model.JobRecord) bool {
	return IsDuplicate(candidate, d.postings)
}

// Add records a posting created during the batch.
func (d *Detector) Add(p model.Posting) {
	d.postings = append(d.postings, p)
}
