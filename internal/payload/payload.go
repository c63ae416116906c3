package payload

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/niceboard"
)

// IDs are the resolved board IDs for one job. Location is zero when the job
// has no location.
type IDs struct {
	Company  int
	JobType  int
	Location int
	Category int
}

// Builder turns a job record plus resolved IDs into a board payload.
type Builder struct {
	sanitize bool
}

// NewBuilder creates a builder. When sanitize is set, descriptions are
// reduced to a small allow-list of structural tags.
func NewBuilder(sanitize bool) *Builder {
	return &Builder{sanitize: sanitize}
}

// Build never fails: a job without a usable URL or email is applied to
// through the board's own form.
func (b *Builder) Build(job model.JobRecord, ids IDs) niceboard.JobPayload {
	p := niceboard.JobPayload{
		CompanyID:       ids.Company,
		JobTypeID:       ids.JobType,
		LocationID:      ids.Location,
		CategoryID:      ids.Category,
		Title:           strings.TrimSpace(job.Title),
		DescriptionHTML: b.Description(job),
		IsPublished:     true,
		RemoteOnly:      job.IsRemote,
	}

	switch {
	case validURL(job.ApplyURL):
		p.ApplyURL = strings.TrimSpace(job.ApplyURL)
	case validEmail(job.ContactEmail):
		p.ApplyEmail = strings.TrimSpace(job.ContactEmail)
	default:
		p.ApplyByForm = true
	}

	if s := job.Salary; s != nil && (s.Min > 0 || s.Max > 0) {
		if s.Min > 0 {
			p.SalaryMin = s.Min
		}
		if s.Max > 0 {
			p.SalaryMax = s.Max
		}
		p.SalaryCurrency = strings.ToUpper(strings.TrimSpace(s.Currency))
		p.SalaryTimeframe = Timeframe(s.TimeUnit)
	}
	return p
}

// validURL accepts absolute http(s) URLs with a host.
func validURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(raw string) bool {
	return emailPattern.MatchString(strings.TrimSpace(raw))
}

// Timeframe maps a source salary unit onto the board's vocabulary. Daily
// pay is reported as weekly. Unknown units map to "".
func Timeframe(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "yearly", "annually", "annual":
		return "annually"
	case "monthly":
		return "monthly"
	case "weekly", "daily":
		return "weekly"
	case "hourly":
		return "hourly"
	default:
		return ""
	}
}
