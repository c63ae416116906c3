package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/ratelimit"
	"github.com/amishk599/boardsync/internal/retry"
)

const defaultJobsPikrBaseURL = "https://api.jobspikr.com/v2"

// Query is one named JobsPikr search.
type Query struct {
	Name        string
	Description string
	Size        int            // results per page
	MaxPages    int            // cursor pages to follow, at least 1
	Body        map[string]any // search body, e.g. search_query_json
}

// JobsPikrConfig holds the JobsPikr credentials and searches.
type JobsPikrConfig struct {
	BaseURL  string
	ClientID string
	AuthKey  string
	Queries  []Query
	Retry    retry.Policy
}

// jpResponse is the JobsPikr /data response.
type jpResponse struct {
	Status     string    `json:"status"` // success, no_data, error
	Message    string    `json:"message"`
	NextCursor flexValue `json:"next_cursor"`
	TotalCount int       `json:"total_count"`
	JobData    []jpJob   `json:"job_data"`
}

type jpJob struct {
	UniqID             flexValue `json:"uniq_id"`
	URL                string    `json:"url"`
	JobTitle           string    `json:"job_title"`
	CompanyName        string    `json:"company_name"`
	PostDate           string    `json:"post_date"`
	Category           string    `json:"category"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	Country            string    `json:"country"`
	InferredCity       string    `json:"inferred_city"`
	InferredState      string    `json:"inferred_state"`
	InferredCountry    string    `json:"inferred_country"`
	JobType            string    `json:"job_type"`
	JobDescription     string    `json:"job_description"`
	HTMLJobDescription string    `json:"html_job_description"`
	ApplyURL           string    `json:"apply_url"`
	ContactEmail       string    `json:"contact_email"`
	IsRemote           bool      `json:"is_remote"`
	HasExpired         bool      `json:"has_expired"`
	InferredSalaryFrom float64   `json:"inferred_salary_from"`
	InferredSalaryTo   float64   `json:"inferred_salary_to"`
	InferredSalaryCurr string    `json:"inferred_salary_currency"`
	InferredSalaryUnit string    `json:"inferred_salary_time_unit"`
}

// flexValue accepts a JSON string or number and keeps its text form.
// JobsPikr sends uniq_id and next_cursor as either.
type flexValue string

func (f *flexValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexValue(n.String())
	return nil
}

// JobsPikrAdapter fetches job records from the JobsPikr search API.
type JobsPikrAdapter struct {
	cfg    JobsPikrConfig
	client *http.Client
	pacer  ratelimit.Pacer
	logger *slog.Logger
}

// NewJobsPikrAdapter creates an adapter. pacer spaces consecutive requests.
func NewJobsPikrAdapter(cfg JobsPikrConfig, client *http.Client, pacer ratelimit.Pacer, logger *slog.Logger) *JobsPikrAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultJobsPikrBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &JobsPikrAdapter{cfg: cfg, client: client, pacer: pacer, logger: logger}
}

// FetchJobs runs every configured query and returns the union of results,
// deduplicated by uniq_id in query order. A failing query is logged and
// skipped; the call only fails when every query does.
func (a *JobsPikrAdapter) FetchJobs(ctx context.Context) ([]model.JobRecord, error) {
	var (
		jobs   []model.JobRecord
		seen   = make(map[string]bool)
		failed int
	)
	for _, q := range a.cfg.Queries {
		got, total, err := a.FetchQuery(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			failed++
			a.logger.Error("jobspikr query failed", "query", q.Name, "error", err)
			continue
		}
		added := 0
		for _, j := range got {
			if j.UniqID == "" || seen[j.UniqID] {
				continue
			}
			seen[j.UniqID] = true
			jobs = append(jobs, j)
			added++
		}
		a.logger.Info("jobspikr query done",
			"query", q.Name,
			"total_found", total,
			"returned", len(got),
			"new", added,
		)
	}
	if failed > 0 && failed == len(a.cfg.Queries) {
		return nil, fmt.Errorf("jobspikr: all %d queries failed", failed)
	}
	return jobs, nil
}

// FetchQuery runs one query, following next_cursor up to q.MaxPages.
// Returns the records and the total_count JobsPikr reported.
func (a *JobsPikrAdapter) FetchQuery(ctx context.Context, q Query) ([]model.JobRecord, int, error) {
	maxPages := max(q.MaxPages, 1)

	var (
		jobs   []model.JobRecord
		total  int
		cursor string
	)
	for page := 1; page <= maxPages; page++ {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, 0, err
		}
		resp, err := retry.Do(ctx, a.cfg.Retry, a.logger, "jobspikr "+q.Name, func(ctx context.Context) (*jpResponse, error) {
			return a.search(ctx, q, cursor)
		})
		if err != nil {
			return nil, 0, fmt.Errorf("jobspikr query %q page %d: %w", q.Name, page, err)
		}

		switch resp.Status {
		case "no_data":
			return jobs, total, nil
		case "error":
			return nil, 0, fmt.Errorf("jobspikr query %q: %s", q.Name, resp.Message)
		}

		total = resp.TotalCount
		for _, j := range resp.JobData {
			jobs = append(jobs, toRecord(j))
		}

		cursor = string(resp.NextCursor)
		if cursor == "" || cursor == "0" || len(resp.JobData) == 0 {
			break
		}
	}
	return jobs, total, nil
}

func (a *JobsPikrAdapter) search(ctx context.Context, q Query, cursor string) (*jpResponse, error) {
	body := make(map[string]any, len(q.Body)+3)
	for k, v := range q.Body {
		body[k] = v
	}
	body["format"] = "json"
	if q.Size > 0 {
		body["size"] = q.Size
	}
	if cursor != "" {
		if n, err := strconv.ParseInt(cursor, 10, 64); err == nil {
			body["cursor"] = n
		} else {
			body["cursor"] = cursor
		}
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/data", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client_id", a.cfg.ClientID)
	req.Header.Set("client_auth_key", a.cfg.AuthKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("jobspikr: %s", strings.TrimSpace(string(msg))),
		}
	}

	var out jpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// toRecord maps a JobsPikr document onto a JobRecord, filling empty
// location parts from the inferred_* fields.
func toRecord(j jpJob) model.JobRecord {
	rec := model.JobRecord{
		UniqID:          strings.TrimSpace(string(j.UniqID)),
		Title:           strings.TrimSpace(j.JobTitle),
		CompanyName:     strings.TrimSpace(j.CompanyName),
		City:            firstNonEmpty(j.City, j.InferredCity),
		State:           firstNonEmpty(j.State, j.InferredState),
		Country:         firstNonEmpty(j.Country, j.InferredCountry),
		JobType:         strings.TrimSpace(j.JobType),
		Category:        strings.TrimSpace(j.Category),
		PostDate:        j.PostDate,
		SourceURL:       j.URL,
		Description:     j.JobDescription,
		HTMLDescription: j.HTMLJobDescription,
		ApplyURL:        strings.TrimSpace(j.ApplyURL),
		ContactEmail:    strings.TrimSpace(j.ContactEmail),
		IsRemote:        j.IsRemote,
		HasExpired:      j.HasExpired,
	}
	if j.InferredSalaryFrom > 0 || j.InferredSalaryTo > 0 {
		rec.Salary = &model.Salary{
			Min:      j.InferredSalaryFrom,
			Max:      j.InferredSalaryTo,
			Currency: j.InferredSalaryCurr,
			TimeUnit: j.InferredSalaryUnit,
		}
	}
	return rec
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
