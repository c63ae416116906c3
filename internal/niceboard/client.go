package niceboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/retry"
)

// Config holds the connection settings for the board API.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64 // zero disables client-side limiting
	MaxExistingPages  int     // upper bound when listing existing jobs
	Retry             retry.Policy
}

// Client talks to the Niceboard REST API. Every request carries the API key
// as the "key" query parameter.
type Client struct {
	baseURL  string
	apiKey   string
	maxPages int
	policy   retry.Policy
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient creates a board client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	maxPages := cfg.MaxExistingPages
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		maxPages: maxPages,
		policy:   cfg.Retry,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// ListCompanies searches companies by name.
func (c *Client) ListCompanies(ctx context.Context, name string) ([]Entity, error) {
	res, err := get[companiesResult](ctx, c, "/companies", nameQuery(name))
	if err != nil {
		return nil, err
	}
	return res.Companies, nil
}

// CreateCompany creates a company and returns it.
func (c *Client) CreateCompany(ctx context.Context, name string) (Entity, error) {
	res, err := send[companyResult](ctx, c, http.MethodPost, "/companies", namePayload{Name: name})
	if err != nil {
		return Entity{}, err
	}
	return res.Company, nil
}

// DeleteCompany removes the company with the given ID.
func (c *Client) DeleteCompany(ctx context.Context, id int) error {
	_, err := send[json.RawMessage](ctx, c, http.MethodDelete, "/companies/"+strconv.Itoa(id), nil)
	return err
}

// ListLocations searches locations by name.
func (c *Client) ListLocations(ctx context.Context, name string) ([]Entity, error) {
	res, err := get[locationsResult](ctx, c, "/locations", nameQuery(name))
	if err != nil {
		return nil, err
	}
	return res.Locations, nil
}

// CreateLocation creates a location and returns it.
func (c *Client) CreateLocation(ctx context.Context, name string) (Entity, error) {
	res, err := send[locationResult](ctx, c, http.MethodPost, "/locations", namePayload{Name: name})
	if err != nil {
		return Entity{}, err
	}
	return res.Location, nil
}

// ListJobTypes returns every job type on the board.
func (c *Client) ListJobTypes(ctx context.Context) ([]Entity, error) {
	res, err := get[jobTypesResult](ctx, c, "/jobtypes", nil)
	if err != nil {
		return nil, err
	}
	return res.JobTypes, nil
}

// ListCategories returns every category on the board.
func (c *Client) ListCategories(ctx context.Context) ([]Entity, error) {
	res, err := get[categoriesResult](ctx, c, "/categories", nil)
	if err != nil {
		return nil, err
	}
	return res.Categories, nil
}

// CreateCategory creates a category and returns it.
func (c *Client) CreateCategory(ctx context.Context, name string) (Entity, error) {
	res, err := send[categoryResult](ctx, c, http.MethodPost, "/categories", namePayload{Name: name})
	if err != nil {
		return Entity{}, err
	}
	return res.Category, nil
}

// CreateJob publishes a job and returns its board ID.
func (c *Client) CreateJob(ctx context.Context, p JobPayload) (int, error) {
	res, err := send[jobResult](ctx, c, http.MethodPost, "/jobs", p)
	if err != nil {
		return 0, err
	}
	return res.Job.ID, nil
}

// ExistingPostings lists the jobs already on the board. Pages are followed
// until one comes back empty, total_count is reached, or the page cap hits.
func (c *Client) ExistingPostings(ctx context.Context) ([]model.Posting, error) {
	var postings []model.Posting
	for page := 1; page <= c.maxPages; page++ {
		res, err := get[jobsResult](ctx, c, "/jobs", url.Values{"page": {strconv.Itoa(page)}})
		if err != nil {
			return nil, fmt.Errorf("list jobs page %d: %w", page, err)
		}
		for _, j := range res.Jobs {
			postings = append(postings, model.Posting{
				ID:          j.ID,
				Title:       j.Title,
				CompanyName: j.Company.Name,
			})
		}
		if len(res.Jobs) == 0 || len(postings) >= res.TotalCount {
			break
		}
		if page == c.maxPages {
			c.logger.Warn("existing jobs truncated at page cap",
				"max_pages", c.maxPages,
				"fetched", len(postings),
				"total_count", res.TotalCount,
			)
		}
	}
	return postings, nil
}

func nameQuery(name string) url.Values {
	if name == "" {
		return nil
	}
	return url.Values{"name": {name}}
}

// get issues an idempotent GET, retried on any transient failure.
func get[T any](ctx context.Context, c *Client, path string, params url.Values) (T, error) {
	return retry.Do(ctx, c.policy, c.logger, "GET "+path, func(ctx context.Context) (T, error) {
		return do[T](ctx, c, http.MethodGet, path, params, nil)
	})
}

// send issues a mutating request. Only 429s are retried: the board rejected
// those before doing anything, so repeating cannot create a duplicate.
func send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	p := c.policy
	p.Retryable = retry.IsRateLimited
	return retry.Do(ctx, p, c.logger, method+" "+path, func(ctx context.Context) (T, error) {
		return do[T](ctx, c, method, path, nil, body)
	})
}

func do[T any](ctx context.Context, c *Client, method, path string, params url.Values, body any) (T, error) {
	var zero T

	if err := c.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("%s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("board request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s %s: %s", method, path, errorMessage(raw)),
		}
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if env.Error {
		return zero, &model.APIError{Endpoint: method + " " + path, Message: env.Message}
	}
	return env.Results, nil
}

// errorMessage extracts the board's message from an error body, falling back
// to the raw text.
func errorMessage(raw []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return "unexpected status"
	}
	return msg
}
