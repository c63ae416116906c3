package niceboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(srv *httptest.Server, maxPages int) *Client {
	return NewClient(Config{
		BaseURL:          srv.URL,
		APIKey:           "secret",
		MaxExistingPages: maxPages,
		Retry:            retry.Policy{MaxRetries: 2, BaseDelay: time.Millisecond},
	}, srv.Client(), discardLogger())
}

func TestListCompanies_SendsKeyAndName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/companies" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q, want secret", got)
		}
		if got := r.URL.Query().Get("name"); got != "Acme" {
			t.Errorf("name = %q, want Acme", got)
		}
		w.Write([]byte(`{"error":false,"results":{"total_count":1,"companies":[{"id":7,"name":"Acme"}]}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv, 1).ListCompanies(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 7 || got[0].Name != "Acme" {
		t.Errorf("unexpected companies: %+v", got)
	}
}

func TestCreateCompany_PostsName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["name"] != "Acme" {
			t.Errorf("name = %q, want Acme", body["name"])
		}
		w.Write([]byte(`{"error":false,"results":{"company":{"id":99,"name":"Acme"}}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv, 1).CreateCompany(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 99 {
		t.Errorf("ID = %d, want 99", got.ID)
	}
}

func TestEnvelopeError_ReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"message":"invalid key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 1).ListJobTypes(context.Background())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "invalid key" {
		t.Errorf("message = %q, want invalid key", apiErr.Message)
	}
}

func TestGet_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"error":false,"results":{"categories":[{"id":1,"name":"Nursing"}]}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv, 1).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestCreateJob_NotRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":true,"message":"boom"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 1).CreateJob(context.Background(), JobPayload{Title: "Nurse"})
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call (POST not retried on 5xx), got %d", calls.Load())
	}
}

func TestCreateJob_RetriedOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"error":false,"results":{"job":{"id":555}}}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv, 1).CreateJob(context.Background(), JobPayload{Title: "Nurse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 555 {
		t.Errorf("id = %d, want 555", id)
	}
}

func TestDeleteCompany_UsesIDPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/companies/42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"error":false,"results":{}}`))
	}))
	defer srv.Close()

	if err := newTestClient(srv, 1).DeleteCompany(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func jobsPage(total int, ids ...int) string {
	type job struct {
		ID      int    `json:"id"`
		Title   string `json:"title"`
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
	}
	jobs := make([]job, 0, len(ids))
	for _, id := range ids {
		j := job{ID: id, Title: "Job " + strconv.Itoa(id)}
		j.Company.Name = "Acme"
		jobs = append(jobs, j)
	}
	buf, _ := json.Marshal(map[string]any{
		"error":   false,
		"results": map[string]any{"total_count": total, "jobs": jobs},
	})
	return string(buf)
}

func TestExistingPostings_FollowsPagesUntilTotal(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			w.Write([]byte(jobsPage(3, 1, 2)))
		case "2":
			w.Write([]byte(jobsPage(3, 3)))
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer srv.Close()

	got, err := newTestClient(srv, 10).ExistingPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(got))
	}
	if got[0].Title != "Job 1" || got[0].CompanyName != "Acme" {
		t.Errorf("unexpected first posting: %+v", got[0])
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 page requests, got %v", pages)
	}
}

func TestExistingPostings_StopsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(jobsPage(100, 1)))
			return
		}
		w.Write([]byte(jobsPage(100)))
	}))
	defer srv.Close()

	got, err := newTestClient(srv, 10).ExistingPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || calls.Load() != 2 {
		t.Errorf("got %d postings over %d calls, want 1 over 2", len(got), calls.Load())
	}
}

func TestExistingPostings_RespectsPageCap(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		w.Write([]byte(jobsPage(1000, n)))
	}))
	defer srv.Close()

	got, err := newTestClient(srv, 2).ExistingPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || calls.Load() != 2 {
		t.Errorf("got %d postings over %d calls, want 2 over 2", len(got), calls.Load())
	}
}

func TestExistingPostings_PropagatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv, 3).ExistingPostings(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestJobPayload_FormOmitsApplyKeys(t *testing.T) {
	buf, err := json.Marshal(JobPayload{Title: "Nurse", ApplyByForm: true, IsPublished: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"apply_url", "apply_email", "salary_min", "salary_timeframe"} {
		if _, ok := m[k]; ok {
			t.Errorf("unexpected key %q in %s", k, buf)
		}
	}
	if m["apply_by_form"] != true {
		t.Errorf("apply_by_form = %v, want true", m["apply_by_form"])
	}
}
