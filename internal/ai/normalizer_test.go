package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProvider answers each prompt through fn and records the prompts.
type mockProvider struct {
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) (string, error)
}

func (m *mockProvider) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.fn(prompt)
}

type staticCategories []string

func (s staticCategories) Names(context.Context) ([]string, error) { return s, nil }

func rowsJSON(rows ...standardizedRow) string {
	buf, _ := json.Marshal(map[string]any{"jobs": rows})
	return string(buf)
}

func testJobs(ids ...string) []model.JobRecord {
	jobs := make([]model.JobRecord, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, model.JobRecord{UniqID: id, Title: "raw " + id, Category: "cat " + id, CompanyName: "Acme"})
	}
	return jobs
}

func newTestNormalizer(p LLMProvider, chunkSize int) *LLMNormalizer {
	return NewLLMNormalizer(p, StandardizeTemplate, staticCategories{"Nursing", "Other"}, NormalizerOptions{
		ChunkSize: chunkSize,
		Retry:     retry.Policy{MaxRetries: 0, BaseDelay: time.Millisecond},
	}, discardLogger())
}

func TestNormalize_RekeysByUniqIDNotPosition(t *testing.T) {
	p := &mockProvider{fn: func(string) (string, error) {
		// Reversed order relative to the input.
		return rowsJSON(
			standardizedRow{UniqID: "b", Title: "Registered Nurse", Category: "Nursing"},
			standardizedRow{UniqID: "a", Title: "Physical Therapist", Category: "Other"},
		), nil
	}}

	got, err := newTestNormalizer(p, 10).Normalize(context.Background(), testJobs("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].UniqID != "a" || got[0].Title != "Physical Therapist" || got[0].Category != "Other" {
		t.Errorf("job a = %+v", got[0])
	}
	if got[1].UniqID != "b" || got[1].Title != "Registered Nurse" || got[1].Category != "Nursing" {
		t.Errorf("job b = %+v", got[1])
	}
}

func TestNormalize_MissingUnknownAndDuplicateRowsKeepOriginals(t *testing.T) {
	p := &mockProvider{fn: func(string) (string, error) {
		return rowsJSON(
			standardizedRow{UniqID: "zzz", Title: "Ghost", Category: "Other"},
			standardizedRow{UniqID: "b", Title: "One", Category: "Nursing"},
			standardizedRow{UniqID: "b", Title: "Two", Category: "Nursing"},
			standardizedRow{UniqID: "c", Title: "", Category: "Nursing"},
		), nil
	}}

	jobs := testJobs("a", "b", "c")
	got, err := newTestNormalizer(p, 10).Normalize(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(got))
	}
	if got[0] != jobs[0] {
		t.Errorf("missing row should keep original: %+v", got[0])
	}
	if got[1] != jobs[1] {
		t.Errorf("duplicated row should keep original: %+v", got[1])
	}
	if got[2].Title != "raw c" || got[2].Category != "Nursing" {
		t.Errorf("empty title should keep original, category should update: %+v", got[2])
	}
}

func TestNormalize_FailedChunkKeepsOriginals(t *testing.T) {
	p := &mockProvider{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, `"uniq_id": "c"`) {
			return "", errors.New("llm down")
		}
		return rowsJSON(
			standardizedRow{UniqID: "a", Title: "A", Category: "Nursing"},
			standardizedRow{UniqID: "b", Title: "B", Category: "Nursing"},
		), nil
	}}

	jobs := testJobs("a", "b", "c")
	got, err := newTestNormalizer(p, 2).Normalize(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Title != "A" || got[1].Title != "B" {
		t.Errorf("first chunk not applied: %+v", got[:2])
	}
	if got[2] != jobs[2] {
		t.Errorf("failed chunk should keep original: %+v", got[2])
	}
	if len(p.prompts) != 2 {
		t.Errorf("expected 2 chunk calls, got %d", len(p.prompts))
	}
}

func TestNormalize_MalformedResponseKeepsOriginals(t *testing.T) {
	p := &mockProvider{fn: func(string) (string, error) { return "not json", nil }}

	jobs := testJobs("a")
	got, err := newTestNormalizer(p, 10).Normalize(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != jobs[0] {
		t.Errorf("expected original, got %+v", got[0])
	}
}

func TestNormalize_PromptCarriesVocabularyAndJobs(t *testing.T) {
	p := &mockProvider{fn: func(string) (string, error) { return rowsJSON(), nil }}

	if _, err := newTestNormalizer(p, 10).Normalize(context.Background(), testJobs("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompt := p.prompts[0]
	for _, want := range []string{"- Nursing", "- Other", `"uniq_id": "a"`, `"job_title": "raw a"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestNormalize_EmptyInputMakesNoCalls(t *testing.T) {
	p := &mockProvider{fn: func(string) (string, error) { return "", errors.New("unexpected") }}

	got, err := newTestNormalizer(p, 10).Normalize(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("Normalize(nil) = %v, %v", got, err)
	}
	if len(p.prompts) != 0 {
		t.Errorf("expected no calls, got %d", len(p.prompts))
	}
}

func TestNopNormalizer_ReturnsInput(t *testing.T) {
	jobs := testJobs("a")
	got, err := NewNopNormalizer().Normalize(context.Background(), jobs)
	if err != nil || len(got) != 1 || got[0] != jobs[0] {
		t.Errorf("Nop Normalize = %v, %v", got, err)
	}
}
