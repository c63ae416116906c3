package review

import (
	"errors"
	"strings"
	"testing"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/store"
)

type titleFilter struct{ reject string }

func (f titleFilter) Match(j model.JobRecord) bool {
	return !strings.Contains(j.Title, f.reject)
}

type mapLedger struct {
	done map[string]bool
	err  error
}

func (l mapLedger) HasPublished(id string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.done[id], nil
}
func (mapLedger) RecordPublished(model.PublishedJob) error { return nil }
func (mapLedger) RecordRun(model.RunSummary) error         { return nil }

func TestClassify(t *testing.T) {
	jobs := []model.JobRecord{
		{UniqID: "a", Title: "Registered Nurse", CompanyName: "Acme"},
		{UniqID: "b", Title: "Intern Physical Therapist", CompanyName: "Beta"},
		{UniqID: "c", Title: "Medical Assistant", CompanyName: "Gamma"},
		{UniqID: "d", Title: "Pharmacist", CompanyName: "Delta"},
		{UniqID: "e", Title: "registered nurse", CompanyName: "ACME"},
		{UniqID: "f", Title: "Surgeon", CompanyName: "Omega"},
	}
	existing := []model.Posting{{ID: 9, Title: "Pharmacist", CompanyName: "delta"}}
	ledger := mapLedger{done: map[string]bool{"c": true}}

	items, err := Classify(jobs, titleFilter{reject: "Intern"}, ledger, existing)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	want := []Verdict{Publish, Filtered, PublishedBefore, Duplicate, Duplicate, Publish}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.Verdict != want[i] {
			t.Errorf("item %s: verdict = %s, want %s", it.Job.UniqID, it.Verdict, want[i])
		}
	}

	pub := ToPublish(items)
	if len(pub) != 2 || pub[0].Job.UniqID != "a" || pub[1].Job.UniqID != "f" {
		t.Errorf("ToPublish = %+v", pub)
	}
}

func TestClassifyLedgerError(t *testing.T) {
	jobs := []model.JobRecord{{UniqID: "a", Title: "Nurse", CompanyName: "Acme"}}
	_, err := Classify(jobs, titleFilter{reject: "x"}, mapLedger{err: errors.New("disk gone")}, nil)
	if err == nil {
		t.Fatal("expected ledger error")
	}
}

func TestClassifyWithNopStore(t *testing.T) {
	jobs := []model.JobRecord{{UniqID: "a", Title: "Nurse", CompanyName: "Acme"}}
	items, err := Classify(jobs, titleFilter{reject: "x"}, store.NewNopStore(), nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if items[0].Verdict != Publish {
		t.Errorf("verdict = %s, want publish", items[0].Verdict)
	}
}

func TestVerdictString(t *testing.T) {
	tests := map[Verdict]string{
		Publish:         "publish",
		Filtered:        "filtered",
		PublishedBefore: "published before",
		Duplicate:       "duplicate",
		Verdict(42):     "unknown",
	}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("Verdict(%d).String() = %q, want %q", int(v), got, want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown("<p>Hello <strong>world</strong></p>")
	if got != "Hello **world**" {
		t.Errorf("Markdown = %q", got)
	}
}

func TestWordWrapKeepsLines(t *testing.T) {
	got := wordWrap("one two three four\n\n- item", 9)
	want := "one two\nthree\nfour\n\n- item"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
}
