package filter

import (
	"testing"

	"github.com/amishk599/boardsync/internal/model"
)

func job(title, city, state string) model.JobRecord {
	return model.JobRecord{Title: title, City: city, State: state, Country: "USA"}
}

func TestRecordFilter_Match(t *testing.T) {
	expired := job("Registered Nurse", "Austin", "TX")
	expired.HasExpired = true
	remote := job("Physical Therapist", "", "")
	remote.Country = ""
	remote.IsRemote = true

	tests := []struct {
		name      string
		opts      Options
		job       model.JobRecord
		wantMatch bool
	}{
		{
			name:      "matches title and location",
			opts:      Options{TitleKeywords: []string{"nurse", "therapist"}, Locations: []string{"TX", "CA"}},
			job:       job("Registered Nurse", "Austin", "TX"),
			wantMatch: true,
		},
		{
			name:      "title match but location miss",
			opts:      Options{TitleKeywords: []string{"nurse"}, Locations: []string{"CA"}},
			job:       job("Registered Nurse", "Austin", "TX"),
			wantMatch: false,
		},
		{
			name:      "case insensitive matching",
			opts:      Options{TitleKeywords: []string{"NURSE"}, Locations: []string{"austin"}},
			job:       job("registered nurse", "AUSTIN", "TX"),
			wantMatch: true,
		},
		{
			name:      "excluded keyword wins",
			opts:      Options{TitleKeywords: []string{"nurse"}, ExcludeKeywords: []string{"travel"}},
			job:       job("Travel Nurse", "Austin", "TX"),
			wantMatch: false,
		},
		{
			name:      "expired skipped when enabled",
			opts:      Options{SkipExpired: true},
			job:       expired,
			wantMatch: false,
		},
		{
			name:      "expired kept when disabled",
			opts:      Options{},
			job:       expired,
			wantMatch: true,
		},
		{
			name:      "remote jobs bypass location keywords",
			opts:      Options{Locations: []string{"TX"}},
			job:       remote,
			wantMatch: true,
		},
		{
			name:      "empty keyword lists pass all",
			opts:      Options{TitleKeywords: []string{" "}},
			job:       job("Any Role", "Anywhere", ""),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.opts).Match(tt.job)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestApply_PreservesOrder(t *testing.T) {
	jobs := []model.JobRecord{
		{UniqID: "1", Title: "Nurse"},
		{UniqID: "2", Title: "Cook"},
		{UniqID: "3", Title: "Nurse Manager"},
	}
	got := Apply(New(Options{TitleKeywords: []string{"nurse"}}), jobs)
	if len(got) != 2 || got[0].UniqID != "1" || got[1].UniqID != "3" {
		t.Errorf("Apply() = %+v", got)
	}
}
