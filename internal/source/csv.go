package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/boardsync/internal/model"
)

// BatchFile is the name of the CSV written into each dated batch directory.
const BatchFile = "data.csv"

var csvColumns = []string{
	"uniq_id", "job_title", "company_name", "city", "state", "country",
	"job_type", "category", "post_date", "url",
	"job_description", "html_job_description", "apply_url", "contact_email",
	"is_remote", "has_expired",
	"salary_min", "salary_max", "salary_currency", "salary_time_unit",
}

// WriteCSV writes jobs to path, creating parent directories.
func WriteCSV(path string, jobs []model.JobRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create batch dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, j := range jobs {
		if err := w.Write(toRow(j)); err != nil {
			return fmt.Errorf("write %s: %w", j.UniqID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV reads a batch written by WriteCSV. Columns are matched by header
// name, so files with extra or reordered columns still load.
func ReadCSV(path string) ([]model.JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var jobs []model.JobRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		jobs = append(jobs, fromRow(row, idx))
	}
	return jobs, nil
}

func toRow(j model.JobRecord) []string {
	var lo, hi, curr, unit string
	if j.Salary != nil {
		lo = formatFloat(j.Salary.Min)
		hi = formatFloat(j.Salary.Max)
		curr = j.Salary.Currency
		unit = j.Salary.TimeUnit
	}
	return []string{
		j.UniqID, j.Title, j.CompanyName, j.City, j.State, j.Country,
		j.JobType, j.Category, j.PostDate, j.SourceURL,
		j.Description, j.HTMLDescription, j.ApplyURL, j.ContactEmail,
		strconv.FormatBool(j.IsRemote), strconv.FormatBool(j.HasExpired),
		lo, hi, curr, unit,
	}
}

func fromRow(row []string, idx map[string]int) model.JobRecord {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	rec := model.JobRecord{
		UniqID:          get("uniq_id"),
		Title:           get("job_title"),
		CompanyName:     get("company_name"),
		City:            get("city"),
		State:           get("state"),
		Country:         get("country"),
		JobType:         get("job_type"),
		Category:        get("category"),
		PostDate:        get("post_date"),
		SourceURL:       get("url"),
		Description:     get("job_description"),
		HTMLDescription: get("html_job_description"),
		ApplyURL:        get("apply_url"),
		ContactEmail:    get("contact_email"),
		IsRemote:        parseBool(get("is_remote")),
		HasExpired:      parseBool(get("has_expired")),
	}
	lo, _ := strconv.ParseFloat(get("salary_min"), 64)
	hi, _ := strconv.ParseFloat(get("salary_max"), 64)
	if lo > 0 || hi > 0 {
		rec.Salary = &model.Salary{
			Min:      lo,
			Max:      hi,
			Currency: get("salary_currency"),
			TimeUnit: get("salary_time_unit"),
		}
	}
	return rec
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.ToLower(s))
	return b
}

// BatchPath returns the CSV path for a batch fetched at t.
func BatchPath(outputDir string, t time.Time) string {
	return filepath.Join(outputDir, t.Format("2006-01-02"), BatchFile)
}

// Batch is a fetched batch on disk.
type Batch struct {
	Date string // directory name, YYYY-MM-DD
	Path string
}

// ListBatches returns the batches under outputDir, newest first.
func ListBatches(outputDir string) ([]Batch, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list batches: %w", err)
	}
	var batches []Batch
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse("2006-01-02", e.Name()); err != nil {
			continue
		}
		p := filepath.Join(outputDir, e.Name(), BatchFile)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		batches = append(batches, Batch{Date: e.Name(), Path: p})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Date > batches[j].Date })
	return batches, nil
}

// CSVSource serves a batch file as a JobSource.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) FetchJobs(_ context.Context) ([]model.JobRecord, error) {
	return ReadCSV(s.path)
}
