package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/amishk599/boardsync/internal/secrets"
)

const validConfig = `
niceboard:
  api_key: nb-key
  request_delay: 250ms
  on_fetch_error: empty
jobspikr:
  client_id: client
  auth_key: ${TEST_JP_AUTH}
  queries:
    - name: nurses
      size: 50
      max_pages: 3
      body:
        search_query_json:
          bool:
            must:
              - query_string:
                  default_field: job_title
                  query: nurse
    - name: disabled
      enabled: false
filters:
  title_keywords: [nurse]
  skip_expired: true
schedule:
  interval: 24h
  odd_weeks_only: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	keyring.MockInit()
	t.Setenv("TEST_JP_AUTH", "auth-from-env")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	nb := cfg.Niceboard
	if nb.APIKey != "nb-key" || nb.RequestDelay != 250*time.Millisecond || nb.OnFetchError != "empty" {
		t.Errorf("Niceboard = %+v", nb)
	}
	if nb.BaseURL != defaultNiceboardBaseURL || nb.DefaultJobTypeID != 19377 || nb.DefaultCategoryID != 43998 || nb.DefaultCompanyID != 1 {
		t.Errorf("Niceboard defaults not applied: %+v", nb)
	}
	if !nb.SanitizeDescription || nb.MaxRetries != 3 {
		t.Errorf("SanitizeDescription/MaxRetries = %v/%d", nb.SanitizeDescription, nb.MaxRetries)
	}

	if cfg.JobsPikr.AuthKey != "auth-from-env" {
		t.Errorf("AuthKey = %q, want env expansion", cfg.JobsPikr.AuthKey)
	}
	if len(cfg.JobsPikr.Queries) != 2 || !cfg.JobsPikr.Queries[0].IsEnabled() || cfg.JobsPikr.Queries[1].IsEnabled() {
		t.Fatalf("Queries = %+v", cfg.JobsPikr.Queries)
	}
	body, err := json.Marshal(cfg.JobsPikr.Queries[0].Body)
	if err != nil {
		t.Fatalf("query body is not JSON-encodable: %v", err)
	}
	if !strings.Contains(string(body), `"default_field":"job_title"`) {
		t.Errorf("query body = %s", body)
	}

	if !cfg.Filters.SkipExpired || len(cfg.Filters.TitleKeywords) != 1 {
		t.Errorf("Filters = %+v", cfg.Filters)
	}
	if cfg.Schedule.Interval != 24*time.Hour || !cfg.Schedule.OddWeeksOnly {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Notification.Type != "log" || cfg.OutputDir != "data" || cfg.Store.Path != "boardsync.db" {
		t.Errorf("defaults: notification=%q output=%q store=%q", cfg.Notification.Type, cfg.OutputDir, cfg.Store.Path)
	}
	if cfg.AI.ChunkSize != 10 {
		t.Errorf("AI.ChunkSize = %d, want 10", cfg.AI.ChunkSize)
	}
}

func TestLoad_SecretsFromKeyring(t *testing.T) {
	keyring.MockInit()
	if err := secrets.Set(secrets.NiceboardAPIKey, "nb-from-keyring"); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_JP_AUTH", "x")

	content := strings.Replace(validConfig, "  api_key: nb-key\n", "", 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Niceboard.APIKey != "nb-from-keyring" {
		t.Errorf("APIKey = %q, want keyring value", cfg.Niceboard.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "niceboard: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	keyring.MockInit()
	t.Setenv("TEST_JP_AUTH", "x")

	tests := []struct {
		name    string
		replace [2]string
	}{
		{"missing api key", [2]string{"  api_key: nb-key\n", ""}},
		{"bad fetch policy", [2]string{"on_fetch_error: empty", "on_fetch_error: ignore"}},
		{"bad duration", [2]string{"request_delay: 250ms", "request_delay: soon"}},
		{"no enabled query", [2]string{"    - name: nurses\n", "    - name: nurses\n      enabled: false\n"}},
		{"zero interval", [2]string{"interval: 24h", "interval: 0s"}},
		{"slack without webhook", [2]string{"filters:", "notification:\n  type: slack\nfilters:"}},
		{"ai without key", [2]string{"filters:", "ai:\n  enabled: true\nfilters:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validConfig, tt.replace[0], tt.replace[1], 1)
			if content == validConfig {
				t.Fatalf("replacement %q not found", tt.replace[0])
			}
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("Load: expected validation error")
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("ResolvePath() = %q, want %q", got, DefaultPath)
	}

	t.Setenv(EnvConfigPath, "/etc/boardsync.yaml")
	if got := ResolvePath(""); got != "/etc/boardsync.yaml" {
		t.Errorf("ResolvePath() = %q, want env value", got)
	}
	if got := ResolvePath("flag.yaml"); got != "flag.yaml" {
		t.Errorf("ResolvePath(flag) = %q, want flag value", got)
	}
}

func TestSetupLoggerWithWriters_FansOut(t *testing.T) {
	var text, jsonOut bytes.Buffer
	logger := SetupLoggerWithWriters(&text, &jsonOut, slog.LevelInfo)

	logger.Info("created job", "job_id", 42)
	logger.Debug("hidden")

	if !strings.Contains(text.String(), "job_id=42") {
		t.Errorf("text output = %q", text.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(jsonOut.Bytes(), &rec); err != nil {
		t.Fatalf("json output not a single JSON line: %v (%q)", err, jsonOut.String())
	}
	if rec["msg"] != "created job" {
		t.Errorf("json record = %v", rec)
	}
}

func TestSetupLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boardsync.log")
	logger, cleanup := SetupLogger(false, path)
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q, %v", data, err)
	}
}
