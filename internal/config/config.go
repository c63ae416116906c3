package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/boardsync/internal/secrets"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag is given.
const EnvConfigPath = "BOARDSYNC_CONFIG"

// DefaultPath is used when neither the flag nor the env var is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for boardsync.
type Config struct {
	Niceboard    NiceboardConfig
	JobsPikr     JobsPikrConfig
	AI           AIConfig
	Filters      FilterConfig
	Notification NotificationConfig
	Schedule     ScheduleConfig
	Store        StoreConfig
	Logging      LoggingConfig
	OutputDir    string // root of dated CSV batches
	LockFile     string
}

// NiceboardConfig describes the target job board.
type NiceboardConfig struct {
	BaseURL              string
	APIKey               string
	DefaultCompanyID     int
	DefaultJobTypeID     int           // "Full Time"
	DefaultCategoryID    int           // "Other"
	RequestDelay         time.Duration // pause before every job in a batch
	RequestsPerSecond    float64
	ExistingJobsMaxPages int
	SanitizeDescription  bool
	OnFetchError         string // "fail" or "empty"
	Timeout              time.Duration
	MaxRetries           int
}

// JobsPikrConfig describes the job source.
type JobsPikrConfig struct {
	BaseURL      string
	ClientID     string
	AuthKey      string
	RequestDelay time.Duration // pause between source requests
	Timeout      time.Duration
	MaxRetries   int
	Queries      []QueryConfig
}

// QueryConfig is one named JobsPikr search.
type QueryConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Size        int            `yaml:"size"`
	MaxPages    int            `yaml:"max_pages"`
	Body        map[string]any `yaml:"body"`
	Enabled     *bool          `yaml:"enabled"` // nil means enabled
}

// IsEnabled reports whether the query should run.
func (q QueryConfig) IsEnabled() bool {
	return q.Enabled == nil || *q.Enabled
}

// AIConfig controls the optional LLM normalization step.
type AIConfig struct {
	Enabled     bool
	BaseURL     string // defaults to https://api.openai.com/v1
	Model       string // OpenAI model identifier, e.g. "gpt-4o-mini"
	APIKey      string // expanded from env var or read from the keyring
	Timeout     time.Duration
	ChunkSize   int
	Concurrency int
}

// FilterConfig holds keyword and location filter settings.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	SkipExpired          bool     `yaml:"skip_expired"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ScheduleConfig controls the `start` daemon.
type ScheduleConfig struct {
	Interval     time.Duration
	OddWeeksOnly bool
}

// StoreConfig locates the publish ledger.
type StoreConfig struct {
	Path      string
	Retention time.Duration // ledger entries older than this are dropped
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"` // optional JSON log file
}

const (
	defaultNiceboardBaseURL = "https://jobs.aag.health/api/v1"
	defaultJobsPikrBaseURL  = "https://api.jobspikr.com/v2"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"

	defaultCompanyID  = 1
	defaultJobTypeID  = 19377
	defaultCategoryID = 43998
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Niceboard    rawNiceboardConfig `yaml:"niceboard"`
	JobsPikr     rawJobsPikrConfig  `yaml:"jobspikr"`
	AI           rawAIConfig        `yaml:"ai"`
	Filters      FilterConfig       `yaml:"filters"`
	Notification NotificationConfig `yaml:"notification"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
	Store        rawStoreConfig     `yaml:"store"`
	Logging      LoggingConfig      `yaml:"logging"`
	OutputDir    string             `yaml:"output_dir"`
	LockFile     string             `yaml:"lock_file"`
}

type rawNiceboardConfig struct {
	BaseURL              string  `yaml:"base_url"`
	APIKey               string  `yaml:"api_key"`
	DefaultCompanyID     int     `yaml:"default_company_id"`
	DefaultJobTypeID     int     `yaml:"default_jobtype_id"`
	DefaultCategoryID    int     `yaml:"default_category_id"`
	RequestDelay         string  `yaml:"request_delay"`
	RequestsPerSecond    float64 `yaml:"requests_per_second"`
	ExistingJobsMaxPages int     `yaml:"existing_jobs_max_pages"`
	SanitizeDescription  *bool   `yaml:"sanitize_description"`
	OnFetchError         string  `yaml:"on_fetch_error"`
	Timeout              string  `yaml:"timeout"`
	MaxRetries           *int    `yaml:"max_retries"`
}

type rawJobsPikrConfig struct {
	BaseURL      string        `yaml:"base_url"`
	ClientID     string        `yaml:"client_id"`
	AuthKey      string        `yaml:"auth_key"`
	RequestDelay string        `yaml:"request_delay"`
	Timeout      string        `yaml:"timeout"`
	MaxRetries   *int          `yaml:"max_retries"`
	Queries      []QueryConfig `yaml:"queries"`
}

type rawAIConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKey      string `yaml:"api_key"`
	Timeout     string `yaml:"timeout"`
	ChunkSize   int    `yaml:"chunk_size"`
	Concurrency int    `yaml:"concurrency"`
}

type rawScheduleConfig struct {
	Interval     string `yaml:"interval"`
	OddWeeksOnly bool   `yaml:"odd_weeks_only"`
}

type rawStoreConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

// ResolvePath picks the config file: flag value, then $BOARDSYNC_CONFIG,
// then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, fills secrets left
// empty from the OS keyring, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := fillSecrets(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	var (
		cfg = &Config{}
		err error
	)

	nb := raw.Niceboard
	cfg.Niceboard = NiceboardConfig{
		BaseURL:              orDefault(nb.BaseURL, defaultNiceboardBaseURL),
		APIKey:               nb.APIKey,
		DefaultCompanyID:     intOrDefault(nb.DefaultCompanyID, defaultCompanyID),
		DefaultJobTypeID:     intOrDefault(nb.DefaultJobTypeID, defaultJobTypeID),
		DefaultCategoryID:    intOrDefault(nb.DefaultCategoryID, defaultCategoryID),
		RequestsPerSecond:    nb.RequestsPerSecond,
		ExistingJobsMaxPages: intOrDefault(nb.ExistingJobsMaxPages, 50),
		SanitizeDescription:  nb.SanitizeDescription == nil || *nb.SanitizeDescription,
		OnFetchError:         orDefault(nb.OnFetchError, "fail"),
		MaxRetries:           3,
	}
	if nb.MaxRetries != nil {
		cfg.Niceboard.MaxRetries = *nb.MaxRetries
	}
	if cfg.Niceboard.RequestDelay, err = parseDuration("niceboard.request_delay", nb.RequestDelay, 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Niceboard.Timeout, err = parseDuration("niceboard.timeout", nb.Timeout, 30*time.Second); err != nil {
		return nil, err
	}

	jp := raw.JobsPikr
	cfg.JobsPikr = JobsPikrConfig{
		BaseURL:    orDefault(jp.BaseURL, defaultJobsPikrBaseURL),
		ClientID:   jp.ClientID,
		AuthKey:    jp.AuthKey,
		MaxRetries: 3,
		Queries:    jp.Queries,
	}
	if jp.MaxRetries != nil {
		cfg.JobsPikr.MaxRetries = *jp.MaxRetries
	}
	if cfg.JobsPikr.RequestDelay, err = parseDuration("jobspikr.request_delay", jp.RequestDelay, time.Second); err != nil {
		return nil, err
	}
	if cfg.JobsPikr.Timeout, err = parseDuration("jobspikr.timeout", jp.Timeout, 60*time.Second); err != nil {
		return nil, err
	}

	cfg.AI = AIConfig{
		Enabled:     raw.AI.Enabled,
		BaseURL:     orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
		Model:       orDefault(raw.AI.Model, "gpt-4o-mini"),
		APIKey:      raw.AI.APIKey,
		ChunkSize:   intOrDefault(raw.AI.ChunkSize, 10),
		Concurrency: intOrDefault(raw.AI.Concurrency, 2),
	}
	if cfg.AI.Timeout, err = parseDuration("ai.timeout", raw.AI.Timeout, 60*time.Second); err != nil {
		return nil, err
	}

	cfg.Filters = raw.Filters
	cfg.Notification = raw.Notification
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	cfg.Schedule.OddWeeksOnly = raw.Schedule.OddWeeksOnly
	if cfg.Schedule.Interval, err = parseDuration("schedule.interval", raw.Schedule.Interval, 7*24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Store.Path = orDefault(raw.Store.Path, "boardsync.db")
	if cfg.Store.Retention, err = parseDuration("store.retention", raw.Store.Retention, 90*24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Logging = raw.Logging
	cfg.OutputDir = orDefault(raw.OutputDir, "data")
	cfg.LockFile = orDefault(raw.LockFile, "boardsync.lock")

	return cfg, nil
}

// fillSecrets reads credentials the YAML left empty from the OS keyring.
func fillSecrets(cfg *Config) error {
	fields := []struct {
		dst     *string
		account string
		needed  bool
	}{
		{&cfg.Niceboard.APIKey, secrets.NiceboardAPIKey, true},
		{&cfg.JobsPikr.ClientID, secrets.JobsPikrClientID, true},
		{&cfg.JobsPikr.AuthKey, secrets.JobsPikrAuthKey, true},
		{&cfg.AI.APIKey, secrets.OpenAIAPIKey, cfg.AI.Enabled},
		{&cfg.Notification.WebhookURL, secrets.SlackWebhookURL, cfg.Notification.Type == "slack"},
	}
	for _, f := range fields {
		if !f.needed {
			continue
		}
		v, err := secrets.Resolve(*f.dst, f.account)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Niceboard.APIKey == "" {
		return fmt.Errorf("niceboard.api_key is required (set it in config or with `boardsync auth set %s`)", secrets.NiceboardAPIKey)
	}
	if cfg.Niceboard.RequestDelay < 0 {
		return fmt.Errorf("niceboard.request_delay must not be negative, got %v", cfg.Niceboard.RequestDelay)
	}
	switch cfg.Niceboard.OnFetchError {
	case "fail", "empty":
	default:
		return fmt.Errorf("niceboard.on_fetch_error must be \"fail\" or \"empty\", got %q", cfg.Niceboard.OnFetchError)
	}
	if cfg.Niceboard.MaxRetries < 0 || cfg.JobsPikr.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if cfg.JobsPikr.ClientID == "" || cfg.JobsPikr.AuthKey == "" {
		return fmt.Errorf("jobspikr.client_id and jobspikr.auth_key are required")
	}
	enabled := 0
	for i, q := range cfg.JobsPikr.Queries {
		if q.Name == "" {
			return fmt.Errorf("jobspikr.queries[%d].name is required", i)
		}
		if q.IsEnabled() {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one jobspikr query must be enabled")
	}

	if cfg.Notification.Type != "log" && cfg.Notification.Type != "slack" {
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}
	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	return nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func intOrDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
