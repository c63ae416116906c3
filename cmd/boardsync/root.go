package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/ai"
	"github.com/amishk599/boardsync/internal/config"
	"github.com/amishk599/boardsync/internal/filter"
	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/niceboard"
	"github.com/amishk599/boardsync/internal/notifier"
	"github.com/amishk599/boardsync/internal/payload"
	"github.com/amishk599/boardsync/internal/publisher"
	"github.com/amishk599/boardsync/internal/ratelimit"
	"github.com/amishk599/boardsync/internal/resolver"
	"github.com/amishk599/boardsync/internal/retry"
	"github.com/amishk599/boardsync/internal/source"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "boardsync",
	Short: "Sync JobsPikr postings onto a Niceboard job board",
	Long: "boardsync fetches job postings from JobsPikr, optionally normalizes them with an LLM, " +
		"and publishes the new ones to a Niceboard board.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvConfigPath+" env var or ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: --config flag > BOARDSYNC_CONFIG env var > ./config.yaml
func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(cfgPath))
}

// mustSetup loads the config and builds the logger, exiting on failure.
// The returned func closes the optional log file.
func mustSetup() (*config.Config, *slog.Logger, func() error) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog := config.SetupLogger(debug || cfg.Logging.Debug, cfg.Logging.File)
	return cfg, logger, closeLog
}

func boardRetryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxRetries: cfg.Niceboard.MaxRetries,
		BaseDelay:  2 * time.Second,
		Retryable:  retry.IsTransient,
	}
}

func newBoardClient(cfg *config.Config, logger *slog.Logger) *niceboard.Client {
	return niceboard.NewClient(niceboard.Config{
		BaseURL:           cfg.Niceboard.BaseURL,
		APIKey:            cfg.Niceboard.APIKey,
		RequestsPerSecond: cfg.Niceboard.RequestsPerSecond,
		MaxExistingPages:  cfg.Niceboard.ExistingJobsMaxPages,
		Retry:             boardRetryPolicy(cfg),
	}, &http.Client{Timeout: cfg.Niceboard.Timeout}, logger)
}

func newSource(cfg *config.Config, logger *slog.Logger) *source.JobsPikrAdapter {
	var queries []source.Query
	for _, q := range cfg.JobsPikr.Queries {
		if !q.IsEnabled() {
			logger.Debug("query disabled, skipping", "query", q.Name)
			continue
		}
		queries = append(queries, source.Query{
			Name:        q.Name,
			Description: q.Description,
			Size:        q.Size,
			MaxPages:    q.MaxPages,
			Body:        q.Body,
		})
	}

	gaps := ratelimit.NewMinGap(cfg.JobsPikr.RequestDelay)
	return source.NewJobsPikrAdapter(source.JobsPikrConfig{
		BaseURL:  cfg.JobsPikr.BaseURL,
		ClientID: cfg.JobsPikr.ClientID,
		AuthKey:  cfg.JobsPikr.AuthKey,
		Queries:  queries,
		Retry: retry.Policy{
			MaxRetries: cfg.JobsPikr.MaxRetries,
			BaseDelay:  2 * time.Second,
			Retryable:  retry.IsTransient,
		},
	}, &http.Client{Timeout: cfg.JobsPikr.Timeout}, gaps.Keyed("jobspikr"), logger)
}

func newFilter(cfg *config.Config) *filter.RecordFilter {
	return filter.New(filter.Options{
		TitleKeywords:   cfg.Filters.TitleKeywords,
		ExcludeKeywords: cfg.Filters.TitleExcludeKeywords,
		Locations:       cfg.Filters.Locations,
		SkipExpired:     cfg.Filters.SkipExpired,
	})
}

// boardDeps bundles everything built on top of one board client.
type boardDeps struct {
	client     *niceboard.Client
	companies  *resolver.CompanyResolver
	categories *resolver.CategoryResolver
	resolvers  publisher.Resolvers
	builder    *payload.Builder
}

func newBoardDeps(cfg *config.Config, logger *slog.Logger) boardDeps {
	client := newBoardClient(cfg, logger)
	companies := resolver.NewCompanyResolver(client, cfg.Niceboard.DefaultCompanyID, logger)
	categories := resolver.NewCategoryResolver(client, cfg.Niceboard.DefaultCategoryID, logger)
	return boardDeps{
		client:     client,
		companies:  companies,
		categories: categories,
		resolvers: publisher.Resolvers{
			Company:  companies,
			Location: resolver.NewLocationResolver(client, logger),
			JobType:  resolver.NewJobTypeResolver(client, cfg.Niceboard.DefaultJobTypeID, logger),
			Category: categories,
		},
		builder: payload.NewBuilder(cfg.Niceboard.SanitizeDescription),
	}
}

func newPublisher(cfg *config.Config, deps boardDeps, ledger model.PublishLedger, dryRun bool, logger *slog.Logger) *publisher.Publisher {
	return publisher.New(
		deps.client,
		deps.resolvers,
		deps.builder,
		ledger,
		ratelimit.NewFixedDelay(cfg.Niceboard.RequestDelay),
		publisher.Options{
			OnFetchError: publisher.FetchErrorPolicy(cfg.Niceboard.OnFetchError),
			DryRun:       dryRun,
		},
		logger,
	)
}

func newNormalizer(cfg *config.Config, categories ai.CategorySource, logger *slog.Logger) ai.Normalizer {
	if !cfg.AI.Enabled {
		return ai.NewNopNormalizer()
	}
	logger.Info("using LLM normalizer", "model", cfg.AI.Model)
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
	return ai.NewLLMNormalizer(provider, ai.StandardizeTemplate, categories, ai.NormalizerOptions{
		ChunkSize:   cfg.AI.ChunkSize,
		Concurrency: cfg.AI.Concurrency,
		Retry: retry.Policy{
			MaxRetries: 2,
			BaseDelay:  2 * time.Second,
			Retryable:  retry.IsTransient,
		},
	}, logger)
}

// newNotifier always logs the summary, and also posts it to Slack when configured.
func newNotifier(cfg *config.Config, logger *slog.Logger) model.Notifier {
	n := notifier.Multi{notifier.NewLogNotifier(logger)}
	if cfg.Notification.Type == "slack" {
		logger.Info("using slack notifier")
		n = append(n, notifier.NewSlackNotifier(cfg.Notification.WebhookURL, &http.Client{Timeout: 30 * time.Second}, logger))
	}
	return n
}
