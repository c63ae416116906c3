package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/ai"
	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/pipeline"
	"github.com/amishk599/boardsync/internal/runlock"
	"github.com/amishk599/boardsync/internal/source"
	"github.com/amishk599/boardsync/internal/store"
)

var (
	uploadDryRun    bool
	uploadNormalize bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <batch.csv>",
	Short: "Publish a fetched CSV batch",
	Long:  "Reads a batch written by `fetch`, applies the filters and publishes the new jobs to Niceboard.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "build payloads and log them without creating anything")
	uploadCmd.Flags().BoolVar(&uploadNormalize, "normalize", false, "run the LLM normalizer before publishing (needs ai.enabled)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	if _, err := os.Stat(args[0]); err != nil {
		logger.Error("batch file not readable", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock, err := runlock.Acquire(cfg.LockFile)
	if err != nil {
		logger.Error("cannot upload", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	deps := newBoardDeps(cfg, logger)

	var ledger model.PublishLedger = sqlStore
	if uploadDryRun {
		ledger = store.NewNopStore()
	}

	var normalizer ai.Normalizer = ai.NewNopNormalizer()
	if uploadNormalize {
		normalizer = newNormalizer(cfg, deps.categories, logger)
	}

	p := pipeline.New(
		source.NewCSVSource(args[0]),
		newFilter(cfg),
		normalizer,
		newPublisher(cfg, deps, ledger, uploadDryRun, logger),
		sqlStore,
		newNotifier(cfg, logger),
		logger,
	)
	if _, err := p.Run(ctx); err != nil {
		logger.Error("upload failed", "error", err)
		os.Exit(1)
	}
	return nil
}
