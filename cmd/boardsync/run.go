package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/config"
	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/pipeline"
	"github.com/amishk599/boardsync/internal/runlock"
	"github.com/amishk599/boardsync/internal/store"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, normalize and publish once, then exit",
	Long:  "Runs one full sync: JobsPikr fetch, filter, optional LLM normalization, then publish to Niceboard.",
	RunE:  runOnceCmd,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "build payloads and log them without creating anything")
	rootCmd.AddCommand(runCmd)
}

func runOnceCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := syncOnce(ctx, cfg, runDryRun, logger); err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			logger.Warn("skipping run", "reason", err)
			return nil
		}
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	return nil
}

// syncOnce performs one locked pipeline run. It is shared by `run` and `start`.
func syncOnce(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) error {
	lock, err := runlock.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer lock.Release()

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	if err := sqlStore.Cleanup(cfg.Store.Retention); err != nil {
		logger.Warn("ledger cleanup failed", "error", err)
	}

	deps := newBoardDeps(cfg, logger)
	// A dry run still records the run itself, but never marks jobs as published.
	var ledger model.PublishLedger = sqlStore
	if dryRun {
		ledger = store.NewNopStore()
	}
	pub := newPublisher(cfg, deps, ledger, dryRun, logger)

	p := pipeline.New(
		newSource(cfg, logger),
		newFilter(cfg),
		newNormalizer(cfg, deps.categories, logger),
		pub,
		sqlStore,
		newNotifier(cfg, logger),
		logger,
	)
	_, err = p.Run(ctx)
	return err
}
