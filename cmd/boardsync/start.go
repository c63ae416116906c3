package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/runlock"
	"github.com/amishk599/boardsync/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync daemon",
	Long:  "Start the scheduler daemon; runs a sync every schedule.interval and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	logger.Info("config loaded",
		"interval", cfg.Schedule.Interval.String(),
		"odd_weeks_only", cfg.Schedule.OddWeeksOnly,
		"queries", len(cfg.JobsPikr.Queries),
		"ai", cfg.AI.Enabled,
		"notification", cfg.Notification.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := scheduler.RunnerFunc(func(ctx context.Context) error {
		err := syncOnce(ctx, cfg, false, logger)
		if errors.Is(err, runlock.ErrLocked) {
			logger.Warn("skipping tick", "reason", err)
			return nil
		}
		return err
	})

	sched := scheduler.NewScheduler(runner, cfg.Schedule.Interval, cfg.Schedule.OddWeeksOnly, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
