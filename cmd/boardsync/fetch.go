package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch from JobsPikr into a dated CSV batch",
	Long:  "Runs every enabled JobsPikr query and writes the records to <output_dir>/<date>/jobs.csv for review or a later upload.",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs, err := newSource(cfg, logger).FetchJobs(ctx)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}

	path := source.BatchPath(cfg.OutputDir, time.Now())
	if err := source.WriteCSV(path, jobs); err != nil {
		logger.Error("writing batch failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d jobs to %s\n", len(jobs), path)
	return nil
}
