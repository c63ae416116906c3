package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the ledger",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	runs, err := sqlStore.RecentRuns(historyLimit)
	if err != nil {
		logger.Error("listing runs failed", "error", err)
		os.Exit(1)
	}
	published, err := sqlStore.PublishedCount()
	if err != nil {
		logger.Error("counting ledger entries failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%-36s  %-16s  %8s  %5s  %7s  %7s  %6s  %s\n",
		"Run", "Started", "Duration", "Total", "Created", "Skipped", "Failed", "Error")
	fmt.Println(strings.Repeat("─", 110))
	for _, r := range runs {
		fmt.Printf("%-36s  %-16s  %8s  %5d  %7d  %7d  %6d  %s\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04"),
			r.FinishedAt.Sub(r.StartedAt).String(),
			r.Stats.Total, r.Stats.Created, r.Stats.Skipped, r.Stats.Failed,
			r.Error,
		)
	}
	fmt.Printf("\n%d runs shown, %d jobs in the publish ledger\n", len(runs), published)
	return nil
}
