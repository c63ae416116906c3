package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/boardsync/internal/config"
	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/review"
	"github.com/amishk599/boardsync/internal/source"
	"github.com/amishk599/boardsync/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse fetched batches interactively (TUI)",
	Long:  "Shows the batch picker TUI, then a split-pane view of what an upload of that batch would publish.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Any log output while the alt-screen is up corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runReview(cfg, silentLogger)
	return nil
}

func runReview(cfg *config.Config, logger *slog.Logger) {
	batches, err := source.ListBatches(cfg.OutputDir)
	if err != nil {
		fmt.Printf("Error listing batches: %v\n", err)
		return
	}
	if len(batches) == 0 {
		fmt.Printf("No batches under %s. Run `boardsync fetch` first.\n", cfg.OutputDir)
		return
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		return
	}
	defer sqlStore.Close()

	deps := newBoardDeps(cfg, logger)
	jobFilter := newFilter(cfg)

	// Existing postings are fetched once; they do not change while browsing.
	var existing []model.Posting
	fetched := false

	for {
		choice, err := review.RunBatchPicker(batches)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		batch := batches[choice]

		jobs, err := source.ReadCSV(batch.Path)
		if err != nil {
			fmt.Printf("Error reading batch: %v\n", err)
			continue
		}

		if !fetched {
			existing, err = review.RunLoader("Loading existing board jobs", deps.client.ExistingPostings)
			if err != nil {
				fmt.Printf("Error fetching existing jobs: %v\n", err)
				continue
			}
			fetched = true
		}

		items, err := review.Classify(jobs, jobFilter, sqlStore, existing)
		if err != nil {
			fmt.Printf("Error classifying batch: %v\n", err)
			continue
		}

		wantQuit, err := review.RunReviewTUI(items, deps.builder)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
