package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Inspect or seed board categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the board's categories",
	RunE:  runCategoriesList,
}

var categoriesSeedCmd = &cobra.Command{
	Use:   "seed <name>...",
	Short: "Create any missing categories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoriesSeed,
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd, categoriesSeedCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	names, err := newBoardDeps(cfg, logger).categories.Names(context.Background())
	if err != nil {
		logger.Error("listing categories failed", "error", err)
		os.Exit(1)
	}
	for _, n := range names {
		fmt.Println(n)
	}
	fmt.Printf("\nTotal: %d categories\n", len(names))
	return nil
}

func runCategoriesSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	created, err := newBoardDeps(cfg, logger).categories.Seed(context.Background(), args)
	if err != nil {
		logger.Error("seeding categories failed", "created", created, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Created %d of %d categories\n", created, len(args))
	return nil
}
