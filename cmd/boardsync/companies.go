package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var purgeKeepID int

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Inspect or clean up board companies",
}

var companiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all companies on the board",
	RunE:  runCompaniesList,
}

var companiesPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every board company except one",
	Long:  "Deletes all companies on the board except --keep (the default company). Irreversible.",
	RunE:  runCompaniesPurge,
}

func init() {
	companiesPurgeCmd.Flags().IntVar(&purgeKeepID, "keep", 0, "company ID to keep (default: niceboard.default_company_id)")
	companiesCmd.AddCommand(companiesListCmd, companiesPurgeCmd)
	rootCmd.AddCommand(companiesCmd)
}

func runCompaniesList(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	deps := newBoardDeps(cfg, logger)
	companies, err := deps.companies.ListAll(context.Background())
	if err != nil {
		logger.Error("listing companies failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%-10s %s\n", "ID", "Name")
	fmt.Println(strings.Repeat("─", 47))
	for _, c := range companies {
		marker := ""
		if c.ID == cfg.Niceboard.DefaultCompanyID {
			marker = "  (default)"
		}
		fmt.Printf("%-10d %s%s\n", c.ID, c.Name, marker)
	}
	fmt.Printf("\nTotal: %d companies\n", len(companies))
	return nil
}

func runCompaniesPurge(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog := mustSetup()
	defer closeLog()

	keep := purgeKeepID
	if keep == 0 {
		keep = cfg.Niceboard.DefaultCompanyID
	}

	deps := newBoardDeps(cfg, logger)
	deleted, err := deps.companies.PurgeAll(context.Background(), keep)
	if err != nil {
		logger.Error("purge incomplete", "deleted", deleted, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d companies (kept %d)\n", deleted, keep)
	return nil
}
