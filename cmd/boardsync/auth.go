package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amishk599/boardsync/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage credentials in the OS keyring",
	Long: "Credentials left empty in the config are read from the OS keyring. Accounts: " +
		strings.Join(secrets.Accounts, ", "),
}

var authSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store a credential (read from the terminal without echo, or from stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are stored",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authSetCmd, authDeleteCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func checkAccount(account string) error {
	if !secrets.Known(account) {
		return fmt.Errorf("unknown account %q (want one of: %s)", account, strings.Join(secrets.Accounts, ", "))
	}
	return nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	account := args[0]
	if err := checkAccount(account); err != nil {
		return err
	}

	value, err := readSecret(fmt.Sprintf("Enter %s: ", account))
	if err != nil {
		return err
	}
	if err := secrets.Set(account, value); err != nil {
		return err
	}
	fmt.Printf("Stored %s in the keyring\n", account)
	return nil
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading secret from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	account := args[0]
	if err := checkAccount(account); err != nil {
		return err
	}
	if err := secrets.Delete(account); err != nil {
		return err
	}
	fmt.Printf("Removed %s from the keyring\n", account)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-22s %s\n", "Account", "Status")
	fmt.Println(strings.Repeat("─", 32))
	for _, a := range secrets.Accounts {
		v, err := secrets.Get(a)
		status := "stored"
		switch {
		case err != nil:
			status = "error: " + err.Error()
		case v == "":
			status = "missing"
		}
		fmt.Printf("%-22s %s\n", a, status)
	}
	return nil
}
