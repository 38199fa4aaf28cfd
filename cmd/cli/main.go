package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dandoingdev/ledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "Ledger CLI tool",
		Long:  `A command line interface for interacting with the ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCommands())
	rootCmd.AddCommand(ledgerCommands())
	rootCmd.AddCommand(migrateCommands())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCommands() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account directory operations",
	}

	var name, currency string

	registerCmd := &cobra.Command{
		Use:   "register <type> <id>",
		Short: "Register an account in the directory",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/accounts", map[string]any{
				"type":     args[0],
				"id":       args[1],
				"name":     name,
				"currency": currency,
			})
		},
	}
	registerCmd.Flags().StringVar(&name, "name", "", "Display name")
	registerCmd.Flags().StringVar(&currency, "currency", "", "Account currency")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		Run: func(cmd *cobra.Command, args []string) {
			doGet("/api/v1/accounts", nil)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show an account with its balance",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doGet(accountPath(args), nil)
		},
	}

	accountCmd.AddCommand(registerCmd, listCmd, getCmd)

	return accountCmd
}

func ledgerCommands() *cobra.Command {
	var (
		currency string
		reason   string
	)

	balanceCmd := &cobra.Command{
		Use:   "balance <type> <id>",
		Short: "Show the derived balance of an account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doGet(accountPath(args)+"/balance", nil)
		},
	}

	auditCmd := &cobra.Command{
		Use:   "audit <type> <id>",
		Short: "Check an account's derived balance against its last snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			doGet(accountPath(args)+"/audit", nil)
		},
		Args: cobra.ExactArgs(2),
	}

	creditCmd := &cobra.Command{
		Use:   "credit <type> <id> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			doPost(accountPath(args)+"/credit", amountBody(args[2], currency, reason))
		},
	}

	debitCmd := &cobra.Command{
		Use:   "debit <type> <id> <amount>",
		Short: "Debit an account",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			doPost(accountPath(args)+"/debit", amountBody(args[2], currency, reason))
		},
	}

	topupCmd := &cobra.Command{
		Use:   "topup <type> <id> <amount>",
		Short: "Top up an account",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			doPost(accountPath(args)+"/topup", amountBody(args[2], currency, reason))
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <from-type> <from-id> <to-type> <to-id> <amount>",
		Short: "Transfer between two accounts",
		Args:  cobra.ExactArgs(5),
		Run: func(cmd *cobra.Command, args []string) {
			body := amountBody(args[4], currency, reason)
			body["to"] = map[string]string{"type": args[2], "id": args[3]}
			doPost(accountPath(args[:2])+"/transfer", body)
		},
	}

	for _, c := range []*cobra.Command{creditCmd, debitCmd, topupCmd, transferCmd} {
		c.Flags().StringVar(&currency, "currency", "", "Entry currency")
		c.Flags().StringVar(&reason, "reason", "", "Entry reason")
	}

	var (
		direction string
		daysAgo   int
		limit     int
		offset    int
	)

	entriesCmd := &cobra.Command{
		Use:   "entries <type> <id>",
		Short: "List an account's ledger entries",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			query := url.Values{}
			if direction != "" {
				query.Set("direction", direction)
			}
			if daysAgo > 0 {
				query.Set("days_ago", fmt.Sprint(daysAgo))
			}
			if limit > 0 {
				query.Set("limit", fmt.Sprint(limit))
			}
			if offset > 0 {
				query.Set("offset", fmt.Sprint(offset))
			}
			doGet(accountPath(args)+"/entries", query)
		},
	}
	entriesCmd.Flags().StringVar(&direction, "direction", "", "Filter by direction (credit or debit)")
	entriesCmd.Flags().IntVar(&daysAgo, "days-ago", 0, "Only entries from the last N days")
	entriesCmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	entriesCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(balanceCmd, auditCmd, creditCmd, debitCmd, topupCmd, transferCmd, entriesCmd)

	return ledgerCmd
}

func migrateCommands() *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
	)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Database URL")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Migrations directory")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			if err := postgres.RunMigrations(databaseURL, migrationsPath); err != nil {
				fmt.Printf("Migration failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migrations applied")
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			if err := postgres.RunMigrationsDown(databaseURL, migrationsPath); err != nil {
				fmt.Printf("Rollback failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migration rolled back")
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd)

	return migrateCmd
}

func accountPath(args []string) string {
	return "/api/v1/accounts/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
}

func amountBody(amount, currency, reason string) map[string]any {
	body := map[string]any{"amount": amount}
	if currency != "" {
		body["currency"] = currency
	}
	if reason != "" {
		body["reason"] = reason
	}

	return body
}

func doGet(path string, query url.Values) {
	target := baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(target)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func doPost(path string, body map[string]any) {
	payload, err := json.Marshal(body)
	if err != nil {
		fmt.Printf("Error encoding request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	raw, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Write(raw)
	}

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\n%s\n", resp.StatusCode, pretty.String())
		os.Exit(1)
	}

	fmt.Println(pretty.String())
}
