// Package main is the entry point for crpt-cli, which submits introduce-goods
// documents to CRPT through the same rate-limited client as the API.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	commands "crptapi/cmd/crpt-cli/internal/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "crpt-cli",
		Short: "CRPT document submission tool",
		Long: `crpt-cli creates "introduce goods" documents in the CRPT ISMP API.

Connection settings are read from the environment (a .env file is loaded if present):
- CRPT_BASE_URL, CRPT_API_VERSION, CRPT_TOKEN
- CRPT_REQUEST_LIMIT, CRPT_TIME_UNIT, CRPT_TIMEOUT_SEC
Flags override the environment.`,
		SilenceUsage: true,
	}

	commands.InitDocumentCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}
