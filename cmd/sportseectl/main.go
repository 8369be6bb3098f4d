// Command sportseectl holds the operator tooling of the sportsee backend:
// password hashing, fixture validation and import, token minting and reports.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// secrets (SPORTSEE_JWT_SECRET, SPORTSEE_DB_PASS) may come from a local .env
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sportseectl",
		Short:         "sportsee backend tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newHashPasswordCmd())
	rootCmd.AddCommand(newValidateFixtureCmd())
	rootCmd.AddCommand(newMintTokenCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newImportFixtureCmd())

	return rootCmd
}
