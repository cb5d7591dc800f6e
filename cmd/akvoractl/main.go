// akvoractl is the operator CLI for the AKVORA API: table bootstrap, VAPID
// key generation and admin seeding.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/akvora-api/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "akvoractl",
	Short: "akvoractl - AKVORA API operator tool",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, reading from environment")
		}
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(bootstrapCmd, vapidKeysCmd, createAdminCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
