package main

import (
	"fmt"

	"github.com/akvora-api/internal/infrastructure/webpush"
	"github.com/spf13/cobra"
)

var vapidKeysCmd = &cobra.Command{
	Use:   "vapid-keys",
	Short: "Generate a VAPID key pair for web push",
	RunE: func(cmd *cobra.Command, args []string) error {
		priv, pub, err := webpush.GenerateKeys()
		if err != nil {
			return fmt.Errorf("generate vapid keys: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", pub)
		fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", priv)
		return nil
	},
}
