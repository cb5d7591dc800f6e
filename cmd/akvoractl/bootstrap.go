package main

import (
	"fmt"

	"github.com/akvora-api/internal/infrastructure/awsconf"
	"github.com/akvora-api/internal/infrastructure/dynamo"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the DynamoDB tables, indexes and TTL settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		awsCfg, err := awsconf.Load(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		dynamo.Bootstrap(cmd.Context(), dynamo.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.DynamoTables)
		fmt.Fprintln(cmd.OutOrStdout(), "tables ready")
		return nil
	},
}
