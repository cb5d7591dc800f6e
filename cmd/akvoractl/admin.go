package main

import (
	"errors"
	"fmt"

	"github.com/akvora-api/internal/application/idissuer"
	"github.com/akvora-api/internal/application/user"
	"github.com/akvora-api/internal/infrastructure/awsconf"
	"github.com/akvora-api/internal/infrastructure/dynamo"
	"github.com/spf13/cobra"
)

var (
	adminEmail     string
	adminPassword  string
	adminFirstName string
	adminLastName  string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account that can sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" || adminPassword == "" {
			return errors.New("--email and --password are required")
		}
		awsCfg, err := awsconf.Load(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		client := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
		svc := user.NewService(user.ServiceDeps{
			UserRepo: dynamo.NewUserRepo(client, cfg.DynamoTables.Users),
			Issuer:   idissuer.New(dynamo.NewCounterRepo(client, cfg.DynamoTables.Counters)),
		})
		u, err := svc.CreateAdmin(cmd.Context(), adminEmail, adminPassword, adminFirstName, adminLastName)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", u.Email, u.UserID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminEmail, "email", "", "admin email address")
	f.StringVar(&adminPassword, "password", "", "admin password (min 8 characters)")
	f.StringVar(&adminFirstName, "first-name", "Admin", "first name")
	f.StringVar(&adminLastName, "last-name", "", "last name")
}
