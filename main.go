package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shandysiswandi/goshen/internal/app"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "goshen",
		Short: "PIN second factor service",
		Long: `Goshen issues and verifies short-lived email PINs for signed-in
identities and gates account and admin pages until the PIN is verified.`,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return serve(configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML), defaults to $CONFIG_PATH or ./config/config.yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the notification consumer",
		RunE: func(*cobra.Command, []string) error {
			return serve(configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return app.Migrate(ctx, configPath)
		},
	})

	cmd.AddCommand(tokenCmd(&configPath))

	return cmd
}

func tokenCmd(configPath *string) *cobra.Command {
	var identity jwt.Identity

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := app.IssueToken(*configPath, identity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&identity.ID, "id", "", "Identity id (sub claim)")
	cmd.Flags().StringVar(&identity.Email, "email", "", "Email the PIN is sent to")
	cmd.Flags().StringVar(&identity.Role, "role", "", "Role stored in app_metadata")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func serve(configPath string) error {
	application := app.New(configPath) // Initialize the application
	wait := application.Start()        // Start the application and wait for the termination signal
	<-wait                             // Wait for the application to receive a termination signal

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully

	return nil
}
