package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/config"
	"quiz-platform-service/internal/infra/postgres"
	"quiz-platform-service/internal/logger"
)

// NewAdminCmd groups account administration commands.
func NewAdminCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "grant <username>",
		Short: "Promote a user to administrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantAdmin(cmd.Context(), *configPath, args[0])
		},
	})
	return cmd
}

func runGrantAdmin(ctx context.Context, configPath, username string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("admin grant needs a database: set DATABASE_URL or postgres.url")
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()

	auth := app.NewAuthService(postgres.NewStore(db), cfg.Auth.JWTSecret, 0, cfg.Auth.BcryptCost)
	if err := auth.GrantAdmin(ctx, username); err != nil {
		return fmt.Errorf("grant admin to %q: %w", username, err)
	}
	log.Info("admin granted", "username", username)
	return nil
}
