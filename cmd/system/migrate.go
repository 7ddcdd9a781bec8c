package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/formora_backend/cmd/cli"
	"github.com/Alijeyrad/formora_backend/internal/app"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
	"github.com/Alijeyrad/formora_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users, forms and responses tables and seed the form policies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.Config(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(max(cfg.Server.TimeoutSeconds, 30))*time.Second)
			defer cancel()

			client, err := database.NewRepoClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer client.Close()

			if err := database.Migrate(ctx, client); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			slog.Info("schema migrated", "driver", cfg.Database.Driver)

			auth, cleanup, err := app.OpenAuthorization(cfg)
			if err != nil {
				return fmt.Errorf("open policy store: %w", err)
			}
			defer cleanup(context.Background())

			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("seed policies: %w", err)
			}
			slog.Info("form policies seeded")
			return nil
		},
	}
}
