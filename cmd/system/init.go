package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/formora_backend/cmd/cli"
	"github.com/Alijeyrad/formora_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the forms and policy databases on the Postgres server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.Config(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			created, err := database.InitializeDatabases(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize databases: %w", err)
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to create")
				return nil
			}
			for _, name := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created database %s\n", name)
			}
			return nil
		},
	}
}
