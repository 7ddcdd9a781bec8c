package http

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/formora_backend/cmd/cli"
	apihttp "github.com/Alijeyrad/formora_backend/internal/api/http"
)

func NewStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the form builder API and run the response and cleanup workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.Config(cmd)
			if err != nil {
				return err
			}
			apihttp.Start(cfg, shutdownTimeout)
			return nil
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long in-flight submissions get to finish on shutdown")
	return cmd
}
