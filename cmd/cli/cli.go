// Package cli holds the plumbing shared by every subcommand: reading the
// config file named by --config and installing the process logger.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/pkg/logs"
)

// NoConfig is a command annotation for commands that run without a config
// file, such as doc and key generation.
const NoConfig = "formora.no-config"

type ctxKey struct{}

var flush = func() {}

// Setup is the root PersistentPreRunE.
func Setup(cmd *cobra.Command, _ []string) error {
	if _, skip := cmd.Annotations[NoConfig]; skip {
		return nil
	}
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.ReadConfig(filepath.Dir(path))
	if err != nil {
		return err
	}

	logger, f := logs.New(cfg)
	slog.SetDefault(logger)
	flush = f

	cmd.SetContext(context.WithValue(cmd.Context(), ctxKey{}, cfg))
	return nil
}

// Config returns the config loaded by Setup.
func Config(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(ctxKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("config not loaded")
	}
	return cfg, nil
}

// Flush drains buffered log outputs. Call it once before exit.
func Flush() { flush() }
