package system

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/formora_backend/cmd/cli"
	pasetotoken "github.com/Alijeyrad/formora_backend/pkg/paseto"
)

// NewKeygenCommand prints fresh secrets in the shape config.yaml expects.
func NewKeygenCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:         "keygen",
		Short:       "Generate token and encryption keys for config.yaml",
		Annotations: map[string]string{cli.NoConfig: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch pasetotoken.Mode(mode) {
			case pasetotoken.ModeLocal:
				k := pasetotoken.GenerateKeys(pasetotoken.ModeLocal)
				fmt.Fprintf(out, "authentication.paseto.local_key_hex: %s\n", k.Symmetric.ExportHex())
			case pasetotoken.ModePublic:
				k := pasetotoken.GenerateKeys(pasetotoken.ModePublic)
				fmt.Fprintf(out, "authentication.paseto.secret_key_hex: %s\n", k.Secret.ExportHex())
				fmt.Fprintf(out, "authentication.paseto.public_key_hex: %s\n", k.Public.ExportHex())
			default:
				return fmt.Errorf("unknown mode %q (local or public)", mode)
			}

			key := make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				return err
			}
			fmt.Fprintf(out, "authentication.encryption_key: %s\n", hex.EncodeToString(key))
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(pasetotoken.ModeLocal), "paseto mode, local or public")
	return cmd
}
