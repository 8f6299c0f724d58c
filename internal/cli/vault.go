package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s6s-labs/s6s-engine/pkg/config"
	"github.com/s6s-labs/s6s-engine/pkg/vault"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random 256-bit master key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := make([]byte, vault.KeySize)
			if _, err := rand.Read(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
			return nil
		},
	}
}

func newEncryptCmd() *cobra.Command {
	var quantum bool

	cmd := &cobra.Command{
		Use:   "encrypt <secret>",
		Short: "Encrypt a secret into a credential envelope using the configured master key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			v, err := cfg.Vault()
			if err != nil {
				return err
			}

			var envelope string
			if quantum {
				if err := v.GenerateKEMKeyPair(); err != nil {
					return err
				}
				envelope, err = v.EncryptQuantum(args[0])
			} else {
				envelope, err = v.EncryptSecret(args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), envelope)
			return nil
		},
	}

	cmd.Flags().BoolVar(&quantum, "quantum", false, "use the hybrid post-quantum envelope")
	return cmd
}
