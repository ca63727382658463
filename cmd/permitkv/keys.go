package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/spf13/cobra"
)

// loadKey reads an Ed25519 private key written by the keygen command.
func loadKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key has %d bytes, want %d", len(data), ed25519.PrivateKeySize)
	}

	return ed25519.PrivateKey(data), nil
}

// loadToken reads a capability token written by the token mint command.
func loadToken(path string) (*capability.Token, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read token: %w", err)
	}

	return capability.Unmarshal(data)
}

func addressOf(key ed25519.PrivateKey) principal.Principal {
	return principal.FromPublicKey(key.Public().(ed25519.PublicKey))
}

func newKeygenCommand(opts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 key and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, key, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return fmt.Errorf("unable to generate key: %w", err)
			}

			if err := os.WriteFile(out, key, 0o600); err != nil {
				return fmt.Errorf("unable to write private key: %w", err)
			}

			opts.Logger.WithField("path", out).Debug("private key written")
			fmt.Fprintln(cmd.OutOrStdout(), addressOf(key))

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "permitkv.key", "path of the private key file to write")

	return cmd
}
