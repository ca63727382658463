package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage capability tokens",
	}

	cmd.AddCommand(newTokenMintCommand(opts))

	return cmd
}

func newTokenMintCommand(opts *RootOptions) *cobra.Command {
	var (
		keyPath string
		name    string
		issuers []string
		ttl     time.Duration
		out     string
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a new capability token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey(keyPath)
			if err != nil {
				return err
			}

			iss, err := principal.ParseAll(issuers...)
			if err != nil {
				return err
			}

			if name == "" {
				name = uuid.NewString()
			}

			now := time.Now()
			permit := capability.Permit{
				Name:        name,
				Issuers:     iss,
				Permissions: []string{capability.PermissionAccess},
				IssuedAt:    now.Unix(),
			}
			if ttl > 0 {
				permit.ExpiresAt = now.Add(ttl).Unix()
			}

			tok, err := capability.Sign(key, permit)
			if err != nil {
				return err
			}

			data, err := capability.Marshal(tok)
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("unable to write token: %w", err)
			}

			opts.Logger.WithField("path", out).Debug("token written")
			fmt.Fprintln(cmd.OutOrStdout(), name)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&keyPath, "key", "k", "permitkv.key", "path of the signing key")
	flags.StringVar(&name, "name", "", "name of the permit (default: a random UUID)")
	flags.StringSliceVar(&issuers, "issuer", nil, "address of an issuer the token may be presented to (repeatable)")
	flags.DurationVar(&ttl, "ttl", 0, "lifetime of the token (default: no expiry)")
	flags.StringVarP(&out, "out", "o", "permitkv.token", "path of the token file to write")
	_ = cmd.MarkFlagRequired("issuer")

	return cmd
}
