package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dogmatiq/permitkv/deployment"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/spf13/cobra"
)

// saveDeployment loads the existing deployment configuration (if any), applies
// fn and saves the result on behalf of the key at keyPath.
func saveDeployment(
	ctx context.Context,
	opts *RootOptions,
	keyPath string,
	fn func(caller principal.Principal, c *deployment.Config),
) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	key, err := loadKey(keyPath)
	if err != nil {
		return err
	}
	caller := addressOf(key)

	s, err := openStorage(ctx, cfg, opts.Logger)
	if err != nil {
		return err
	}
	defer s.Close()

	repo, err := deployment.Open(ctx, s.KV)
	if err != nil {
		return err
	}
	defer repo.Close()

	c, err := repo.Load(ctx)
	if err != nil && !errors.Is(err, deployment.ErrNotConfigured) {
		return err
	}

	fn(caller, &c)

	if err := repo.Save(ctx, caller, c); err != nil {
		return err
	}

	opts.Logger.WithField("owner", c.Owner).Info("deployment configuration saved")

	return nil
}

func newInitCommand(opts *RootOptions) *cobra.Command {
	var (
		keyPath string
		issuers []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Record the deployment owner and trusted issuers",
		Long: `Record the deployment configuration.

The owner is the address of the given key. If the deployment has already been
configured, the key must belong to the existing owner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iss, err := principal.ParseAll(issuers...)
			if err != nil {
				return err
			}

			return saveDeployment(
				cmd.Context(),
				opts,
				keyPath,
				func(caller principal.Principal, c *deployment.Config) {
					c.Owner = caller
					c.TrustedIssuers = iss
				},
			)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&keyPath, "key", "k", "permitkv.key", "path of the owner's key")
	flags.StringSliceVar(&issuers, "issuer", nil, "address of a trusted issuer, in order of preference (repeatable)")

	return cmd
}

func newIssuersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issuers",
		Short: "Manage the trusted issuers",
	}

	var keyPath string

	set := &cobra.Command{
		Use:   "set <address>...",
		Short: "Replace the list of trusted issuers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iss, err := principal.ParseAll(args...)
			if err != nil {
				return err
			}

			return saveDeployment(
				cmd.Context(),
				opts,
				keyPath,
				func(caller principal.Principal, c *deployment.Config) {
					if c.Owner.IsAnonymous() {
						c.Owner = caller
					}
					c.TrustedIssuers = iss
				},
			)
		},
	}
	set.Flags().StringVarP(&keyPath, "key", "k", "permitkv.key", "path of the owner's key")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the trusted issuers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}

			s, err := openStorage(cmd.Context(), cfg, opts.Logger)
			if err != nil {
				return err
			}
			defer s.Close()

			repo, err := deployment.Open(cmd.Context(), s.KV)
			if err != nil {
				return err
			}
			defer repo.Close()

			c, err := repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "owner: %s\n", c.Owner)
			for _, p := range c.TrustedIssuers {
				fmt.Fprintf(cmd.OutOrStdout(), "issuer: %s\n", p)
			}

			return nil
		},
	}

	cmd.AddCommand(set, show)

	return cmd
}
