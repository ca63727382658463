package main

import (
	"fmt"
	"strconv"

	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/proxy"
	"github.com/dogmatiq/permitkv/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// clientOptions holds the flags shared by the commands that talk to a running
// server.
type clientOptions struct {
	root       *RootOptions
	SocketPath string
	TokenPath  string
}

func (o *clientOptions) register(flags *pflag.FlagSet) {
	flags.StringVarP(&o.SocketPath, "socket", "s", "", "path of the server's socket (default: from the configuration)")
	flags.StringVarP(&o.TokenPath, "token", "t", "permitkv.token", "path of the capability token, empty to call anonymously")
}

func (o *clientOptions) client() (*server.Client, error) {
	if o.SocketPath != "" {
		return &server.Client{SocketPath: o.SocketPath}, nil
	}

	cfg, err := o.root.Config()
	if err != nil {
		return nil, err
	}

	return &server.Client{SocketPath: cfg.SocketPath}, nil
}

func (o *clientOptions) application() (*proxy.Application, error) {
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	return &proxy.Application{Records: c}, nil
}

// visibilityFlag adapts [proxy.Visibility] to [pflag.Value].
type visibilityFlag struct {
	proxy.Visibility
}

func (f *visibilityFlag) Set(s string) error {
	v, err := proxy.ParseVisibility(s)
	if err != nil {
		return err
	}
	f.Visibility = v
	return nil
}

func (f *visibilityFlag) Type() string {
	return "visibility"
}

func parseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: must be an unsigned 32-bit integer", s)
	}
	return uint32(v), nil
}

func newPutCommand(root *RootOptions) *cobra.Command {
	var (
		opts    = clientOptions{root: root}
		vis     = visibilityFlag{proxy.Private}
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseValue(args[1])
			if err != nil {
				return err
			}

			tok, err := loadToken(opts.TokenPath)
			if err != nil {
				return err
			}

			app, err := opts.application()
			if err != nil {
				return err
			}

			if replace {
				return app.Update(cmd.Context(), tok, args[0], v)
			}
			return app.Set(cmd.Context(), tok, args[0], v, vis.Visibility)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().Var(&vis, "visibility", "who may read the value: public, private or protected:<address>")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the value of an existing record")
	cmd.MarkFlagsMutuallyExclusive("visibility", "replace")

	return cmd
}

func newGetCommand(root *RootOptions) *cobra.Command {
	opts := clientOptions{root: root}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadToken(opts.TokenPath)
			if err != nil {
				return err
			}

			app, err := opts.application()
			if err != nil {
				return err
			}

			v, ok, err := app.Get(cmd.Context(), tok, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%q not found", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), v)

			return nil
		},
	}

	opts.register(cmd.Flags())

	return cmd
}

func newShareCommand(root *RootOptions) *cobra.Command {
	var (
		opts   = clientOptions{root: root}
		revoke bool
	)

	cmd := &cobra.Command{
		Use:   "share <key> <address>",
		Short: "Grant another principal read access to a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := principal.Parse(args[1])
			if err != nil {
				return err
			}

			tok, err := loadToken(opts.TokenPath)
			if err != nil {
				return err
			}

			app, err := opts.application()
			if err != nil {
				return err
			}

			return app.Share(cmd.Context(), tok, args[0], p, !revoke)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke read access instead of granting it")

	return cmd
}

func newDeleteCommand(root *RootOptions) *cobra.Command {
	opts := clientOptions{root: root}

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadToken(opts.TokenPath)
			if err != nil {
				return err
			}

			app, err := opts.application()
			if err != nil {
				return err
			}

			return app.Delete(cmd.Context(), tok, args[0])
		},
	}

	opts.register(cmd.Flags())

	return cmd
}

func newRevokeCommand(root *RootOptions) *cobra.Command {
	opts := clientOptions{root: root}

	cmd := &cobra.Command{
		Use:   "revoke <permit-name>",
		Short: "Revoke one of your own permits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadToken(opts.TokenPath)
			if err != nil {
				return err
			}

			c, err := opts.client()
			if err != nil {
				return err
			}

			revoked, err := c.RevokePermit(cmd.Context(), tok, args[0])
			if err != nil {
				return err
			}

			if revoked {
				root.Logger.WithField("permit", args[0]).Info("permit revoked")
			} else {
				root.Logger.WithField("permit", args[0]).Info("permit was already revoked")
			}

			return nil
		},
	}

	opts.register(cmd.Flags())

	return cmd
}
