package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dogmatiq/permitkv/auth"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/deployment"
	"github.com/dogmatiq/permitkv/marshaler"
	"github.com/dogmatiq/permitkv/record"
	"github.com/dogmatiq/permitkv/server"
	"github.com/dogmatiq/permitkv/set"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the record store on a Unix socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := opts.Config()
			if err != nil {
				return err
			}

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

			dep, err := repo.Load(ctx)
			if errors.Is(err, deployment.ErrNotConfigured) {
				return errors.New("the deployment has not been configured, run 'permitkv init' first")
			} else if err != nil {
				return err
			}

			records, err := record.Open(ctx, s.KV)
			if err != nil {
				return err
			}
			defer records.Close()

			registry := &capability.Registry{
				Store: set.NewMarshalingStore(s.Sets, marshaler.String),
			}

			svc := &server.Service{
				Authenticator: &auth.Authenticator{
					Verifier:      &capability.SignatureVerifier{Registry: registry},
					RevocationKey: cfg.RevocationKey,
				},
				Records:        records,
				Registry:       registry,
				TrustedIssuers: dep.TrustedIssuers,
				Telemetry:      s.Telemetry,
			}

			opts.Logger.
				WithField("socket", cfg.SocketPath).
				WithField("owner", dep.Owner).
				WithField("trusted_issuers", len(dep.TrustedIssuers)).
				Info("serving")

			err = server.
				NewServiceSocketServer(cfg.SocketPath, svc, opts.Logger).
				Serve(ctx)

			if ctx.Err() != nil {
				opts.Logger.Info("shutting down")
				return nil
			}

			return err
		},
	}
}
