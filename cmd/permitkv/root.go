package main

import (
	"fmt"

	"github.com/dogmatiq/permitkv/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	// Records and Sets override the configured storage backends when set.
	Records config.Backend
	Sets    config.Backend

	Logger *logrus.Logger
}

// Config loads the configuration file and applies command-line overrides.
func (o *RootOptions) Config() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.Records != "" {
		cfg.Storage.Records = o.Records
	}
	if o.Sets != "" {
		cfg.Storage.Sets = o.Sets
	}

	return cfg, cfg.Validate()
}

// NewRootCommand returns the root permitkv command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		Logger: logrus.New(),
	}

	opts.Logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
	})

	cmd := &cobra.Command{
		Use:           "permitkv",
		Short:         "An access-controlled key/value record store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.Logger.SetOutput(cmd.ErrOrStderr())
			if opts.Verbose {
				opts.Logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", fmt.Sprintf("path to the configuration file (default $%s)", config.EnvVar))
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.Var(&opts.Records, "records-backend", "override the storage backend for records")
	flags.Var(&opts.Sets, "sets-backend", "override the storage backend for the revocation registry")

	cmd.AddCommand(
		newServeCommand(opts),
		newInitCommand(opts),
		newIssuersCommand(opts),
		newKeygenCommand(opts),
		newTokenCommand(opts),
		newPutCommand(opts),
		newGetCommand(opts),
		newShareCommand(opts),
		newDeleteCommand(opts),
		newRevokeCommand(opts),
	)

	return cmd
}
