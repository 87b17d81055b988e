// Package commands implements the fulfill command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vsinha/fulfillment/pkg/config"
	"github.com/vsinha/fulfillment/pkg/interfaces/cli/output"
)

// RootOptions holds global flags and the state every command shares
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string

	Config config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the fulfill CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.Default(), Logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "fulfill",
		Short: "Allocate approved demand across stock locations and external channels",
		Long: `fulfill sources the approved quantity of a demand from per-location stock
and external procurement channels, and submits the resulting fulfillment records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !output.IsValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, output.Formats))
			}
			if opts.ConfigPath != "" {
				cfg, err := config.Load(opts.ConfigPath)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load config", err)
				}
				opts.Config = cfg
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.Config.Log, opts.Verbose)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to configure logging", err)
			}
			opts.Logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|csv)")

	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewAllocateCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *output.Formatter {
	return &output.Formatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// reportError writes the structured error body in JSON mode; text mode
// errors are printed once by main.
func (o *RootOptions) reportError(out *output.Formatter, err error) {
	if o.Format == "json" {
		_ = out.Error(err)
	}
}

func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}
