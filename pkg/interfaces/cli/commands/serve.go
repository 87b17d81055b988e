package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vsinha/fulfillment/pkg/application/services/activity"
	"github.com/vsinha/fulfillment/pkg/infrastructure/events"
	"github.com/vsinha/fulfillment/pkg/infrastructure/metrics"
	"github.com/vsinha/fulfillment/pkg/interfaces/api"
)

// ServeOptions holds flags for the serve command
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve allocation sessions over HTTP",
		Long: `Start the HTTP API for allocation sessions. Metrics are exposed at /metrics.

Example:
  fulfill serve --config fulfill.yaml --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (defaults to server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, opts.Config, opts.Logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer b.Close()

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	store := events.NewInMemoryEventStore().WithLogger(opts.Logger)
	tracker := activity.NewTracker()
	if err := tracker.Attach(store); err != nil {
		return WrapExitError(ExitCommandError, "failed to subscribe activity tracker", err)
	}
	sessions := b.sessions(opts.Config, opts.Logger).
		WithEvents(store).
		WithMetrics(m)

	addr := opts.Addr
	if addr == "" {
		addr = opts.Config.Server.Addr
	}
	if err := api.NewServer(sessions, reg, opts.Logger).WithActivity(tracker).ListenAndServe(ctx, addr); err != nil {
		return WrapExitError(ExitFailure, "http server error", err)
	}
	opts.Logger.Info("server stopped gracefully")
	return nil
}
