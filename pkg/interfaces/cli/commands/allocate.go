package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// AllocateOptions holds flags for the allocate command
type AllocateOptions struct {
	*RootOptions
	DemandID string
	PlanPath string
	Submit   bool
}

// NewAllocateCommand creates the allocate command
func NewAllocateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AllocateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Replay a scripted allocation plan for a demand",
		Long: `Open an allocation session for a demand, apply every step of a YAML plan
and print the resulting plan. With --submit the fulfillment records are
persisted to the configured store.

Plan file:
  demand: D-1001
  steps:
    - {op: add_location, location_id: 3, qty: 40}
    - {op: edit_location, location_id: 3, qty: 35}
    - {op: set_external, channel: po, qty: 5}

Example:
  fulfill allocate --demand D-1001 --plan plan.yaml --submit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DemandID, "demand", "", "demand id (defaults to the plan file's demand)")
	cmd.Flags().StringVar(&opts.PlanPath, "plan", "", "path to YAML plan file (required)")
	cmd.Flags().BoolVar(&opts.Submit, "submit", false, "submit the fulfillment records")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runAllocate(cmd *cobra.Command, opts *AllocateOptions) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	plan, err := LoadPlanFile(opts.PlanPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid plan", err)
	}
	demandID := opts.DemandID
	if demandID == "" {
		demandID = plan.Demand
	}
	if demandID == "" {
		return NewExitError(ExitCommandError, "no demand given: use --demand or set demand in the plan file")
	}

	b, err := openBackend(ctx, opts.Config, opts.Logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer b.Close()

	sess, err := b.sessions(opts.Config, opts.Logger).Open(ctx, entities.DemandID(demandID))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open session", err)
	}

	for i, step := range plan.Steps {
		if err := step.Apply(sess); err != nil {
			opts.reportError(out, err)
			return WrapExitError(ExitFailure, fmt.Sprintf("step %d (%s) rejected", i+1, step.Op), err)
		}
	}

	if !opts.Submit {
		return out.View(sess.View())
	}

	records, err := sess.Submit(ctx)
	if err != nil {
		opts.reportError(out, err)
		return WrapExitError(ExitFailure, "submission failed", err)
	}
	return out.Records(sess.Demand().ID, records)
}
