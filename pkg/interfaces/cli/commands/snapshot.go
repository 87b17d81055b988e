package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/ledger"
)

// SnapshotOptions holds flags for the snapshot command
type SnapshotOptions struct {
	*RootOptions
	ItemID string
}

// NewSnapshotCommand creates the snapshot command
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show current stock per location for an item",
		Long: `Aggregate the stock ledger of one item into per-location stock.

Example:
  fulfill snapshot --item WIDGET-7
  fulfill snapshot --item WIDGET-7 --format csv --config fulfill.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ItemID, "item", "", "item id (required)")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

func runSnapshot(cmd *cobra.Command, opts *SnapshotOptions) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, opts.Config, opts.Logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer b.Close()

	itemID := entities.ItemID(opts.ItemID)
	txs, err := b.ledger.FetchTransactions(ctx, itemID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fetch stock", err)
	}
	return opts.formatter(cmd).Snapshot(itemID, ledger.Aggregate(txs))
}
