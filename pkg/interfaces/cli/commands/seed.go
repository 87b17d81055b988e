package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/fulfillment/pkg/config"
)

// SeedOptions holds flags for the seed command
type SeedOptions struct {
	*RootOptions
	DataDir string
}

// NewSeedCommand creates the seed command
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load CSV transactions and demands into the SQL store",
		Long: `Append transactions.csv and upsert demands.csv into the sqlite or postgres
store named by the config. Transactions are appended, so seeding the same
directory twice doubles its stock.

Example:
  fulfill seed --config fulfill.yaml --data ./scenario`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "scenario directory (defaults to data.dir)")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	ctx := cmd.Context()
	cfg := opts.Config
	if cfg.Storage.Driver == config.DriverMemory {
		return NewExitError(ExitCommandError, "seed needs storage.driver sqlite or postgres")
	}
	dir := opts.DataDir
	if dir == "" {
		dir = cfg.Data.Dir
	}
	if dir == "" {
		return NewExitError(ExitCommandError, "no data directory: use --data or set data.dir")
	}

	data, err := loadDataDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer store.Close()

	var transactions int
	for itemID, txs := range data.transactions {
		if err := store.AppendTransactions(ctx, itemID, txs...); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to store transactions for %s", itemID), err)
		}
		transactions += len(txs)
	}
	for _, demand := range data.demands {
		if err := store.SaveDemand(ctx, *demand); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to store demand %s", demand.ID), err)
		}
	}

	opts.Logger.Info("store seeded", "driver", cfg.Storage.Driver, "transactions", transactions, "demands", len(data.demands))
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d transactions and %d demands\n", transactions, len(data.demands))
	return nil
}
