package commands

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// GenerateOptions holds flags for scenario generation
type GenerateOptions struct {
	*RootOptions
	Items     int
	Locations int
	Demands   int
	Coverage  float64 // stock relative to approved demand, e.g. 0.5 = half coverage
	OutputDir string
	Seed      uint64
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a CSV scenario of stock transactions and demands",
		Long: `Write transactions.csv and demands.csv into an output directory.

Examples:
  # Small scenario with half the approved demand covered by stock
  fulfill generate --items 5 --locations 4 --demands 10 --coverage 0.5 --output ./scenario

  # Reproducible scenario
  fulfill generate --items 50 --demands 200 --output ./scenario --seed 12345`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Items, "items", 5, "number of items")
	cmd.Flags().IntVar(&opts.Locations, "locations", 4, "number of stock locations")
	cmd.Flags().IntVar(&opts.Demands, "demands", 10, "number of demands")
	cmd.Flags().Float64Var(&opts.Coverage, "coverage", 1.0, "stock relative to approved demand")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "output directory (required)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	if opts.Items <= 0 || opts.Locations <= 0 || opts.Demands < 0 || opts.Coverage < 0 {
		return NewExitError(ExitCommandError, "items and locations must be positive; demands and coverage cannot be negative")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	gen := &scenarioGenerator{opts: opts, rand: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))}
	approved, err := gen.generateDemands()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write demands", err)
	}
	if err := gen.generateTransactions(approved); err != nil {
		return WrapExitError(ExitCommandError, "failed to write transactions", err)
	}

	opts.Logger.Info("scenario generated", "dir", opts.OutputDir, "items", opts.Items, "demands", opts.Demands)
	fmt.Fprintf(cmd.OutOrStdout(), "Scenario written to %s\n", opts.OutputDir)
	return nil
}

type scenarioGenerator struct {
	opts *GenerateOptions
	rand *rand.Rand
}

func (g *scenarioGenerator) itemID(i int) string {
	return fmt.Sprintf("ITEM-%03d", i+1)
}

// generateDemands writes demands.csv and returns approved quantity per item
func (g *scenarioGenerator) generateDemands() ([]int64, error) {
	file, err := os.Create(filepath.Join(g.opts.OutputDir, "demands.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	fmt.Fprintln(file, "demand_id,item_id,requested_qty,approved_qty")

	approved := make([]int64, g.opts.Items)
	for i := 0; i < g.opts.Demands; i++ {
		item := g.rand.IntN(g.opts.Items)
		requested := 1 + g.rand.Int64N(100)
		// most demands are approved in full, some are cut back
		qty := requested
		if g.rand.IntN(4) == 0 {
			qty = g.rand.Int64N(requested + 1)
		}
		approved[item] += qty

		if _, err := fmt.Fprintf(file, "D-%04d,%s,%d,%d\n", i+1, g.itemID(item), requested, qty); err != nil {
			return nil, err
		}
	}
	return approved, nil
}

// generateTransactions spreads stock across locations as receipts followed
// by occasional issues, so some locations end at zero or below.
func (g *scenarioGenerator) generateTransactions(approved []int64) error {
	file, err := os.Create(filepath.Join(g.opts.OutputDir, "transactions.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(file, "item_id,location_id,location_name,quantity")

	for item, demand := range approved {
		target := int64(float64(demand) * g.opts.Coverage)
		for loc := 1; loc <= g.opts.Locations; loc++ {
			share := target / int64(g.opts.Locations)
			if loc == 1 {
				share += target % int64(g.opts.Locations)
			}
			receipt := share + g.rand.Int64N(5)
			if _, err := fmt.Fprintf(file, "%s,%d,%s,%d\n", g.itemID(item), loc, locationName(loc), receipt); err != nil {
				return err
			}
			if g.rand.IntN(3) == 0 {
				issue := g.rand.Int64N(receipt + 3)
				if _, err := fmt.Fprintf(file, "%s,%d,,%d\n", g.itemID(item), loc, -issue); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func locationName(loc int) string {
	names := []string{"WAREHOUSE_1", "WAREHOUSE_2", "STORE_NORTH", "STORE_SOUTH", "DEPOT_EAST", "DEPOT_WEST"}
	if loc <= len(names) {
		return names[loc-1]
	}
	return fmt.Sprintf("LOCATION_%d", loc)
}
