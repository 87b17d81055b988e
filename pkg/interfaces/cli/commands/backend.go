package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/config"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
	"github.com/vsinha/fulfillment/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/fulfillment/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/fulfillment/pkg/infrastructure/repositories/sqlstore"
)

// backend is the storage selected by storage.driver
type backend struct {
	ledger    repositories.StockLedgerProvider
	demands   repositories.DemandProvider
	submitter repositories.FulfillmentSubmitter
	store     *sqlstore.Store
}

func (b *backend) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

func (b *backend) sessions(cfg config.Config, logger *slog.Logger) *session.Service {
	return session.NewService(b.ledger, b.demands, b.submitter, session.Options{
		RevalidateBeforeSubmit: cfg.Allocation.RevalidateBeforeSubmit,
		HideEmptyLocations:     cfg.Allocation.HideEmptyLocations,
	}).WithLogger(logger)
}

// openBackend connects the configured store. The memory driver is seeded
// from data.dir on every start; SQL stores are seeded with `fulfill seed`.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		store, err := openStore(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		logger.Debug("storage ready", "driver", cfg.Storage.Driver)
		return &backend{ledger: store, demands: store, submitter: store, store: store}, nil
	}

	ledger := memory.NewStockLedger()
	demands := memory.NewDemandRepository()
	if cfg.Data.Dir != "" {
		data, err := loadDataDir(cfg.Data.Dir)
		if err != nil {
			return nil, err
		}
		if err := ledger.LoadTransactions(data.transactions); err != nil {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}
		if err := demands.LoadDemands(data.demands); err != nil {
			return nil, fmt.Errorf("failed to load demands: %w", err)
		}
		logger.Debug("memory storage seeded", "dir", cfg.Data.Dir, "items", ledger.Items(), "demands", len(data.demands))
	}
	return &backend{ledger: ledger, demands: demands, submitter: memory.NewSubmitter()}, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (*sqlstore.Store, error) {
	if cfg.Driver == config.DriverPostgres {
		return sqlstore.OpenPostgres(ctx, cfg.DSN)
	}
	return sqlstore.OpenSQLite(ctx, cfg.DSN)
}

type dataSet struct {
	transactions map[entities.ItemID][]entities.StockTransaction
	demands      []*entities.Demand
}

// loadDataDir reads transactions.csv and demands.csv from dir
func loadDataDir(dir string) (*dataSet, error) {
	files := map[string]string{
		"Transactions": filepath.Join(dir, "transactions.csv"),
		"Demands":      filepath.Join(dir, "demands.csv"),
	}
	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
	}

	loader := csv.NewLoader()
	transactions, err := loader.LoadTransactions(files["Transactions"])
	if err != nil {
		return nil, fmt.Errorf("error loading transactions: %w", err)
	}
	demands, err := loader.LoadDemands(files["Demands"])
	if err != nil {
		return nil, fmt.Errorf("error loading demands: %w", err)
	}
	return &dataSet{transactions: transactions, demands: demands}, nil
}
