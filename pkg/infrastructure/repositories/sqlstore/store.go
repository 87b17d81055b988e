// Package sqlstore persists the stock ledger, demands and submitted
// fulfillment records through database/sql, on SQLite or Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/repositories"
)

// Store implements the ledger, demand and submitter interfaces over one database
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Verify interface compliance
var (
	_ repositories.StockLedgerProvider  = (*Store)(nil)
	_ repositories.DemandProvider       = (*Store)(nil)
	_ repositories.FulfillmentSubmitter = (*Store)(nil)
)

// OpenSQLite opens or creates a SQLite database file. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "fulfillment.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return newStore(ctx, db, sqliteDialect)
}

// OpenPostgres connects to Postgres using a pgx DSN
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newStore(ctx, db, postgresDialect)
}

func newStore(ctx context.Context, db *sql.DB, d dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendTransactions records ledger movements for an item
func (s *Store) AppendTransactions(ctx context.Context, itemID entities.ItemID, txs ...entities.StockTransaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		query := s.dialect.rebind(`INSERT INTO stock_transactions (item_id, location_id, location_name, quantity) VALUES (?, ?, ?, ?)`)
		for _, t := range txs {
			if _, err := tx.ExecContext(ctx, query, string(itemID), int64(t.LocationID), t.LocationName, t.Quantity.String()); err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		}
		return nil
	})
}

// SaveDemand inserts or replaces a demand
func (s *Store) SaveDemand(ctx context.Context, demand entities.Demand) error {
	query := s.dialect.rebind(`INSERT INTO demands (demand_id, item_id, requested_qty, approved_qty) VALUES (?, ?, ?, ?)
		ON CONFLICT (demand_id) DO UPDATE SET item_id = excluded.item_id,
			requested_qty = excluded.requested_qty, approved_qty = excluded.approved_qty`)
	if _, err := s.db.ExecContext(ctx, query, string(demand.ID), string(demand.ItemID), int64(demand.RequestedQty), int64(demand.ApprovedQty)); err != nil {
		return fmt.Errorf("save demand: %w", err)
	}
	return nil
}

// FetchTransactions returns the item's transactions in insertion order
func (s *Store) FetchTransactions(ctx context.Context, itemID entities.ItemID) ([]entities.StockTransaction, error) {
	return fetchTransactions(ctx, s.db, s.dialect, itemID)
}

// GetDemand loads a demand by id
func (s *Store) GetDemand(ctx context.Context, demandID entities.DemandID) (*entities.Demand, error) {
	return getDemand(ctx, s.db, s.dialect, demandID, false)
}

// GetApprovedQuantity returns the approved quantity of a demand
func (s *Store) GetApprovedQuantity(ctx context.Context, demandID entities.DemandID) (entities.Quantity, error) {
	demand, err := s.GetDemand(ctx, demandID)
	if err != nil {
		return 0, err
	}
	return demand.ApprovedQty, nil
}

// Records returns the fulfillment records stored for a demand
func (s *Store) Records(ctx context.Context, demandID entities.DemandID) ([]entities.FulfillmentRecord, error) {
	query := s.dialect.rebind(`SELECT channel, location_id, qty FROM fulfillment_records WHERE demand_id = ? ORDER BY seq`)
	rows, err := s.db.QueryContext(ctx, query, string(demandID))
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []entities.FulfillmentRecord{}
	for rows.Next() {
		var (
			channel  sql.NullString
			location sql.NullInt64
			qty      int64
		)
		if err := rows.Scan(&channel, &location, &qty); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if channel.Valid {
			records = append(records, entities.NewChannelRecord(entities.Channel(channel.String), entities.Quantity(qty)))
		} else {
			records = append(records, entities.NewLocationRecord(entities.LocationID(location.Int64), entities.Quantity(qty)))
		}
	}
	return records, rows.Err()
}

// Submit persists the records after re-validating them against the ledger.
// The store is the final authority: the client snapshot may be stale.
func (s *Store) Submit(ctx context.Context, demandID entities.DemandID, records []entities.FulfillmentRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		demand, err := getDemand(ctx, tx, s.dialect, demandID, true)
		if err != nil {
			return err
		}

		var existing int
		countQuery := s.dialect.rebind(`SELECT COUNT(*) FROM fulfillment_records WHERE demand_id = ?`)
		if err := tx.QueryRowContext(ctx, countQuery, string(demandID)).Scan(&existing); err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", repositories.ErrAlreadySubmitted, demandID)
		}

		txs, err := fetchTransactions(ctx, tx, s.dialect, demand.ItemID)
		if err != nil {
			return err
		}
		if err := validateRecords(*demand, records, stockByLocation(txs)); err != nil {
			return err
		}

		insert := s.dialect.rebind(`INSERT INTO fulfillment_records (demand_id, seq, channel, location_id, qty) VALUES (?, ?, ?, ?, ?)`)
		for i, rec := range records {
			var channel sql.NullString
			var location sql.NullInt64
			if rec.Type != nil {
				channel = sql.NullString{String: string(*rec.Type), Valid: true}
			}
			if rec.LocationID != nil {
				location = sql.NullInt64{Int64: int64(*rec.LocationID), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, insert, string(demandID), i, channel, location, int64(rec.Qty)); err != nil {
				return fmt.Errorf("insert record: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func fetchTransactions(ctx context.Context, q queryer, d dialect, itemID entities.ItemID) ([]entities.StockTransaction, error) {
	query := d.rebind(`SELECT location_id, location_name, quantity FROM stock_transactions WHERE item_id = ? ORDER BY id`)
	rows, err := q.QueryContext(ctx, query, string(itemID))
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txs := []entities.StockTransaction{}
	for rows.Next() {
		var (
			locationID int64
			name       string
			quantity   string
		)
		if err := rows.Scan(&locationID, &name, &quantity); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		qty, err := decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("transaction quantity %q: %w", quantity, err)
		}
		txs = append(txs, entities.StockTransaction{
			LocationID:   entities.LocationID(locationID),
			Quantity:     qty,
			LocationName: name,
		})
	}
	return txs, rows.Err()
}

func getDemand(ctx context.Context, q queryer, d dialect, demandID entities.DemandID, lock bool) (*entities.Demand, error) {
	query := `SELECT demand_id, item_id, requested_qty, approved_qty FROM demands WHERE demand_id = ?`
	if lock {
		query += d.lockSuffix
	}

	var (
		id, itemID          string
		requested, approved int64
	)
	err := q.QueryRowContext(ctx, d.rebind(query), string(demandID)).Scan(&id, &itemID, &requested, &approved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrDemandNotFound, demandID)
	}
	if err != nil {
		return nil, fmt.Errorf("select demand: %w", err)
	}
	return &entities.Demand{
		ID:           entities.DemandID(id),
		ItemID:       entities.ItemID(itemID),
		RequestedQty: entities.Quantity(requested),
		ApprovedQty:  entities.Quantity(approved),
	}, nil
}
