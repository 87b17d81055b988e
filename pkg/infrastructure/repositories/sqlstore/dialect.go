package sqlstore

import (
	"fmt"
	"strings"
)

// dialect captures the few statement differences between SQLite and Postgres
type dialect struct {
	driver     string
	serialPK   string
	lockSuffix string
	numbered   bool
}

var (
	sqliteDialect = dialect{
		driver:   "sqlite",
		serialPK: "INTEGER PRIMARY KEY AUTOINCREMENT",
	}
	postgresDialect = dialect{
		driver:     "pgx",
		serialPK:   "BIGSERIAL PRIMARY KEY",
		lockSuffix: " FOR UPDATE",
		numbered:   true,
	}
)

// rebind rewrites ? placeholders to $n for dialects that need numbered parameters
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS stock_transactions (
			id %s,
			item_id TEXT NOT NULL,
			location_id BIGINT NOT NULL,
			location_name TEXT NOT NULL DEFAULT '',
			quantity TEXT NOT NULL
		)`, d.serialPK),
		`CREATE INDEX IF NOT EXISTS idx_stock_transactions_item ON stock_transactions (item_id, location_id)`,
		`CREATE TABLE IF NOT EXISTS demands (
			demand_id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			requested_qty BIGINT NOT NULL,
			approved_qty BIGINT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fulfillment_records (
			id %s,
			demand_id TEXT NOT NULL REFERENCES demands (demand_id),
			seq INTEGER NOT NULL,
			channel TEXT,
			location_id BIGINT,
			qty BIGINT NOT NULL
		)`, d.serialPK),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_fulfillment_records_seq ON fulfillment_records (demand_id, seq)`,
	}
}
