package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads inventory data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SnapshotRows returns all snapshot view rows for a warehouse at or before
// asOf, ordered so the first row seen per item is the most recent one.
func (r *Repository) SnapshotRows(ctx context.Context, warehouse string, asOf time.Time) ([]SnapshotRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_name, warehouse, transaction_date,
			COALESCE("On Hand: Stock",0), COALESCE("On Hand: Consign",0), COALESCE("On Hand: Hold",0)
		 FROM transactions_inventory_snapshot_by_date
		 WHERE warehouse=$1 AND transaction_date<=$2
		 ORDER BY item_name ASC, transaction_date DESC`,
		warehouse, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		if err := rows.Scan(&row.ItemName, &row.Warehouse, &row.TransactionDate,
			&row.OnHandStock, &row.OnHandConsign, &row.OnHandHold); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UOMByItem maps item names to their pack size's uom_per_each. Items whose
// pack size defines no multiplier map to nil.
func (r *Repository) UOMByItem(ctx context.Context) (map[string]*float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.item_name, p.uom_per_each
		 FROM item i
		 LEFT JOIN pack_size p ON p.pack_size = i.pack_size`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*float64)
	for rows.Next() {
		var name string
		var uom *float64
		if err := rows.Scan(&name, &uom); err != nil {
			return nil, err
		}
		out[name] = uom
	}
	return out, rows.Err()
}

// ItemNames returns every item name.
func (r *Repository) ItemNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT item_name FROM item ORDER BY item_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SearchItems returns item names containing the fragment, case-insensitive.
func (r *Repository) SearchItems(ctx context.Context, fragment string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_name FROM item WHERE item_name ILIKE '%' || $1 || '%' ORDER BY item_name`,
		fragment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// WarehouseNames returns every warehouse common name.
func (r *Repository) WarehouseNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT "Common Name" FROM warehouse ORDER BY "Common Name"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Movements streams every detail line joined with its header in chronological
// order, inbound sorted before outbound on ties, for the calculator fold.
func (r *Repository) Movements(ctx context.Context) ([]Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT h.transaction_type, h.transaction_date, COALESCE(h.warehouse,''),
			d.item_name, COALESCE(d.quantity,0), COALESCE(d.inventory_status,'Stock'),
			COALESCE(d.status,'')
		 FROM transaction_header h
		 JOIN transaction_detail d ON d.transaction_id = h.transaction_id
		 ORDER BY h.transaction_date ASC,
			CASE h.transaction_type WHEN 'Inbound' THEN 0 WHEN 'Outbound' THEN 1 ELSE 2 END`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.TransactionType, &m.TransactionDate, &m.Warehouse,
			&m.ItemName, &m.Quantity, &m.InventoryStatus, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
