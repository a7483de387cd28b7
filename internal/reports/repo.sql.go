package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the reporting views from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const summaryColumns = `"Item Name", "Warehouse", "Date",
	COALESCE("On Hand: Total",0), COALESCE("On Hand: Stock",0),
	COALESCE("On Hand: Consignment",0), COALESCE("On Hand: Hold",0),
	COALESCE("Inbound: Total",0), COALESCE("Inbound: Stock",0),
	COALESCE("Inbound: Consignment",0), COALESCE("Inbound: Hold",0),
	COALESCE("Scheduled Outbound: Total",0), COALESCE("Scheduled Outbound: Stock",0),
	COALESCE("Scheduled Outbound: Consign",0), COALESCE("Scheduled Outbound: Hold",0),
	COALESCE("Future Inventory: Total",0), COALESCE("Future Inventory: Stock",0),
	COALESCE("Future Inventory: Consign",0), COALESCE("Future Inventory: Hold",0)`

// InventorySummaries reads inventory_view with optional filters.
func (r *Repository) InventorySummaries(ctx context.Context, filter SummaryFilter) ([]InventorySummary, error) {
	var conditions []string
	var args []any
	if filter.Item != "" {
		args = append(args, filter.Item)
		conditions = append(conditions, fmt.Sprintf(`"Item Name"=$%d`, len(args)))
	}
	if len(filter.Items) > 0 {
		args = append(args, filter.Items)
		conditions = append(conditions, fmt.Sprintf(`"Item Name"=ANY($%d)`, len(args)))
	}
	if filter.Warehouse != "" {
		args = append(args, filter.Warehouse)
		conditions = append(conditions, fmt.Sprintf(`"Warehouse"=$%d`, len(args)))
	}
	if filter.NegativeOnly {
		conditions = append(conditions, `COALESCE("On Hand: Total",0) < 0`)
	}

	query := `SELECT ` + summaryColumns + ` FROM inventory_view`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InventorySummary
	for rows.Next() {
		var s InventorySummary
		if err := rows.Scan(&s.ItemName, &s.Warehouse, &s.Date,
			&s.OnHand.Total, &s.OnHand.Stock, &s.OnHand.Consign, &s.OnHand.Hold,
			&s.Inbound.Total, &s.Inbound.Stock, &s.Inbound.Consign, &s.Inbound.Hold,
			&s.ScheduledOutbound.Total, &s.ScheduledOutbound.Stock,
			&s.ScheduledOutbound.Consign, &s.ScheduledOutbound.Hold,
			&s.FutureInventory.Total, &s.FutureInventory.Stock,
			&s.FutureInventory.Consign, &s.FutureInventory.Hold); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const transactionColumns = `transaction_id, transaction_type, transaction_date,
	COALESCE(reference_number,''), COALESCE(warehouse,''),
	COALESCE(customer_name,''), COALESCE(customer_po,''),
	COALESCE(shipment_carrier,''), COALESCE(shipping_document,''),
	COALESCE(header_comments,''), COALESCE(detail_id::text,''),
	COALESCE(item_name,''), COALESCE(quantity,0),
	COALESCE(inventory_status,''), COALESCE(detail_status,''),
	COALESCE(lot_number,''), COALESCE(detail_comments,'')`

// Transactions reads vw_transaction_full with optional filters, newest
// first. The optional limit caps the row count; zero means no cap.
func (r *Repository) Transactions(ctx context.Context, filter TransactionFilter, limit int) ([]TransactionRow, error) {
	var conditions []string
	var args []any
	if filter.Item != "" {
		args = append(args, filter.Item)
		conditions = append(conditions, fmt.Sprintf(`item_name=$%d`, len(args)))
	}
	if len(filter.Items) > 0 {
		args = append(args, filter.Items)
		conditions = append(conditions, fmt.Sprintf(`item_name=ANY($%d)`, len(args)))
	}
	if filter.Warehouse != "" {
		args = append(args, filter.Warehouse)
		conditions = append(conditions, fmt.Sprintf(`warehouse=$%d`, len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM vw_transaction_full`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY transaction_date DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(&t.TransactionID, &t.TransactionType, &t.TransactionDate,
			&t.ReferenceNumber, &t.Warehouse, &t.CustomerName, &t.CustomerPO,
			&t.ShipmentCarrier, &t.ShippingDocument, &t.Comments, &t.DetailID,
			&t.ItemName, &t.Quantity, &t.InventoryStatus, &t.Status,
			&t.LotNumber, &t.DetailComments); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ItemsForProduct lists the item names belonging to one product.
func (r *Repository) ItemsForProduct(ctx context.Context, productName string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_name FROM item WHERE product_name=$1 ORDER BY item_name`, productName)
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

// ManualQuery runs a query produced by the manual report builder.
func (r *Repository) ManualQuery(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(map[string]any, len(fields))
		for i, f := range fields {
			record[string(f.Name)] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
