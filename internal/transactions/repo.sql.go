package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warelane/warelane/internal/platform/db"
)

// Repository persists transaction data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LastReference returns the highest existing reference number for a prefix
// using a reverse lexicographic scan, or "" when none exist.
func (r *Repository) LastReference(ctx context.Context, prefix string) (string, error) {
	var ref string
	err := r.pool.QueryRow(ctx,
		`SELECT reference_number FROM transaction_header
		 WHERE reference_number ILIKE $1
		 ORDER BY reference_number DESC
		 LIMIT 1`, prefix+"%").Scan(&ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return ref, nil
}

// InsertHeader writes a new transaction_header row.
func (r *Repository) InsertHeader(ctx context.Context, h Header) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transaction_header (
			transaction_id, transaction_type, transaction_date, warehouse,
			reference_type, reference_number, shipment_carrier, shipping_document,
			customer_po, customer_name, comments, related_transaction_id,
			created_by, last_edited_by, created_at, last_edited_at
		) VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,NULLIF($7,''),NULLIF($8,''),
			NULLIF($9,''),NULLIF($10,''),NULLIF($11,''),NULLIF($12,''),
			NULLIF($13,''),NULLIF($14,''),NOW(),NOW())`,
		h.ID, string(h.Type), h.Date, h.Warehouse,
		h.ReferenceType, h.ReferenceNumber, h.ShipmentCarrier, h.ShippingDocument,
		h.CustomerPO, h.CustomerName, h.Comments, h.RelatedID,
		h.CreatedBy, h.LastEditedBy)
	return err
}

// InsertDetails writes detail lines one by one.
func (r *Repository) InsertDetails(ctx context.Context, details []Detail) error {
	for _, d := range details {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO transaction_detail (
				detail_id, transaction_id, item_name, quantity, inventory_status,
				status, lot_number, comments, created_by, last_edited_by
			) VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),NULLIF($8,''),NULLIF($9,''),NULLIF($10,''))`,
			d.ID, d.TransactionID, d.ItemName, d.Quantity, string(d.InventoryStatus),
			string(d.Status), d.LotNumber, d.Comments, d.CreatedBy, d.LastEditedBy)
		if err != nil {
			return err
		}
	}
	return nil
}

// HeaderType fetches the transaction type of a header.
func (r *Repository) HeaderType(ctx context.Context, id string) (Type, error) {
	var t string
	err := r.pool.QueryRow(ctx,
		`SELECT transaction_type FROM transaction_header WHERE transaction_id=$1`, id).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return Type(t), nil
}

// UpdateHeader edits the fixed header field set and stamps the editor.
func (r *Repository) UpdateHeader(ctx context.Context, id string, u HeaderUpdate, editor string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transaction_header SET
			transaction_date=$2, warehouse=NULLIF($3,''),
			shipment_carrier=NULLIF($4,''), shipping_document=NULLIF($5,''),
			customer_po=NULLIF($6,''), customer_name=NULLIF($7,''),
			comments=NULLIF($8,''), last_edited_by=$9, last_edited_at=NOW()
		 WHERE transaction_id=$1`,
		id, u.Date, u.Warehouse, u.ShipmentCarrier, u.ShippingDocument,
		u.CustomerPO, u.CustomerName, u.Comments, editor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDetail edits one detail line and stamps the editor.
func (r *Repository) UpdateDetail(ctx context.Context, transactionID string, u DetailUpdate, editor string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transaction_detail SET
			quantity=$3, inventory_status=$4, status=$5,
			lot_number=NULLIF($6,''), comments=NULLIF($7,''), last_edited_by=$8
		 WHERE transaction_id=$1 AND detail_id=$2`,
		transactionID, u.DetailID, u.Quantity, string(u.InventoryStatus),
		string(u.Status), u.LotNumber, u.Comments, editor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDetail removes one detail line.
func (r *Repository) DeleteDetail(ctx context.Context, transactionID, detailID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transaction_detail WHERE transaction_id=$1 AND detail_id=$2`,
		transactionID, detailID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RelatedReferences lists reference numbers of headers pointing at id via
// related_transaction_id.
func (r *Repository) RelatedReferences(ctx context.Context, id string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT reference_number FROM transaction_header WHERE related_transaction_id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteHeaderCascade removes all details of a header, then the header.
// The two deletes are independent statements; a failure between them leaves
// a header without lines.
func (r *Repository) DeleteHeaderCascade(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM transaction_detail WHERE transaction_id=$1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM transaction_header WHERE transaction_id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

const fullViewColumns = `transaction_id, transaction_type, transaction_date,
	COALESCE(reference_type,''), COALESCE(reference_number,''),
	COALESCE(warehouse,''), COALESCE(shipment_carrier,''),
	COALESCE(shipping_document,''), COALESCE(customer_po,''),
	COALESCE(customer_name,''), COALESCE(header_comments,''),
	COALESCE(related_transaction_id,''), COALESCE(created_by,''),
	COALESCE(last_edited_by,''), header_created_at, header_last_updated_at,
	COALESCE(detail_id::text,''), COALESCE(item_name,''), COALESCE(quantity,0),
	COALESCE(inventory_status,'Stock'), COALESCE(detail_status,''),
	COALESCE(lot_number,''), COALESCE(detail_comments,'')`

// ListFull reads the flattened vw_transaction_full view and regroups rows
// into headers with details, newest first.
func (r *Repository) ListFull(ctx context.Context) ([]Header, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fullViewColumns+` FROM vw_transaction_full ORDER BY transaction_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return groupFullRows(rows)
}

func groupFullRows(rows pgx.Rows) ([]Header, error) {
	var (
		order   []string
		headers = make(map[string]*Header)
	)
	for rows.Next() {
		var (
			h Header
			d Detail
		)
		err := rows.Scan(
			&h.ID, &h.Type, &h.Date, &h.ReferenceType, &h.ReferenceNumber,
			&h.Warehouse, &h.ShipmentCarrier, &h.ShippingDocument, &h.CustomerPO,
			&h.CustomerName, &h.Comments, &h.RelatedID, &h.CreatedBy,
			&h.LastEditedBy, &h.CreatedAt, &h.LastEditedAt,
			&d.ID, &d.ItemName, &d.Quantity, &d.InventoryStatus, &d.Status,
			&d.LotNumber, &d.Comments)
		if err != nil {
			return nil, err
		}
		existing, ok := headers[h.ID]
		if !ok {
			copied := h
			headers[h.ID] = &copied
			order = append(order, h.ID)
			existing = &copied
		}
		if d.ID != "" {
			d.TransactionID = existing.ID
			existing.Details = append(existing.Details, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]Header, 0, len(order))
	for _, id := range order {
		result = append(result, *headers[id])
	}
	return result, nil
}

// PendingForWarehouse lists headers with still-Pending lines for a warehouse
// at or before the given date, oldest first.
func (r *Repository) PendingForWarehouse(ctx context.Context, warehouse string, asOf time.Time) ([]Header, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fullViewColumns+` FROM vw_transaction_full
		 WHERE warehouse=$1 AND detail_status='Pending' AND transaction_date<=$2
		 ORDER BY transaction_date ASC`, warehouse, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return groupFullRows(rows)
}
