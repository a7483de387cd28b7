package masterdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one row of an editable table, keyed by column name.
type Record map[string]any

// Repository runs schema-driven SQL against the reference tables. Every
// identifier it interpolates comes from the registry, never from a request.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every row of a table ordered by its primary key.
func (r *Repository) List(ctx context.Context, spec TableSpec) ([]Record, error) {
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = quoteIdent(c)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		strings.Join(cols, ", "), quoteIdent(spec.Name), quoteIdent(spec.PrimaryKey))

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(Record, len(spec.Columns))
		for i, c := range spec.Columns {
			record[c] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Insert writes one row. Only registry columns present in the record are
// written.
func (r *Repository) Insert(ctx context.Context, spec TableSpec, record Record) error {
	var cols []string
	var placeholders []string
	var args []any
	for _, c := range spec.Columns {
		value, ok := record[c]
		if !ok {
			continue
		}
		cols = append(cols, quoteIdent(c))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, value)
	}
	if len(cols) == 0 {
		return fmt.Errorf("masterdata: no columns to insert into %s", spec.Name)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(spec.Name), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

// Update rewrites one row identified by its primary key value.
func (r *Repository) Update(ctx context.Context, spec TableSpec, pkValue any, record Record) error {
	var sets []string
	var args []any
	for _, c := range spec.Columns {
		value, ok := record[c]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s=$%d", quoteIdent(c), len(args)+1))
		args = append(args, value)
	}
	if len(sets) == 0 {
		return fmt.Errorf("masterdata: no columns to update on %s", spec.Name)
	}
	args = append(args, pkValue)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s=$%d`,
		quoteIdent(spec.Name), strings.Join(sets, ", "), quoteIdent(spec.PrimaryKey), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one row identified by its primary key value.
func (r *Repository) Delete(ctx context.Context, spec TableSpec, pkValue any) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s=$1`,
		quoteIdent(spec.Name), quoteIdent(spec.PrimaryKey))
	tag, err := r.pool.Exec(ctx, query, pkValue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Options returns the selectable values for one foreign key column.
// pack_size options are ordered by their numeric id so newest sizes list
// first in the dropdown.
func (r *Repository) Options(ctx context.Context, fk ForeignKey) ([]any, error) {
	order := quoteIdent(fk.Column)
	if fk.Table == "pack_size" {
		order = `"id"`
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		quoteIdent(fk.Column), quoteIdent(fk.Table), order)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		var value any
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

// MaxPackSizeID returns the highest assigned pack size id, 0 when the
// table is empty.
func (r *Repository) MaxPackSizeID(ctx context.Context) (int64, error) {
	var max int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id),0) FROM pack_size`).Scan(&max)
	return max, err
}
