package masterdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows      map[string][]Record
	maxPackID int64
	inserted  []Record
	updated   []Record
	deleted   []any
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[string][]Record)}
}

func (r *memoryRepo) List(ctx context.Context, spec TableSpec) ([]Record, error) {
	return r.rows[spec.Name], nil
}

func (r *memoryRepo) Insert(ctx context.Context, spec TableSpec, record Record) error {
	r.inserted = append(r.inserted, record)
	r.rows[spec.Name] = append(r.rows[spec.Name], record)
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, spec TableSpec, pkValue any, record Record) error {
	for i, row := range r.rows[spec.Name] {
		if row[spec.PrimaryKey] == pkValue {
			r.rows[spec.Name][i] = record
			r.updated = append(r.updated, record)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) Delete(ctx context.Context, spec TableSpec, pkValue any) error {
	for i, row := range r.rows[spec.Name] {
		if row[spec.PrimaryKey] == pkValue {
			r.rows[spec.Name] = append(r.rows[spec.Name][:i], r.rows[spec.Name][i+1:]...)
			r.deleted = append(r.deleted, pkValue)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) Options(ctx context.Context, fk ForeignKey) ([]any, error) {
	var out []any
	for _, row := range r.rows[fk.Table] {
		out = append(out, row[fk.Column])
	}
	return out, nil
}

func (r *memoryRepo) MaxPackSizeID(ctx context.Context) (int64, error) {
	return r.maxPackID, nil
}

func TestLookupRejectsUnknownTable(t *testing.T) {
	_, err := Lookup("profiles")
	require.Error(t, err)

	_, err = Lookup(`warehouse"; DROP TABLE item; --`)
	require.Error(t, err)
}

func TestInsertPackSizeDerivesFields(t *testing.T) {
	repo := newMemoryRepo()
	repo.maxPackID = 41
	svc := NewService(repo, nil)

	saved, err := svc.Insert(context.Background(), "pack_size", Record{
		"units_per_each":  float64(12),
		"volume_per_unit": float64(1),
		"units_of_units":  "L",
		"package_type":    "Case",
	})
	require.NoError(t, err)
	require.Equal(t, "12x1 l/case", saved["pack_size"])
	require.Equal(t, float64(12), saved["uom_per_each"])
	require.Equal(t, int64(42), saved["id"])
}

func TestInsertPackSizeSingleUnitLabel(t *testing.T) {
	require.Equal(t, "1 l/bottle", PackSizeName(1, 1, "L", "Bottle"))
	require.Equal(t, "6x0.5 l/case", PackSizeName(6, 0.5, "L", "Case"))
	require.Equal(t, "", PackSizeName(0, 1, "L", "Case"))
}

func TestInsertPackSizeRequiresComponents(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Insert(context.Background(), "pack_size", Record{
		"units_per_each": float64(12),
		"units_of_units": "L",
		"package_type":   "Case",
	})
	require.Error(t, err)
}

func TestInsertItemDerivesName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	saved, err := svc.Insert(context.Background(), "item", Record{
		"product_name": "Widget",
		"pack_size":    "12x1 l/case",
	})
	require.NoError(t, err)
	require.Equal(t, "Widget 12x1 l/case", saved["item_name"])
}

func TestInsertStripsUndeclaredColumns(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	saved, err := svc.Insert(context.Background(), "product", Record{
		"product_name":         "Widget",
		"registrant":           "Acme",
		"product_type":         "Cleaner",
		"registrant_flattened": "Acme",
		"extra":                "dropped",
	})
	require.NoError(t, err)
	require.NotContains(t, saved, "extra")
	require.NotContains(t, saved, "registrant_flattened")
	require.Equal(t, "Widget", repo.inserted[0]["product_name"])
}

func TestUpdateRequiresPrimaryKey(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Update(context.Background(), "registrant", Record{})
	require.Error(t, err)
}

func TestDeleteMissingRow(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	err := svc.Delete(context.Background(), "registrant", "Acme")
	require.ErrorIs(t, err, ErrNotFound)

	require.Error(t, svc.Delete(context.Background(), "registrant", ""))
}

func TestSearchWarehousesMatchesEitherName(t *testing.T) {
	repo := newMemoryRepo()
	repo.rows["warehouse"] = []Record{
		{"Common Name": "Main DC", "Establishment Name": "Acme Distribution"},
		{"Common Name": "East", "Establishment Name": "Eastern Storage"},
		{"Common Name": "West", "Establishment Name": "Western Storage"},
	}
	svc := NewService(repo, nil)

	hits, err := svc.SearchWarehouses(context.Background(), "east")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "East", hits[0]["Common Name"])

	hits, err = svc.SearchWarehouses(context.Background(), "STORAGE")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	all, err := svc.SearchWarehouses(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	require.Equal(t, `"Common Name"`, quoteIdent("Common Name"))
	require.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

func TestServiceRecordsAuditActions(t *testing.T) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	svc := NewService(repo, audit)

	_, err := svc.Insert(context.Background(), "registrant", Record{"registrant": "Acme"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), "registrant", "Acme"))

	require.Len(t, audit.actions, 2)
	require.Equal(t, "create_master_data", audit.actions[0])
	require.Equal(t, "delete_master_data", audit.actions[1])
}

type memoryAudit struct {
	actions []string
}

func (a *memoryAudit) Action(ctx context.Context, actionType string, details map[string]any) {
	a.actions = append(a.actions, actionType)
}
