package reports

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildManualQueryBasic(t *testing.T) {
	query, args, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id", "item_name"},
	})
	require.NoError(t, err)
	require.Equal(t, `SELECT "transaction_id", "item_name" FROM "vw_transaction_full" LIMIT 1000`, query)
	require.Empty(t, args)
}

func TestBuildManualQueryRejectsUnknownView(t *testing.T) {
	_, _, err := BuildManualQuery(ManualRequest{
		View:    "pg_catalog.pg_tables",
		Columns: []string{"tablename"},
	})
	require.ErrorIs(t, err, ErrBadManualRequest)
}

func TestBuildManualQueryRejectsUnknownColumn(t *testing.T) {
	_, _, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id; DROP TABLE item"},
	})
	require.ErrorIs(t, err, ErrBadManualRequest)

	_, _, err = BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id"},
		Where:   []WhereClause{{Column: "password", Operator: "=", Value: "x"}},
	})
	require.ErrorIs(t, err, ErrBadManualRequest)
}

func TestBuildManualQueryRejectsUnknownOperator(t *testing.T) {
	_, _, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id"},
		Where:   []WhereClause{{Column: "warehouse", Operator: "= 1 OR 1", Value: "x"}},
	})
	require.ErrorIs(t, err, ErrBadManualRequest)
}

func TestBuildManualQueryValueNeverEntersSQL(t *testing.T) {
	query, args, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id"},
		Where: []WhereClause{
			{Column: "warehouse", Operator: "=", Value: "'; DROP TABLE item; --"},
		},
	})
	require.NoError(t, err)
	require.NotContains(t, query, "DROP")
	require.Equal(t, []any{"'; DROP TABLE item; --"}, args)
	require.Contains(t, query, `"warehouse" = $1`)
}

func TestBuildManualQueryInExpandsPlaceholders(t *testing.T) {
	query, args, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id"},
		Where: []WhereClause{
			{Column: "warehouse", Operator: "IN", Value: "Main DC, East DC,West DC"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, query, `"warehouse" IN ($1,$2,$3)`)
	require.Equal(t, []any{"Main DC", "East DC", "West DC"}, args)
}

func TestBuildManualQueryLikeWrapsWildcards(t *testing.T) {
	query, args, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"transaction_id"},
		Where: []WhereClause{
			{Column: "customer_name", Operator: "like", Value: "acme"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, query, `"customer_name" LIKE $1`)
	require.Equal(t, []any{"%acme%"}, args)
}

func TestBuildManualQueryNumericAndDateValues(t *testing.T) {
	query, args, err := BuildManualQuery(ManualRequest{
		View:    "vw_transaction_full",
		Columns: []string{"quantity"},
		Where: []WhereClause{
			{Column: "quantity", Operator: ">=", Value: "12.5"},
			{Column: "transaction_date", Operator: ">", Value: "2024-01-15"},
			{Column: "header_created_at", Operator: "<", Value: "2024-01-15 08:30:00"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, query, `"quantity" >= $1`)
	require.Contains(t, query, `"transaction_date" > $2::date`)
	require.Contains(t, query, `"header_created_at" < $3::timestamp`)
	require.Equal(t, []any{12.5, "2024-01-15", "2024-01-15 08:30:00"}, args)
}

func TestBuildManualQuerySkipsIncompleteClauses(t *testing.T) {
	query, args, err := BuildManualQuery(ManualRequest{
		View:    "inventory_view",
		Columns: []string{"Item Name", "On Hand: Total"},
		Where: []WhereClause{
			{Column: "Warehouse", Operator: "=", Value: ""},
			{Column: "On Hand: Total", Operator: "<", Value: "0"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, query, `SELECT "Item Name", "On Hand: Total" FROM "inventory_view"`)
	require.Contains(t, query, `"On Hand: Total" < $1`)
	require.Len(t, args, 1)
}
