package transactions

import (
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// stubRows replays pre-built flattened view rows through the pgx.Rows
// interface so grouping can be exercised without a database.
type stubRows struct {
	rows [][]any
	pos  int
}

func (s *stubRows) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *stubRows) Scan(dest ...any) error {
	row := s.rows[s.pos-1]
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		target.Set(reflect.ValueOf(row[i]).Convert(target.Type()))
	}
	return nil
}

func (s *stubRows) Close()                                       {}
func (s *stubRows) Err() error                                   { return nil }
func (s *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (s *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (s *stubRows) Values() ([]any, error)                       { return nil, nil }
func (s *stubRows) RawValues() [][]byte                          { return nil }
func (s *stubRows) Conn() *pgx.Conn                              { return nil }

var _ pgx.Rows = (*stubRows)(nil)

func fullRow(id, refNumber, detailID, itemName string, qty float64) []any {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return []any{
		id, "Adjustment", date,
		"Count Adjustment", refNumber,
		"Main DC", "", "", "", "", "", "", "user-1", "",
		date, date,
		detailID, itemName, qty, "Stock", "Completed", "", "",
	}
}

func TestGroupFullRowsCollectsDetailsPerHeader(t *testing.T) {
	rows := &stubRows{rows: [][]any{
		fullRow("tx-1", "ADJ-100001", "d-1", "Widget", 3),
		fullRow("tx-1", "ADJ-100001", "d-2", "Gadget", -2),
	}}

	headers, err := groupFullRows(rows)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Len(t, headers[0].Details, 2)
	require.Equal(t, "tx-1", headers[0].Details[0].TransactionID)
}

func TestGroupFullRowsKeepsDetailLessHeader(t *testing.T) {
	rows := &stubRows{rows: [][]any{
		fullRow("tx-1", "ADJ-100001", "", "", 0),
		fullRow("tx-2", "IB-100002", "d-1", "Widget", 5),
	}}

	headers, err := groupFullRows(rows)
	require.NoError(t, err)
	require.Len(t, headers, 2)
	require.Empty(t, headers[0].Details)
	require.Len(t, headers[1].Details, 1)
}
