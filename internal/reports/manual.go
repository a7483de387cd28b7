package reports

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The manual report builder lets a user assemble a query over a small
// whitelist of views. Views, columns, and operators are validated against
// the tables below before any SQL is assembled, and every user-supplied
// value travels as a bind parameter, never as query text.

// manualRowLimit caps manual report output.
const manualRowLimit = 1000

// ErrBadManualRequest tags validation failures from the builder, as
// opposed to execution errors from the database.
var ErrBadManualRequest = errors.New("invalid manual report request")

// View describes one queryable view for the manual builder.
type View struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// AvailableViews are the only views the manual builder can read.
var AvailableViews = []View{
	{
		Name: "vw_transaction_full",
		Columns: []string{
			"transaction_id", "transaction_type", "transaction_date",
			"reference_type", "reference_number", "customer_po",
			"customer_name", "warehouse", "shipment_carrier",
			"shipping_document", "header_comments", "header_created_at",
			"header_last_updated_at", "detail_id", "item_name", "quantity",
			"inventory_status", "lot_number", "detail_comments",
			"detail_status", "detail_created_at", "detail_last_updated_at",
		},
	},
	{
		Name: "inventory_view",
		Columns: []string{
			"Item Name", "Warehouse", "Date", "Inventory As Of Date",
			"On Hand: Total", "On Hand: Stock", "On Hand: Consignment",
			"On Hand: Hold", "Inbound: Total", "Inbound: Stock",
			"Inbound: Consignment", "Inbound: Hold",
			"Scheduled Outbound: Total", "Scheduled Outbound: Stock",
			"Scheduled Outbound: Consign", "Scheduled Outbound: Hold",
			"Future Inventory: Total", "Future Inventory: Stock",
			"Future Inventory: Consign", "Future Inventory: Hold",
		},
	},
}

var manualOperators = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
	"LIKE": true, "NOT LIKE": true, "IN": true, "NOT IN": true,
}

// WhereClause is one user-specified filter condition.
type WhereClause struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ManualRequest is a manual report query.
type ManualRequest struct {
	View    string        `json:"view"`
	Columns []string      `json:"columns"`
	Where   []WhereClause `json:"where"`
}

var (
	dateValue      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timestampValue = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)
)

// BuildManualQuery validates a request against the view whitelist and
// returns the SQL text plus its bind arguments.
func BuildManualQuery(req ManualRequest) (string, []any, error) {
	view, err := lookupView(req.View)
	if err != nil {
		return "", nil, err
	}
	if len(req.Columns) == 0 {
		return "", nil, fmt.Errorf("%w: at least one column required", ErrBadManualRequest)
	}
	for _, col := range req.Columns {
		if !view.hasColumn(col) {
			return "", nil, fmt.Errorf("%w: column %q not in view %s", ErrBadManualRequest, col, view.Name)
		}
	}

	cols := make([]string, len(req.Columns))
	for i, col := range req.Columns {
		cols[i] = quoteIdent(col)
	}

	var conditions []string
	var args []any
	for _, clause := range req.Where {
		if clause.Column == "" || clause.Operator == "" || clause.Value == "" {
			continue
		}
		if !view.hasColumn(clause.Column) {
			return "", nil, fmt.Errorf("%w: column %q not in view %s", ErrBadManualRequest, clause.Column, view.Name)
		}
		operator := strings.ToUpper(strings.TrimSpace(clause.Operator))
		if !manualOperators[operator] {
			return "", nil, fmt.Errorf("%w: operator %q not allowed", ErrBadManualRequest, clause.Operator)
		}
		condition, clauseArgs := buildCondition(quoteIdent(clause.Column), operator, clause.Value, len(args))
		conditions = append(conditions, condition)
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(view.Name))
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" LIMIT %d", manualRowLimit)
	return query, args, nil
}

// buildCondition renders one WHERE condition with placeholders starting
// after offset. IN lists expand to one placeholder per element, LIKE values
// are wrapped in wildcards, and date-shaped values are cast so comparisons
// against date and timestamp columns behave.
func buildCondition(column, operator, value string, offset int) (string, []any) {
	switch operator {
	case "IN", "NOT IN":
		parts := strings.Split(value, ",")
		placeholders := make([]string, len(parts))
		args := make([]any, len(parts))
		for i, part := range parts {
			placeholders[i] = fmt.Sprintf("$%d", offset+i+1)
			args[i] = strings.TrimSpace(part)
		}
		return fmt.Sprintf("%s %s (%s)", column, operator, strings.Join(placeholders, ",")), args
	case "LIKE", "NOT LIKE":
		return fmt.Sprintf("%s %s $%d", column, operator, offset+1), []any{"%" + value + "%"}
	}

	placeholder := fmt.Sprintf("$%d", offset+1)
	if number, err := strconv.ParseFloat(value, 64); err == nil {
		return fmt.Sprintf("%s %s %s", column, operator, placeholder), []any{number}
	}
	if dateValue.MatchString(value) {
		return fmt.Sprintf("%s %s %s::date", column, operator, placeholder), []any{value}
	}
	if timestampValue.MatchString(value) {
		return fmt.Sprintf("%s %s %s::timestamp", column, operator, placeholder), []any{value}
	}
	return fmt.Sprintf("%s %s %s", column, operator, placeholder), []any{value}
}

func lookupView(name string) (View, error) {
	for _, view := range AvailableViews {
		if view.Name == name {
			return view, nil
		}
	}
	return View{}, fmt.Errorf("%w: unknown view %q", ErrBadManualRequest, name)
}

func (v View) hasColumn(name string) bool {
	for _, c := range v.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// quoteIdent wraps an already-whitelisted identifier in double quotes; the
// inventory view's column names contain spaces and colons.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
