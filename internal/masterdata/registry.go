// Package masterdata provides schema-driven CRUD over the reference tables
// backing products, items, pack sizes, and warehouses. Every table the
// module can touch is declared in the registry below; table and column
// names arriving from a request are validated against it before any SQL is
// built, and values only ever travel as bind parameters.
package masterdata

import (
	"fmt"
	"strings"
)

// ForeignKey points a column at the table and column it references.
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// TableSpec declares one editable table.
type TableSpec struct {
	Name        string                `json:"name"`
	PrimaryKey  string                `json:"primary_key"`
	Columns     []string              `json:"columns"`
	ForeignKeys map[string]ForeignKey `json:"foreign_keys"`
}

// HasColumn reports whether the column is declared for the table.
func (t TableSpec) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Tables lists the editable tables in display order.
var Tables = []string{
	"product",
	"item",
	"pack_size",
	"case_type",
	"product_type",
	"registrant",
	"units_of_units",
	"warehouse",
}

var registry = map[string]TableSpec{
	"product": {
		Name:       "product",
		PrimaryKey: "product_name",
		Columns:    []string{"product_name", "registrant", "product_type"},
		ForeignKeys: map[string]ForeignKey{
			"registrant":   {Table: "registrant", Column: "registrant"},
			"product_type": {Table: "product_type", Column: "product_type"},
		},
	},
	"item": {
		Name:       "item",
		PrimaryKey: "item_name",
		Columns:    []string{"item_name", "product_name", "pack_size"},
		ForeignKeys: map[string]ForeignKey{
			"product_name": {Table: "product", Column: "product_name"},
			"pack_size":    {Table: "pack_size", Column: "pack_size"},
		},
	},
	"pack_size": {
		Name:       "pack_size",
		PrimaryKey: "pack_size",
		Columns: []string{
			"pack_size", "id", "units_per_each", "volume_per_unit",
			"units_of_units", "package_type", "uom_per_each",
			"eaches_per_pallet", "pallets_per_tl", "eaches_per_tl",
		},
		ForeignKeys: map[string]ForeignKey{
			"units_of_units": {Table: "units_of_units", Column: "units_of_units"},
			"package_type":   {Table: "case_type", Column: "package_type"},
		},
	},
	"warehouse": {
		Name:       "warehouse",
		PrimaryKey: "Common Name",
		Columns: []string{
			"Location ID", "Establishment Name", "Common Name", "EPA",
			"Abbreviation", "Street", "City", "State", "Zip",
			"Address", "Phone", "Contact Name", "Location Hours",
		},
	},
	"case_type": {
		Name:       "case_type",
		PrimaryKey: "package_type",
		Columns:    []string{"package_type"},
	},
	"product_type": {
		Name:       "product_type",
		PrimaryKey: "product_type",
		Columns:    []string{"product_type"},
	},
	"registrant": {
		Name:       "registrant",
		PrimaryKey: "registrant",
		Columns:    []string{"registrant"},
	},
	"units_of_units": {
		Name:       "units_of_units",
		PrimaryKey: "units_of_units",
		Columns:    []string{"units_of_units"},
	},
}

// Lookup resolves a table name against the registry.
func Lookup(table string) (TableSpec, error) {
	spec, ok := registry[table]
	if !ok {
		return TableSpec{}, fmt.Errorf("masterdata: unknown table %q", table)
	}
	return spec, nil
}

// quoteIdent wraps an already-whitelisted identifier in double quotes.
// Several warehouse columns contain spaces, so quoting is unconditional.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
