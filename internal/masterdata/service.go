package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// ErrNotFound indicates a missing row.
var ErrNotFound = errors.New("masterdata: record not found")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	List(ctx context.Context, spec TableSpec) ([]Record, error)
	Insert(ctx context.Context, spec TableSpec, record Record) error
	Update(ctx context.Context, spec TableSpec, pkValue any, record Record) error
	Delete(ctx context.Context, spec TableSpec, pkValue any) error
	Options(ctx context.Context, fk ForeignKey) ([]any, error)
	MaxPackSizeID(ctx context.Context) (int64, error)
}

// AuditPort records user actions, best effort.
type AuditPort interface {
	Action(ctx context.Context, actionType string, details map[string]any)
}

// Service implements master data CRUD with registry validation and the
// derived-field rules for pack sizes and items.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	matcher *search.Matcher
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{
		repo:    repo,
		audit:   audit,
		matcher: search.New(language.Und, search.IgnoreCase, search.IgnoreDiacritics),
	}
}

// List returns every row of a registered table.
func (s *Service) List(ctx context.Context, table string) ([]Record, error) {
	spec, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, spec)
}

// Insert validates and writes a new row, filling the table's derived
// fields first.
func (s *Service) Insert(ctx context.Context, table string, record Record) (Record, error) {
	spec, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	clean := cleanRecord(spec, record)
	if err := s.applyDerived(ctx, spec, clean, true); err != nil {
		return nil, err
	}
	if err := requirePrimaryKey(spec, clean); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, spec, clean); err != nil {
		return nil, err
	}
	s.recordAction(ctx, "create_master_data", map[string]any{"table": table})
	return clean, nil
}

// Update validates and rewrites an existing row, keyed by the primary key
// value inside the record itself.
func (s *Service) Update(ctx context.Context, table string, record Record) (Record, error) {
	spec, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	clean := cleanRecord(spec, record)
	if err := s.applyDerived(ctx, spec, clean, false); err != nil {
		return nil, err
	}
	if err := requirePrimaryKey(spec, clean); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, spec, clean[spec.PrimaryKey], clean); err != nil {
		return nil, err
	}
	s.recordAction(ctx, "update_master_data", map[string]any{"table": table})
	return clean, nil
}

// Delete removes a row by primary key value.
func (s *Service) Delete(ctx context.Context, table string, pkValue any) error {
	spec, err := Lookup(table)
	if err != nil {
		return err
	}
	if pkValue == nil || pkValue == "" {
		return fmt.Errorf("masterdata: %s requires a %q value", spec.Name, spec.PrimaryKey)
	}
	if err := s.repo.Delete(ctx, spec, pkValue); err != nil {
		return err
	}
	s.recordAction(ctx, "delete_master_data", map[string]any{"table": table})
	return nil
}

// Options maps each foreign key column of a table to its selectable values.
func (s *Service) Options(ctx context.Context, table string) (map[string][]any, error) {
	spec, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]any, len(spec.ForeignKeys))
	for column, fk := range spec.ForeignKeys {
		values, err := s.repo.Options(ctx, fk)
		if err != nil {
			return nil, fmt.Errorf("masterdata: options for %s.%s: %w", table, column, err)
		}
		out[column] = values
	}
	return out, nil
}

// SearchWarehouses filters warehouse rows whose common or establishment
// name contains the query, matching case- and diacritic-insensitively.
func (s *Service) SearchWarehouses(ctx context.Context, query string) ([]Record, error) {
	spec, err := Lookup("warehouse")
	if err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return records, nil
	}

	var out []Record
	for _, record := range records {
		if s.fieldMatches(record["Common Name"], query) ||
			s.fieldMatches(record["Establishment Name"], query) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *Service) fieldMatches(value any, query string) bool {
	str, ok := value.(string)
	if !ok {
		return false
	}
	start, _ := s.matcher.IndexString(str, query)
	return start >= 0
}

// applyDerived fills the auto-generated columns: pack_size rows derive
// uom_per_each, the pack_size label, and on insert the next numeric id;
// item rows derive item_name from product and pack size.
func (s *Service) applyDerived(ctx context.Context, spec TableSpec, record Record, inserting bool) error {
	switch spec.Name {
	case "pack_size":
		units := numericField(record, "units_per_each")
		volume := numericField(record, "volume_per_unit")
		unit, _ := record["units_of_units"].(string)
		pkg, _ := record["package_type"].(string)
		if units == 0 || volume == 0 || unit == "" || pkg == "" {
			return errors.New("masterdata: pack_size requires units_per_each, volume_per_unit, units_of_units, and package_type")
		}
		record["uom_per_each"] = UOMPerEach(units, volume)
		record["pack_size"] = PackSizeName(units, volume, unit, pkg)
		if inserting {
			maxID, err := s.repo.MaxPackSizeID(ctx)
			if err != nil {
				return err
			}
			record["id"] = maxID + 1
		}
	case "item":
		product, _ := record["product_name"].(string)
		packSize, _ := record["pack_size"].(string)
		if product == "" || packSize == "" {
			return errors.New("masterdata: item requires product_name and pack_size")
		}
		record["item_name"] = ItemName(product, packSize)
	}
	return nil
}

// cleanRecord drops every key the registry does not declare for the table.
// Flattened relationship fields from list responses round-trip through
// clients, so stripping them here keeps writes schema-shaped.
func cleanRecord(spec TableSpec, record Record) Record {
	clean := make(Record, len(record))
	for key, value := range record {
		if spec.HasColumn(key) {
			clean[key] = value
		}
	}
	return clean
}

func requirePrimaryKey(spec TableSpec, record Record) error {
	value, ok := record[spec.PrimaryKey]
	if !ok || value == nil || value == "" {
		return fmt.Errorf("masterdata: %s requires a %q value", spec.Name, spec.PrimaryKey)
	}
	return nil
}

func numericField(record Record, key string) float64 {
	switch v := record[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func (s *Service) recordAction(ctx context.Context, actionType string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Action(ctx, actionType, details)
}
