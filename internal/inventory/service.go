package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	SnapshotRows(ctx context.Context, warehouse string, asOf time.Time) ([]SnapshotRow, error)
	UOMByItem(ctx context.Context) (map[string]*float64, error)
	ItemNames(ctx context.Context) ([]string, error)
	SearchItems(ctx context.Context, fragment string) ([]string, error)
	WarehouseNames(ctx context.Context) ([]string, error)
	Movements(ctx context.Context) ([]Movement, error)
}

// Service computes inventory positions.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Snapshot returns the latest position per item for a warehouse as of a
// date. Per item, only the most recent snapshot row at or before the date
// counts; items whose three status buckets are all zero are dropped. The
// snapshot scan and the unit-of-measure lookup run concurrently.
func (s *Service) Snapshot(ctx context.Context, warehouse string, asOf time.Time) ([]SnapshotItem, error) {
	if warehouse == "" {
		return nil, errors.New("inventory: warehouse required")
	}
	if asOf.IsZero() {
		return nil, errors.New("inventory: as-of date required")
	}

	var (
		rows []SnapshotRow
		uoms map[string]*float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.SnapshotRows(gctx, warehouse, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		uoms, err = s.repo.UOMByItem(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	var out []SnapshotItem
	for _, row := range rows {
		if seen[row.ItemName] {
			continue
		}
		seen[row.ItemName] = true
		if row.OnHandStock == 0 && row.OnHandConsign == 0 && row.OnHandHold == 0 {
			continue
		}
		out = append(out, SnapshotItem{
			ItemName:      row.ItemName,
			Warehouse:     row.Warehouse,
			AsOf:          asOf,
			OnHandStock:   row.OnHandStock,
			OnHandConsign: row.OnHandConsign,
			OnHandHold:    row.OnHandHold,
			UOMPerEach:    uoms[row.ItemName],
		})
	}
	return out, nil
}

// Calculate folds the full transaction history into live positions for every
// item, warehouse, and status, then applies filters. Inbound Received adds
// to on-hand, Inbound Pending to on-order, Outbound Shipped subtracts from
// on-hand, Outbound Pending adds to committed. Adjustment lines carry no
// live effect here; the snapshot view absorbs them.
func (s *Service) Calculate(ctx context.Context, filters Filters) ([]Position, error) {
	var (
		items      []string
		warehouses []string
		movements  []Movement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ItemNames(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		warehouses, err = s.repo.WarehouseNames(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		movements, err = s.repo.Movements(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statuses := []string{"Stock", "Consignment", "Hold"}
	positions := make(map[string]*Position, len(items)*len(warehouses)*len(statuses))
	var order []string
	byKey := func(item, warehouse, status string) *Position {
		key := item + "|" + warehouse + "|" + status
		if p, ok := positions[key]; ok {
			return p
		}
		p := &Position{ItemName: item, Warehouse: warehouse, InventoryStatus: status}
		positions[key] = p
		order = append(order, key)
		return p
	}

	for _, item := range items {
		for _, warehouse := range warehouses {
			for _, status := range statuses {
				byKey(item, warehouse, status)
			}
		}
	}

	for _, m := range movements {
		status := m.InventoryStatus
		if status == "" {
			status = "Stock"
		}
		p := byKey(m.ItemName, m.Warehouse, status)
		switch m.TransactionType {
		case "Inbound":
			switch m.Status {
			case "Received":
				p.OnHand += m.Quantity
			case "Pending":
				p.OnOrder += m.Quantity
			}
		case "Outbound":
			switch m.Status {
			case "Shipped":
				p.OnHand -= m.Quantity
			case "Pending":
				p.Committed += m.Quantity
			}
		}
	}

	search := strings.ToLower(filters.Search)
	var out []Position
	for _, key := range order {
		p := positions[key]
		if filters.Status != "" && p.InventoryStatus != filters.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.ItemName), search) &&
			!strings.Contains(strings.ToLower(p.Warehouse), search) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// ItemUOM returns the unit-of-measure multiplier for one item, nil when the
// item is unknown or its pack size defines none.
func (s *Service) ItemUOM(ctx context.Context, itemName string) (*float64, error) {
	uoms, err := s.repo.UOMByItem(ctx)
	if err != nil {
		return nil, err
	}
	return uoms[itemName], nil
}

// SearchItems finds items by name fragment for count lines added by hand.
func (s *Service) SearchItems(ctx context.Context, fragment string) ([]string, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, errors.New("inventory: search fragment required")
	}
	return s.repo.SearchItems(ctx, fragment)
}

// Warehouses lists warehouse common names.
func (s *Service) Warehouses(ctx context.Context) ([]string, error) {
	return s.repo.WarehouseNames(ctx)
}
