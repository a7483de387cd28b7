package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	InventorySummaries(ctx context.Context, filter SummaryFilter) ([]InventorySummary, error)
	Transactions(ctx context.Context, filter TransactionFilter, limit int) ([]TransactionRow, error)
	ItemsForProduct(ctx context.Context, productName string) ([]string, error)
	ManualQuery(ctx context.Context, query string, args []any) ([]map[string]any, error)
}

// Service assembles reports. Identical report requests arriving
// concurrently share a single database round trip.
type Service struct {
	repo  RepositoryPort
	group singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Customer returns the most recent thousand transaction rows.
func (s *Service) Customer(ctx context.Context) (CustomerReport, error) {
	result, err, _ := s.group.Do("customer", func() (any, error) {
		rows, err := s.repo.Transactions(ctx, TransactionFilter{}, 1000)
		if err != nil {
			return nil, err
		}
		return CustomerReport{AllTransactions: rows}, nil
	})
	if err != nil {
		return CustomerReport{}, err
	}
	return result.(CustomerReport), nil
}

// Item reports one item's position per warehouse plus its transaction
// history. The two view reads run concurrently.
func (s *Service) Item(ctx context.Context, itemName string) (ItemReport, error) {
	if itemName == "" {
		return ItemReport{}, errors.New("reports: item name required")
	}
	result, err, _ := s.group.Do("item:"+itemName, func() (any, error) {
		var (
			summaries []InventorySummary
			rows      []TransactionRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			summaries, err = s.repo.InventorySummaries(gctx, SummaryFilter{Item: itemName})
			return err
		})
		g.Go(func() error {
			var err error
			rows, err = s.repo.Transactions(gctx, TransactionFilter{Item: itemName}, 0)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		report := ItemReport{ItemName: itemName, Transactions: rows, TransactionCount: len(rows)}
		for _, summary := range summaries {
			report.TotalOnHand.Add(summary.OnHand)
			report.ByWarehouse = append(report.ByWarehouse, WarehousePosition{
				Warehouse:         summary.Warehouse,
				OnHand:            summary.OnHand,
				Inbound:           summary.Inbound,
				ScheduledOutbound: summary.ScheduledOutbound,
				FutureInventory:   summary.FutureInventory,
			})
		}
		return report, nil
	})
	if err != nil {
		return ItemReport{}, err
	}
	return result.(ItemReport), nil
}

// Product reports every item of a product, grouped by item, plus the
// combined transaction history.
func (s *Service) Product(ctx context.Context, productName string) (ProductReport, error) {
	if productName == "" {
		return ProductReport{}, errors.New("reports: product name required")
	}
	result, err, _ := s.group.Do("product:"+productName, func() (any, error) {
		itemNames, err := s.repo.ItemsForProduct(ctx, productName)
		if err != nil {
			return nil, err
		}
		report := ProductReport{ProductName: productName}
		if len(itemNames) == 0 {
			return report, nil
		}

		var (
			summaries []InventorySummary
			rows      []TransactionRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			summaries, err = s.repo.InventorySummaries(gctx, SummaryFilter{Items: itemNames})
			return err
		})
		g.Go(func() error {
			var err error
			rows, err = s.repo.Transactions(gctx, TransactionFilter{Items: itemNames}, 0)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		byItem := make(map[string]*ProductItemSummary)
		var order []string
		for _, summary := range summaries {
			item, ok := byItem[summary.ItemName]
			if !ok {
				item = &ProductItemSummary{ItemName: summary.ItemName}
				byItem[summary.ItemName] = item
				order = append(order, summary.ItemName)
			}
			item.TotalOnHand.Add(summary.OnHand)
			item.ByWarehouse = append(item.ByWarehouse, WarehousePosition{
				Warehouse: summary.Warehouse,
				OnHand:    summary.OnHand,
			})
		}
		sort.Strings(order)
		for _, name := range order {
			report.Items = append(report.Items, *byItem[name])
		}
		report.Transactions = rows
		report.TransactionCount = len(rows)
		return report, nil
	})
	if err != nil {
		return ProductReport{}, err
	}
	return result.(ProductReport), nil
}

// Warehouse reports one warehouse's holdings and transaction history.
func (s *Service) Warehouse(ctx context.Context, warehouseName string) (WarehouseReport, error) {
	if warehouseName == "" {
		return WarehouseReport{}, errors.New("reports: warehouse name required")
	}
	result, err, _ := s.group.Do("warehouse:"+warehouseName, func() (any, error) {
		var (
			summaries []InventorySummary
			rows      []TransactionRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			summaries, err = s.repo.InventorySummaries(gctx, SummaryFilter{Warehouse: warehouseName})
			return err
		})
		g.Go(func() error {
			var err error
			rows, err = s.repo.Transactions(gctx, TransactionFilter{Warehouse: warehouseName}, 0)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		report := WarehouseReport{WarehouseName: warehouseName, Transactions: rows}
		for _, summary := range summaries {
			report.Items = append(report.Items, WarehousePosition{
				ItemName:          summary.ItemName,
				InventoryStatus:   dominantStatus(summary.OnHand),
				OnHand:            summary.OnHand,
				Inbound:           summary.Inbound,
				ScheduledOutbound: summary.ScheduledOutbound,
				FutureInventory:   summary.FutureInventory,
			})
		}
		return report, nil
	})
	if err != nil {
		return WarehouseReport{}, err
	}
	return result.(WarehouseReport), nil
}

// dominantStatus picks the display status for a warehouse report line:
// the first status bucket holding positive stock, defaulting to Stock.
func dominantStatus(onHand StatusBreakdown) string {
	switch {
	case onHand.Stock > 0:
		return "Stock"
	case onHand.Consign > 0:
		return "Consignment"
	case onHand.Hold > 0:
		return "Hold"
	}
	return "Stock"
}

// Negative lists every item/warehouse position below zero.
func (s *Service) Negative(ctx context.Context) (NegativeInventoryReport, error) {
	result, err, _ := s.group.Do("negative", func() (any, error) {
		summaries, err := s.repo.InventorySummaries(ctx, SummaryFilter{NegativeOnly: true})
		if err != nil {
			return nil, err
		}
		report := NegativeInventoryReport{}
		for _, summary := range summaries {
			report.NegativeItems = append(report.NegativeItems, NegativeItem{
				ItemName:    summary.ItemName,
				Warehouse:   summary.Warehouse,
				OnHandTotal: summary.OnHand.Total,
			})
		}
		return report, nil
	})
	if err != nil {
		return NegativeInventoryReport{}, err
	}
	return result.(NegativeInventoryReport), nil
}

// AllInventory dumps the whole inventory view.
func (s *Service) AllInventory(ctx context.Context) (AllInventoryReport, error) {
	result, err, _ := s.group.Do("all-inventory", func() (any, error) {
		rows, err := s.repo.InventorySummaries(ctx, SummaryFilter{})
		if err != nil {
			return nil, err
		}
		return AllInventoryReport{Rows: rows}, nil
	})
	if err != nil {
		return AllInventoryReport{}, err
	}
	return result.(AllInventoryReport), nil
}

// Manual validates and runs a manual report request.
func (s *Service) Manual(ctx context.Context, req ManualRequest) ([]map[string]any, error) {
	query, args, err := BuildManualQuery(req)
	if err != nil {
		return nil, err
	}
	key := "manual:" + query + "|" + joinArgs(args)
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.ManualQuery(ctx, query, args)
	})
	if err != nil {
		return nil, err
	}
	return result.([]map[string]any), nil
}

// Views lists the manual builder's queryable views.
func (s *Service) Views() []View {
	return AvailableViews
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ",")
}
