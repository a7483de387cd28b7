// Package reports implements the reporting suite: canned reports over the
// transaction and inventory views, and a whitelist-constrained manual
// query builder.
package reports

import "time"

// StatusBreakdown splits a quantity across the three inventory statuses.
type StatusBreakdown struct {
	Total   float64 `json:"total"`
	Stock   float64 `json:"stock"`
	Consign float64 `json:"consign"`
	Hold    float64 `json:"hold"`
}

// Add accumulates another breakdown.
func (b *StatusBreakdown) Add(other StatusBreakdown) {
	b.Total += other.Total
	b.Stock += other.Stock
	b.Consign += other.Consign
	b.Hold += other.Hold
}

// InventorySummary is one row of the inventory view: the position of an
// item at a warehouse, split across current, inbound, scheduled outbound,
// and projected future buckets.
type InventorySummary struct {
	ItemName          string          `json:"item_name"`
	Warehouse         string          `json:"warehouse"`
	Date              *time.Time      `json:"date"`
	OnHand            StatusBreakdown `json:"on_hand"`
	Inbound           StatusBreakdown `json:"inbound"`
	ScheduledOutbound StatusBreakdown `json:"scheduled_outbound"`
	FutureInventory   StatusBreakdown `json:"future_inventory"`
}

// SummaryFilter narrows inventory view reads.
type SummaryFilter struct {
	Item         string
	Items        []string
	Warehouse    string
	NegativeOnly bool
}

// TransactionRow is one detail line of the full transaction view with its
// header fields inlined.
type TransactionRow struct {
	TransactionID    string    `json:"transaction_id"`
	TransactionType  string    `json:"transaction_type"`
	TransactionDate  time.Time `json:"transaction_date"`
	ReferenceNumber  string    `json:"reference_number"`
	Warehouse        string    `json:"warehouse"`
	CustomerName     string    `json:"customer_name"`
	CustomerPO       string    `json:"customer_po"`
	ShipmentCarrier  string    `json:"shipment_carrier"`
	ShippingDocument string    `json:"shipping_document"`
	Comments         string    `json:"comments"`
	DetailID         string    `json:"detail_id"`
	ItemName         string    `json:"item_name"`
	Quantity         float64   `json:"quantity"`
	InventoryStatus  string    `json:"inventory_status"`
	Status           string    `json:"status"`
	LotNumber        string    `json:"lot_number"`
	DetailComments   string    `json:"detail_comments"`
}

// TransactionFilter narrows full view reads.
type TransactionFilter struct {
	Item      string
	Items     []string
	Warehouse string
}

// WarehousePosition is one item line of an item or warehouse report.
type WarehousePosition struct {
	Warehouse         string          `json:"warehouse,omitempty"`
	ItemName          string          `json:"item_name,omitempty"`
	InventoryStatus   string          `json:"inventory_status,omitempty"`
	OnHand            StatusBreakdown `json:"on_hand"`
	Inbound           StatusBreakdown `json:"inbound"`
	ScheduledOutbound StatusBreakdown `json:"scheduled_outbound"`
	FutureInventory   StatusBreakdown `json:"future_inventory"`
}

// ItemReport summarizes one item across all warehouses.
type ItemReport struct {
	ItemName         string              `json:"item_name"`
	TotalOnHand      StatusBreakdown     `json:"total_on_hand"`
	ByWarehouse      []WarehousePosition `json:"by_warehouse"`
	Transactions     []TransactionRow    `json:"transactions"`
	TransactionCount int                 `json:"transaction_count"`
}

// ProductItemSummary is one item of a product report.
type ProductItemSummary struct {
	ItemName    string              `json:"item_name"`
	TotalOnHand StatusBreakdown     `json:"total_on_hand"`
	ByWarehouse []WarehousePosition `json:"by_warehouse"`
}

// ProductReport summarizes every item of a product.
type ProductReport struct {
	ProductName      string               `json:"product_name"`
	Items            []ProductItemSummary `json:"items"`
	Transactions     []TransactionRow     `json:"transactions"`
	TransactionCount int                  `json:"transaction_count"`
}

// WarehouseReport summarizes one warehouse's holdings and history.
type WarehouseReport struct {
	WarehouseName string              `json:"warehouse_name"`
	Items         []WarehousePosition `json:"items"`
	Transactions  []TransactionRow    `json:"transactions"`
}

// NegativeItem is an item/warehouse pair that has gone below zero.
type NegativeItem struct {
	ItemName    string  `json:"item_name"`
	Warehouse   string  `json:"warehouse"`
	OnHandTotal float64 `json:"on_hand_total"`
}

// NegativeInventoryReport lists all negative positions.
type NegativeInventoryReport struct {
	NegativeItems []NegativeItem `json:"negative_items"`
}

// CustomerReport is the most recent transaction history.
type CustomerReport struct {
	AllTransactions []TransactionRow `json:"all_transactions"`
}

// AllInventoryReport is the raw inventory view dump.
type AllInventoryReport struct {
	Rows []InventorySummary `json:"rows"`
}
