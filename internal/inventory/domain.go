// Package inventory reads on-hand positions, either from the precomputed
// daily snapshot view or by folding the full transaction history.
package inventory

import "time"

// SnapshotRow is one item/date row of the daily snapshot view.
type SnapshotRow struct {
	ItemName        string    `json:"item_name"`
	Warehouse       string    `json:"warehouse"`
	TransactionDate time.Time `json:"transaction_date"`
	OnHandStock     float64   `json:"on_hand_stock"`
	OnHandConsign   float64   `json:"on_hand_consign"`
	OnHandHold      float64   `json:"on_hand_hold"`
}

// Total sums the three status buckets.
func (r SnapshotRow) Total() float64 {
	return r.OnHandStock + r.OnHandConsign + r.OnHandHold
}

// SnapshotItem is the as-of position of one item, paired with its unit of
// measure multiplier. UOMPerEach is nil when the item's pack size does not
// define one; callers must skip case-count conversion in that case.
type SnapshotItem struct {
	ItemName      string    `json:"item_name"`
	Warehouse     string    `json:"warehouse"`
	AsOf          time.Time `json:"as_of"`
	OnHandStock   float64   `json:"on_hand_stock"`
	OnHandConsign float64   `json:"on_hand_consign"`
	OnHandHold    float64   `json:"on_hand_hold"`
	UOMPerEach    *float64  `json:"uom_per_each"`
}

// OnHand returns the bucket for an inventory status name.
func (s SnapshotItem) OnHand(status string) float64 {
	switch status {
	case "Stock":
		return s.OnHandStock
	case "Consignment":
		return s.OnHandConsign
	case "Hold":
		return s.OnHandHold
	}
	return 0
}

// Position is a live calculated row for one item/warehouse/status.
type Position struct {
	ItemName        string  `json:"item_name"`
	Warehouse       string  `json:"warehouse"`
	InventoryStatus string  `json:"inventory_status"`
	OnHand          float64 `json:"on_hand"`
	Committed       float64 `json:"committed"`
	OnOrder         float64 `json:"on_order"`
}

// Movement is one detail line joined with its header, as consumed by the
// calculator fold.
type Movement struct {
	TransactionType string
	TransactionDate time.Time
	Warehouse       string
	ItemName        string
	Quantity        float64
	InventoryStatus string
	Status          string
}

// Filters narrows calculated inventory output.
type Filters struct {
	Status string `json:"status"`
	Search string `json:"search"`
}
