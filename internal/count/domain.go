// Package count implements the physical inventory count workflow: pick a
// warehouse, pick an as-of date, enter counted quantities, review variances
// against the snapshot, and post an adjustment transaction.
package count

import (
	"fmt"
	"time"

	"github.com/warelane/warelane/internal/inventory"
)

// Step is a stage of the count workflow.
type Step string

const (
	StepWarehouse  Step = "warehouse"
	StepDate       Step = "date"
	StepCount      Step = "count"
	StepVariance   Step = "variance"
	StepAdjustment Step = "adjustment"
)

// Line is one item being counted. Quantity is eaches; CaseCount mirrors it
// in cases whenever UOMPerEach is known, and the two stay in sync as either
// side is edited.
type Line struct {
	ItemName        string   `json:"item_name"`
	Quantity        float64  `json:"quantity"`
	CaseCount       float64  `json:"case_count"`
	InventoryStatus string   `json:"inventory_status"`
	Notes           string   `json:"notes"`
	UOMPerEach      *float64 `json:"uom_per_each"`
}

// Variance compares a counted line with the snapshot value for the same
// item and status.
type Variance struct {
	ItemName        string  `json:"item_name"`
	InventoryStatus string  `json:"inventory_status"`
	PhysicalCount   float64 `json:"physical_count"`
	CalculatedCount float64 `json:"calculated_count"`
	Variance        float64 `json:"variance"`
}

// State is the full workflow state, serialized into the user's session
// between requests.
type State struct {
	Step                Step                     `json:"step"`
	Warehouse           string                   `json:"warehouse"`
	Date                time.Time                `json:"date"`
	Lines               []Line                   `json:"lines"`
	Snapshot            []inventory.SnapshotItem `json:"snapshot"`
	Variances           []Variance               `json:"variances"`
	AdjustmentReference string                   `json:"adjustment_reference,omitempty"`
}

// NewState starts a workflow at warehouse selection.
func NewState() State {
	return State{Step: StepWarehouse}
}

// ErrWrongStep reports an operation attempted outside its workflow stage.
type ErrWrongStep struct {
	Want Step
	Got  Step
}

func (e ErrWrongStep) Error() string {
	return fmt.Sprintf("count: step must be %q, currently %q", e.Want, e.Got)
}

// ErrLineIndex reports an out-of-range count line index.
type ErrLineIndex struct {
	Index int
}

func (e ErrLineIndex) Error() string {
	return fmt.Sprintf("count: no line at index %d", e.Index)
}
