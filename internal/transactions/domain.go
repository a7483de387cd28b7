package transactions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type enumerates supported transaction kinds.
type Type string

const (
	// TypeInbound represents goods arriving at a warehouse.
	TypeInbound Type = "Inbound"
	// TypeOutbound represents goods leaving a warehouse.
	TypeOutbound Type = "Outbound"
	// TypeAdjustment corrects on-hand records, usually from a count.
	TypeAdjustment Type = "Adjustment"
)

// InventoryStatus classifies stock independently per item/warehouse.
type InventoryStatus string

const (
	StatusStock       InventoryStatus = "Stock"
	StatusConsignment InventoryStatus = "Consignment"
	StatusHold        InventoryStatus = "Hold"
)

// LineStatus is the lifecycle stage of a transaction detail.
type LineStatus string

const (
	LinePending   LineStatus = "Pending"
	LineShipped   LineStatus = "Shipped"
	LineReceived  LineStatus = "Received"
	LineCompleted LineStatus = "Completed"
)

// ReferenceType labels what a transaction originated from.
type ReferenceType string

const (
	RefSalesOrder     ReferenceType = "Sales Order"
	RefPurchaseOrder  ReferenceType = "Purchase Order"
	RefTransferOrder  ReferenceType = "Transfer Order"
	RefInventoryCount ReferenceType = "Inventory Count"
	RefOther          ReferenceType = "Other"
)

// Header models one transaction_header row with its detail lines.
type Header struct {
	ID               string    `json:"transaction_id"`
	Type             Type      `json:"transaction_type"`
	Date             time.Time `json:"transaction_date"`
	Warehouse        string    `json:"warehouse"`
	ReferenceType    string    `json:"reference_type"`
	ReferenceNumber  string    `json:"reference_number"`
	ShipmentCarrier  string    `json:"shipment_carrier,omitempty"`
	ShippingDocument string    `json:"shipping_document,omitempty"`
	CustomerPO       string    `json:"customer_po,omitempty"`
	CustomerName     string    `json:"customer_name,omitempty"`
	Comments         string    `json:"comments,omitempty"`
	RelatedID        string    `json:"related_transaction_id,omitempty"`
	CreatedBy        string    `json:"created_by,omitempty"`
	LastEditedBy     string    `json:"last_edited_by,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	LastEditedAt     time.Time `json:"last_edited_at,omitempty"`
	Details          []Detail  `json:"details"`
}

// Detail models one transaction_detail row.
type Detail struct {
	ID              string          `json:"detail_id"`
	TransactionID   string          `json:"transaction_id"`
	ItemName        string          `json:"item_name"`
	Quantity        float64         `json:"quantity"`
	InventoryStatus InventoryStatus `json:"inventory_status"`
	Status          LineStatus      `json:"status"`
	LotNumber       string          `json:"lot_number,omitempty"`
	Comments        string          `json:"comments,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	LastEditedBy    string          `json:"last_edited_by,omitempty"`
}

// HeaderUpdate is the fixed field set an edit may touch.
type HeaderUpdate struct {
	Date             time.Time `json:"transaction_date"`
	Warehouse        string    `json:"warehouse"`
	ShipmentCarrier  string    `json:"shipment_carrier"`
	ShippingDocument string    `json:"shipping_document"`
	CustomerPO       string    `json:"customer_po"`
	CustomerName     string    `json:"customer_name"`
	Comments         string    `json:"comments"`
}

// DetailUpdate carries the editable fields of a single detail line.
type DetailUpdate struct {
	DetailID        string          `json:"detail_id"`
	Quantity        float64         `json:"quantity"`
	InventoryStatus InventoryStatus `json:"inventory_status"`
	Status          LineStatus      `json:"status"`
	LotNumber       string          `json:"lot_number"`
	Comments        string          `json:"comments"`
}

// FirstSequence is the reference number issued when a prefix has no
// transactions yet.
const FirstSequence = 100001

// ReferencePrefix maps a transaction type to its reference number prefix.
func ReferencePrefix(t Type) string {
	switch t {
	case TypeInbound:
		return "IB-"
	case TypeOutbound:
		return "OB-"
	case TypeAdjustment:
		return "ADJ-"
	default:
		return ""
	}
}

// NextSequence derives the sequence for the next reference number from the
// highest existing one. Gaps left by deletions are never reused; a missing
// or unparseable last reference starts the series at FirstSequence.
func NextSequence(lastReference string) int {
	if lastReference == "" {
		return FirstSequence
	}
	parts := strings.SplitN(lastReference, "-", 2)
	if len(parts) != 2 {
		return FirstSequence
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n <= 0 {
		n = FirstSequence - 1
	}
	return n + 1
}

// StatusAllowed reports whether a line status belongs to the allowed subset
// for the transaction type.
func StatusAllowed(t Type, s LineStatus) bool {
	switch t {
	case TypeInbound:
		return s == LinePending || s == LineReceived
	case TypeOutbound:
		return s == LinePending || s == LineShipped
	case TypeAdjustment:
		return s == LinePending || s == LineCompleted
	default:
		return true
	}
}

// NextStatus returns the terminal status a line of the given type advances to.
func NextStatus(t Type) (LineStatus, bool) {
	switch t {
	case TypeInbound:
		return LineReceived, true
	case TypeOutbound:
		return LineShipped, true
	case TypeAdjustment:
		return LineCompleted, true
	default:
		return "", false
	}
}

// AddBusinessDays advances the date by n weekdays, skipping Saturday and
// Sunday.
func AddBusinessDays(date time.Time, n int) time.Time {
	d := date
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// ErrNotFound indicates a missing header or detail.
var ErrNotFound = errors.New("transactions: not found")

// ErrInvalidStatus indicates a line status outside the type's allowed subset.
type ErrInvalidStatus struct {
	Status LineStatus
	Type   Type
}

func (e ErrInvalidStatus) Error() string {
	return fmt.Sprintf("transactions: status %q not allowed for %s transaction", e.Status, e.Type)
}

// ErrRelatedExist blocks header deletion while other headers reference it.
type ErrRelatedExist struct {
	References []string
}

func (e ErrRelatedExist) Error() string {
	return fmt.Sprintf("transactions: related transactions exist: %s", strings.Join(e.References, ", "))
}
