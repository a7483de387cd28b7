package count

import (
	"context"
	"errors"
	"time"

	"github.com/warelane/warelane/internal/inventory"
	"github.com/warelane/warelane/internal/transactions"
)

// SnapshotPort is the slice of the inventory service the workflow needs.
type SnapshotPort interface {
	Snapshot(ctx context.Context, warehouse string, asOf time.Time) ([]inventory.SnapshotItem, error)
	ItemUOM(ctx context.Context, itemName string) (*float64, error)
	Warehouses(ctx context.Context) ([]string, error)
}

// TransactionPort is the slice of the transactions service the workflow
// needs.
type TransactionPort interface {
	CreateAdjustment(ctx context.Context, input transactions.AdjustmentInput) (transactions.Header, error)
	Pending(ctx context.Context, warehouse string, asOf time.Time) ([]transactions.Header, error)
}

// Notifier announces a posted adjustment, best effort.
type Notifier interface {
	AdjustmentPosted(ctx context.Context, header transactions.Header, lineCount int)
}

// Service drives the count workflow state machine. The state itself lives
// in the caller's session; every method takes it by pointer and mutates it
// in place.
type Service struct {
	snapshots SnapshotPort
	txns      TransactionPort
	notifier  Notifier
}

// NewService builds Service.
func NewService(snapshots SnapshotPort, txns TransactionPort) *Service {
	return &Service{snapshots: snapshots, txns: txns}
}

// SetNotifier installs an adjustment notification sink.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Warehouses lists the selectable warehouses for the first step.
func (s *Service) Warehouses(ctx context.Context) ([]string, error) {
	return s.snapshots.Warehouses(ctx)
}

// SelectWarehouse records the warehouse and advances to date selection.
func (s *Service) SelectWarehouse(state *State, warehouse string) error {
	if state.Step != StepWarehouse {
		return ErrWrongStep{Want: StepWarehouse, Got: state.Step}
	}
	if warehouse == "" {
		return errors.New("count: warehouse required")
	}
	state.Warehouse = warehouse
	state.Step = StepDate
	return nil
}

// SelectDate records the as-of date, loads the snapshot, and seeds one
// zero-quantity count line per item and status bucket with positive
// on-hand. Items the counter never touches therefore default to a full
// shortage at variance time, which is intentional.
func (s *Service) SelectDate(ctx context.Context, state *State, date time.Time) error {
	if state.Step != StepDate {
		return ErrWrongStep{Want: StepDate, Got: state.Step}
	}
	if date.IsZero() {
		return errors.New("count: date required")
	}
	// Counts run against a full day, so the cutoff is end of day local.
	asOf := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, time.Local)
	if date.After(time.Now()) && !sameDay(date, time.Now()) {
		return errors.New("count: date cannot be in the future")
	}

	snapshot, err := s.snapshots.Snapshot(ctx, state.Warehouse, asOf)
	if err != nil {
		return err
	}

	var lines []Line
	for _, item := range snapshot {
		for _, bucket := range []struct {
			status string
			onHand float64
		}{
			{"Stock", item.OnHandStock},
			{"Consignment", item.OnHandConsign},
			{"Hold", item.OnHandHold},
		} {
			if bucket.onHand > 0 {
				lines = append(lines, Line{
					ItemName:        item.ItemName,
					InventoryStatus: bucket.status,
					UOMPerEach:      item.UOMPerEach,
				})
			}
		}
	}

	state.Date = date
	state.Snapshot = snapshot
	state.Lines = lines
	state.Variances = nil
	state.Step = StepCount
	return nil
}

// AddLine appends a count line for an item not in the snapshot.
func (s *Service) AddLine(ctx context.Context, state *State, itemName string) error {
	if state.Step != StepCount {
		return ErrWrongStep{Want: StepCount, Got: state.Step}
	}
	if itemName == "" {
		return errors.New("count: item name required")
	}
	uom, err := s.snapshots.ItemUOM(ctx, itemName)
	if err != nil {
		return err
	}
	state.Lines = append(state.Lines, Line{
		ItemName:        itemName,
		InventoryStatus: "Stock",
		UOMPerEach:      uom,
	})
	return nil
}

// RemoveLine deletes a count line.
func (s *Service) RemoveLine(state *State, index int) error {
	if state.Step != StepCount {
		return ErrWrongStep{Want: StepCount, Got: state.Step}
	}
	if index < 0 || index >= len(state.Lines) {
		return ErrLineIndex{Index: index}
	}
	state.Lines = append(state.Lines[:index], state.Lines[index+1:]...)
	return nil
}

// SetQuantity records a counted quantity in eaches and mirrors it into
// cases when the line has a multiplier.
func (s *Service) SetQuantity(state *State, index int, quantity float64) error {
	line, err := s.line(state, index)
	if err != nil {
		return err
	}
	line.Quantity = quantity
	if line.UOMPerEach != nil && *line.UOMPerEach != 0 {
		line.CaseCount = quantity / *line.UOMPerEach
	}
	return nil
}

// SetCaseCount records a counted quantity in cases and mirrors it into
// eaches. Lines without a multiplier cannot be counted by case.
func (s *Service) SetCaseCount(state *State, index int, caseCount float64) error {
	line, err := s.line(state, index)
	if err != nil {
		return err
	}
	if line.UOMPerEach == nil || *line.UOMPerEach == 0 {
		return errors.New("count: line has no unit-of-measure multiplier")
	}
	line.CaseCount = caseCount
	line.Quantity = caseCount * *line.UOMPerEach
	return nil
}

// SetLineStatus retags a line's inventory status.
func (s *Service) SetLineStatus(state *State, index int, status string) error {
	switch status {
	case "Stock", "Consignment", "Hold":
	default:
		return errors.New("count: inventory status must be Stock, Consignment, or Hold")
	}
	line, err := s.line(state, index)
	if err != nil {
		return err
	}
	line.InventoryStatus = status
	return nil
}

// SetLineNotes records free-form notes on a line.
func (s *Service) SetLineNotes(state *State, index int, notes string) error {
	line, err := s.line(state, index)
	if err != nil {
		return err
	}
	line.Notes = notes
	return nil
}

// CompleteCount finishes entry, computes variances, and advances to review.
// At least one count line is required.
func (s *Service) CompleteCount(state *State) error {
	if state.Step != StepCount {
		return ErrWrongStep{Want: StepCount, Got: state.Step}
	}
	if len(state.Lines) == 0 {
		return errors.New("count: at least one count line required")
	}
	state.Variances = computeVariances(state.Lines, state.Snapshot)
	state.Step = StepVariance
	return nil
}

// computeVariances compares each counted line against the snapshot bucket
// for the same item and status, treating absent items as zero. The result
// depends only on lines and snapshot, so recomputation is stable.
func computeVariances(lines []Line, snapshot []inventory.SnapshotItem) []Variance {
	byItem := make(map[string]inventory.SnapshotItem, len(snapshot))
	for _, item := range snapshot {
		byItem[item.ItemName] = item
	}

	variances := make([]Variance, 0, len(lines))
	for _, line := range lines {
		calculated := byItem[line.ItemName].OnHand(line.InventoryStatus)
		variances = append(variances, Variance{
			ItemName:        line.ItemName,
			InventoryStatus: line.InventoryStatus,
			PhysicalCount:   line.Quantity,
			CalculatedCount: calculated,
			Variance:        line.Quantity - calculated,
		})
	}
	return variances
}

// PendingTransactions surfaces still-open transaction lines for the counted
// warehouse, for the reviewer's context only. They play no part in the
// variance math.
func (s *Service) PendingTransactions(ctx context.Context, state *State) ([]transactions.Header, error) {
	if state.Step != StepVariance && state.Step != StepAdjustment {
		return nil, ErrWrongStep{Want: StepVariance, Got: state.Step}
	}
	return s.txns.Pending(ctx, state.Warehouse, state.Date)
}

// GenerateAdjustment posts the reviewed variances as an Adjustment
// transaction and advances to the final step. Zero-variance lines are
// passed through and dropped by the transaction layer.
func (s *Service) GenerateAdjustment(ctx context.Context, state *State, actorID string) (transactions.Header, error) {
	if state.Step != StepVariance {
		return transactions.Header{}, ErrWrongStep{Want: StepVariance, Got: state.Step}
	}
	if len(state.Variances) == 0 {
		return transactions.Header{}, errors.New("count: no variances to post")
	}

	lines := make([]transactions.AdjustmentLine, 0, len(state.Variances))
	for _, v := range state.Variances {
		comment := ""
		if v.Variance > 0 {
			comment = "Count overage"
		} else if v.Variance < 0 {
			comment = "Count shortage"
		}
		lines = append(lines, transactions.AdjustmentLine{
			ItemName:        v.ItemName,
			Quantity:        v.Variance,
			InventoryStatus: transactions.InventoryStatus(v.InventoryStatus),
			Comment:         comment,
		})
	}

	header, err := s.txns.CreateAdjustment(ctx, transactions.AdjustmentInput{
		Warehouse: state.Warehouse,
		Date:      state.Date,
		ActorID:   actorID,
		Lines:     lines,
	})
	if err != nil {
		return transactions.Header{}, err
	}
	state.AdjustmentReference = header.ReferenceNumber
	state.Step = StepAdjustment
	if s.notifier != nil {
		posted := 0
		for _, line := range lines {
			if line.Quantity != 0 {
				posted++
			}
		}
		s.notifier.AdjustmentPosted(ctx, header, posted)
	}
	return header, nil
}

// Back steps the workflow one stage backwards. Count lines, the snapshot,
// and computed variances are kept so the user can resume where they were.
func (s *Service) Back(state *State) error {
	switch state.Step {
	case StepDate:
		state.Step = StepWarehouse
	case StepCount:
		state.Step = StepDate
	case StepVariance:
		state.Step = StepCount
	case StepAdjustment:
		state.Step = StepVariance
	default:
		return errors.New("count: already at the first step")
	}
	return nil
}

func (s *Service) line(state *State, index int) (*Line, error) {
	if state.Step != StepCount {
		return nil, ErrWrongStep{Want: StepCount, Got: state.Step}
	}
	if index < 0 || index >= len(state.Lines) {
		return nil, ErrLineIndex{Index: index}
	}
	return &state.Lines[index], nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
