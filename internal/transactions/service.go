package transactions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	LastReference(ctx context.Context, prefix string) (string, error)
	InsertHeader(ctx context.Context, h Header) error
	InsertDetails(ctx context.Context, details []Detail) error
	HeaderType(ctx context.Context, id string) (Type, error)
	UpdateHeader(ctx context.Context, id string, u HeaderUpdate, editor string) error
	UpdateDetail(ctx context.Context, transactionID string, u DetailUpdate, editor string) error
	DeleteDetail(ctx context.Context, transactionID, detailID string) error
	RelatedReferences(ctx context.Context, id string) ([]string, error)
	DeleteHeaderCascade(ctx context.Context, id string) error
	ListFull(ctx context.Context) ([]Header, error)
	PendingForWarehouse(ctx context.Context, warehouse string, asOf time.Time) ([]Header, error)
}

// AuditPort records user actions, best effort.
type AuditPort interface {
	Action(ctx context.Context, actionType string, details map[string]any)
}

// Service coordinates transaction operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// LineInput is one item line of a create request.
type LineInput struct {
	ItemName  string  `json:"item_name"`
	Quantity  float64 `json:"quantity"`
	LotNumber string  `json:"lot_number"`
	Comments  string  `json:"comments"`
}

// CreateInput carries everything needed to create a transaction, including
// the optional transfer leg.
type CreateInput struct {
	Type            Type
	Date            time.Time
	ReferenceType   ReferenceType
	Warehouse       string
	InventoryStatus InventoryStatus
	Status          LineStatus

	ShipmentCarrier  string
	ShippingDocument string
	CustomerPO       string
	CustomerName     string
	Comments         string
	RelatedID        string

	// Transfer order leg. Set when ReferenceType is "Transfer Order".
	TransferToWarehouse string
	TransferToStatus    InventoryStatus
	TransferDate        time.Time
	TransferLeadDays    int

	ActorID string
	Items   []LineInput
}

// Create inserts a transaction header plus detail lines and, for transfer
// orders, the paired inbound leg at the destination warehouse. The writes
// are independent statements: a failure after the header insert leaves the
// header without lines, and a failed inbound leg leaves an unpaired
// outbound. Neither is compensated.
func (s *Service) Create(ctx context.Context, input CreateInput) (Header, error) {
	if err := s.validateCreate(input); err != nil {
		return Header{}, err
	}

	prefix := ReferencePrefix(input.Type)
	last, err := s.repo.LastReference(ctx, prefix)
	if err != nil {
		return Header{}, fmt.Errorf("transactions: last reference: %w", err)
	}
	sequence := NextSequence(last)

	header := Header{
		ID:               uuid.NewString(),
		Type:             input.Type,
		Date:             input.Date,
		Warehouse:        input.Warehouse,
		ReferenceType:    string(input.ReferenceType),
		ReferenceNumber:  prefix + strconv.Itoa(sequence),
		ShipmentCarrier:  input.ShipmentCarrier,
		ShippingDocument: input.ShippingDocument,
		CustomerPO:       input.CustomerPO,
		CustomerName:     input.CustomerName,
		Comments:         input.Comments,
		RelatedID:        input.RelatedID,
		CreatedBy:        input.ActorID,
		LastEditedBy:     input.ActorID,
	}
	if err := s.repo.InsertHeader(ctx, header); err != nil {
		return Header{}, err
	}

	details := make([]Detail, 0, len(input.Items))
	for _, item := range input.Items {
		details = append(details, Detail{
			ID:              uuid.NewString(),
			TransactionID:   header.ID,
			ItemName:        item.ItemName,
			Quantity:        item.Quantity,
			InventoryStatus: input.InventoryStatus,
			Status:          input.Status,
			LotNumber:       item.LotNumber,
			Comments:        item.Comments,
			CreatedBy:       input.ActorID,
			LastEditedBy:    input.ActorID,
		})
	}
	if err := s.repo.InsertDetails(ctx, details); err != nil {
		return Header{}, err
	}
	header.Details = details

	if input.ReferenceType == RefTransferOrder && input.TransferToWarehouse != "" {
		if err := s.createTransferLeg(ctx, input, header.ID, sequence); err != nil {
			return Header{}, err
		}
	}

	s.recordAction(ctx, "create_transaction", map[string]any{
		"reference_number": header.ReferenceNumber,
		"transaction_type": string(header.Type),
	})
	return header, nil
}

// createTransferLeg inserts the inbound half of a transfer order at the
// destination warehouse. The leg shares the outbound's numeric sequence
// under the IB- prefix and is forced to Pending.
func (s *Service) createTransferLeg(ctx context.Context, input CreateInput, outboundID string, sequence int) error {
	transferDate := input.TransferDate
	if transferDate.IsZero() {
		leadDays := input.TransferLeadDays
		if leadDays <= 0 {
			leadDays = 2
		}
		transferDate = AddBusinessDays(input.Date, leadDays)
	}
	inventoryStatus := input.TransferToStatus
	if inventoryStatus == "" {
		inventoryStatus = input.InventoryStatus
	}

	inbound := Header{
		ID:               uuid.NewString(),
		Type:             TypeInbound,
		Date:             transferDate,
		Warehouse:        input.TransferToWarehouse,
		ReferenceType:    string(RefTransferOrder),
		ReferenceNumber:  "IB-" + strconv.Itoa(sequence),
		ShipmentCarrier:  input.ShipmentCarrier,
		ShippingDocument: input.ShippingDocument,
		Comments:         input.Comments,
		RelatedID:        outboundID,
		CreatedBy:        input.ActorID,
		LastEditedBy:     input.ActorID,
	}
	if err := s.repo.InsertHeader(ctx, inbound); err != nil {
		return fmt.Errorf("transactions: transfer inbound leg: %w", err)
	}

	details := make([]Detail, 0, len(input.Items))
	for _, item := range input.Items {
		details = append(details, Detail{
			ID:              uuid.NewString(),
			TransactionID:   inbound.ID,
			ItemName:        item.ItemName,
			Quantity:        item.Quantity,
			InventoryStatus: inventoryStatus,
			Status:          LinePending,
			LotNumber:       item.LotNumber,
			Comments:        item.Comments,
			CreatedBy:       input.ActorID,
			LastEditedBy:    input.ActorID,
		})
	}
	if err := s.repo.InsertDetails(ctx, details); err != nil {
		return fmt.Errorf("transactions: transfer inbound leg: %w", err)
	}
	return nil
}

// AdjustmentLine is one variance line to post.
type AdjustmentLine struct {
	ItemName        string
	Quantity        float64
	InventoryStatus InventoryStatus
	Comment         string
}

// AdjustmentInput describes an inventory-count adjustment.
type AdjustmentInput struct {
	Warehouse string
	Date      time.Time
	ActorID   string
	Lines     []AdjustmentLine
}

// CreateAdjustment posts the adjustment produced by a physical count: one
// ADJ header and one Completed detail per nonzero line. The header is
// created whenever any lines were reviewed, even if every variance turned
// out to be zero; whether that empty header is wanted is an open product
// question, so the behavior is preserved as-is.
func (s *Service) CreateAdjustment(ctx context.Context, input AdjustmentInput) (Header, error) {
	if input.Warehouse == "" || input.Date.IsZero() {
		return Header{}, errors.New("transactions: adjustment requires warehouse and date")
	}
	if len(input.Lines) == 0 {
		return Header{}, errors.New("transactions: adjustment requires at least one reviewed line")
	}

	last, err := s.repo.LastReference(ctx, "ADJ-")
	if err != nil {
		return Header{}, fmt.Errorf("transactions: last reference: %w", err)
	}
	sequence := NextSequence(last)

	dateStr := input.Date.Format("2006-01-02")
	header := Header{
		ID:              uuid.NewString(),
		Type:            TypeAdjustment,
		Date:            input.Date,
		Warehouse:       input.Warehouse,
		ReferenceType:   string(RefInventoryCount),
		ReferenceNumber: "ADJ-" + strconv.Itoa(sequence),
		Comments:        fmt.Sprintf("Inventory count adjustment for %s as of %s", input.Warehouse, dateStr),
		CreatedBy:       input.ActorID,
		LastEditedBy:    input.ActorID,
	}
	if err := s.repo.InsertHeader(ctx, header); err != nil {
		return Header{}, err
	}

	var details []Detail
	for _, line := range input.Lines {
		if line.Quantity == 0 {
			continue
		}
		details = append(details, Detail{
			ID:              uuid.NewString(),
			TransactionID:   header.ID,
			ItemName:        line.ItemName,
			Quantity:        line.Quantity,
			InventoryStatus: line.InventoryStatus,
			Status:          LineCompleted,
			Comments:        line.Comment,
			CreatedBy:       input.ActorID,
			LastEditedBy:    input.ActorID,
		})
	}
	if err := s.repo.InsertDetails(ctx, details); err != nil {
		// Known gap: the header stays orphaned when the detail batch fails.
		return Header{}, err
	}
	header.Details = details

	s.recordAction(ctx, "generate_adjustment", map[string]any{
		"reference_number": header.ReferenceNumber,
		"warehouse":        input.Warehouse,
	})
	return header, nil
}

// List returns all transactions grouped from the full view.
func (s *Service) List(ctx context.Context) ([]Header, error) {
	return s.repo.ListFull(ctx)
}

// Pending lists headers with still-Pending lines for a warehouse at or
// before the date.
func (s *Service) Pending(ctx context.Context, warehouse string, asOf time.Time) ([]Header, error) {
	if warehouse == "" {
		return nil, errors.New("transactions: warehouse required")
	}
	return s.repo.PendingForWarehouse(ctx, warehouse, asOf)
}

// UpdateHeader edits the fixed header field set.
func (s *Service) UpdateHeader(ctx context.Context, id string, u HeaderUpdate, editor string) error {
	if id == "" {
		return errors.New("transactions: transaction id required")
	}
	if u.Date.IsZero() {
		return errors.New("transactions: transaction date required")
	}
	if err := s.repo.UpdateHeader(ctx, id, u, editor); err != nil {
		return err
	}
	s.recordAction(ctx, "update_transaction", map[string]any{"transaction_id": id})
	return nil
}

// UpdateDetail edits one detail line after validating the new status against
// the header's transaction type.
func (s *Service) UpdateDetail(ctx context.Context, transactionID string, u DetailUpdate, editor string) error {
	if transactionID == "" || u.DetailID == "" {
		return errors.New("transactions: transaction and detail id required")
	}
	headerType, err := s.repo.HeaderType(ctx, transactionID)
	if err != nil {
		return err
	}
	if !StatusAllowed(headerType, u.Status) {
		return ErrInvalidStatus{Status: u.Status, Type: headerType}
	}
	if err := s.repo.UpdateDetail(ctx, transactionID, u, editor); err != nil {
		return err
	}
	s.recordAction(ctx, "update_transaction", map[string]any{
		"transaction_id": transactionID,
		"detail_id":      u.DetailID,
	})
	return nil
}

// DeleteDetail removes a single detail line.
func (s *Service) DeleteDetail(ctx context.Context, transactionID, detailID string) error {
	if transactionID == "" || detailID == "" {
		return errors.New("transactions: transaction and detail id required")
	}
	if err := s.repo.DeleteDetail(ctx, transactionID, detailID); err != nil {
		return err
	}
	s.recordAction(ctx, "delete_transaction", map[string]any{
		"transaction_id": transactionID,
		"detail_id":      detailID,
	})
	return nil
}

// DeleteHeader removes a header and all its details. Deletion is refused
// while any other header references it as a transfer pair; the error names
// the blocking reference numbers.
func (s *Service) DeleteHeader(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("transactions: transaction id required")
	}
	refs, err := s.repo.RelatedReferences(ctx, id)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return ErrRelatedExist{References: refs}
	}
	if err := s.repo.DeleteHeaderCascade(ctx, id); err != nil {
		return err
	}
	s.recordAction(ctx, "delete_transaction", map[string]any{"transaction_id": id})
	return nil
}

func (s *Service) validateCreate(input CreateInput) error {
	switch input.Type {
	case TypeInbound, TypeOutbound, TypeAdjustment:
	default:
		return fmt.Errorf("transactions: unknown transaction type %q", input.Type)
	}
	if input.Date.IsZero() {
		return errors.New("transactions: transaction date required")
	}
	if len(input.Items) == 0 {
		return errors.New("transactions: at least one item line required")
	}
	if !StatusAllowed(input.Type, input.Status) {
		return ErrInvalidStatus{Status: input.Status, Type: input.Type}
	}
	for _, item := range input.Items {
		if item.ItemName == "" {
			return errors.New("transactions: item name required on every line")
		}
	}
	return nil
}

func (s *Service) recordAction(ctx context.Context, actionType string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Action(ctx, actionType, details)
}
