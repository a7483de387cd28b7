package transactions

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	headers     map[string]Header
	headerOrder []string
	details     map[string][]Detail
	failDetails bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{headers: make(map[string]Header), details: make(map[string][]Detail)}
}

func (r *memoryRepo) LastReference(ctx context.Context, prefix string) (string, error) {
	last := ""
	for _, h := range r.headers {
		if strings.HasPrefix(h.ReferenceNumber, strings.TrimSuffix(prefix, "%")) && h.ReferenceNumber > last {
			last = h.ReferenceNumber
		}
	}
	return last, nil
}

func (r *memoryRepo) InsertHeader(ctx context.Context, h Header) error {
	r.headers[h.ID] = h
	r.headerOrder = append(r.headerOrder, h.ID)
	return nil
}

func (r *memoryRepo) InsertDetails(ctx context.Context, details []Detail) error {
	if r.failDetails {
		return context.DeadlineExceeded
	}
	for _, d := range details {
		r.details[d.TransactionID] = append(r.details[d.TransactionID], d)
	}
	return nil
}

func (r *memoryRepo) HeaderType(ctx context.Context, id string) (Type, error) {
	h, ok := r.headers[id]
	if !ok {
		return "", ErrNotFound
	}
	return h.Type, nil
}

func (r *memoryRepo) UpdateHeader(ctx context.Context, id string, u HeaderUpdate, editor string) error {
	h, ok := r.headers[id]
	if !ok {
		return ErrNotFound
	}
	h.Date = u.Date
	h.Warehouse = u.Warehouse
	h.ShipmentCarrier = u.ShipmentCarrier
	h.ShippingDocument = u.ShippingDocument
	h.CustomerPO = u.CustomerPO
	h.CustomerName = u.CustomerName
	h.Comments = u.Comments
	h.LastEditedBy = editor
	r.headers[id] = h
	return nil
}

func (r *memoryRepo) UpdateDetail(ctx context.Context, transactionID string, u DetailUpdate, editor string) error {
	lines := r.details[transactionID]
	for i, d := range lines {
		if d.ID == u.DetailID {
			lines[i].Quantity = u.Quantity
			lines[i].Status = u.Status
			lines[i].LastEditedBy = editor
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) DeleteDetail(ctx context.Context, transactionID, detailID string) error {
	lines := r.details[transactionID]
	for i, d := range lines {
		if d.ID == detailID {
			r.details[transactionID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) RelatedReferences(ctx context.Context, id string) ([]string, error) {
	var refs []string
	for _, h := range r.headers {
		if h.RelatedID == id {
			refs = append(refs, h.ReferenceNumber)
		}
	}
	return refs, nil
}

func (r *memoryRepo) DeleteHeaderCascade(ctx context.Context, id string) error {
	if _, ok := r.headers[id]; !ok {
		return ErrNotFound
	}
	delete(r.headers, id)
	delete(r.details, id)
	return nil
}

func (r *memoryRepo) ListFull(ctx context.Context) ([]Header, error) {
	var out []Header
	for _, id := range r.headerOrder {
		h, ok := r.headers[id]
		if !ok {
			continue
		}
		h.Details = r.details[id]
		out = append(out, h)
	}
	return out, nil
}

func (r *memoryRepo) PendingForWarehouse(ctx context.Context, warehouse string, asOf time.Time) ([]Header, error) {
	var out []Header
	for _, id := range r.headerOrder {
		h, ok := r.headers[id]
		if !ok || h.Warehouse != warehouse || h.Date.After(asOf) {
			continue
		}
		var pending []Detail
		for _, d := range r.details[id] {
			if d.Status == LinePending {
				pending = append(pending, d)
			}
		}
		if len(pending) > 0 {
			h.Details = pending
			out = append(out, h)
		}
	}
	return out, nil
}

type recordedAction struct {
	actionType string
	details    map[string]any
}

type memoryAudit struct {
	actions []recordedAction
}

func (a *memoryAudit) Action(ctx context.Context, actionType string, details map[string]any) {
	a.actions = append(a.actions, recordedAction{actionType: actionType, details: details})
}

func newTestService() (*Service, *memoryRepo, *memoryAudit) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	return NewService(repo, audit), repo, audit
}

func baseCreateInput() CreateInput {
	return CreateInput{
		Type:            TypeInbound,
		Date:            time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		ReferenceType:   RefPurchaseOrder,
		Warehouse:       "Main DC",
		InventoryStatus: StatusStock,
		Status:          LinePending,
		ActorID:         "user-1",
		Items:           []LineInput{{ItemName: "Widget 12x1 l/case", Quantity: 10}},
	}
}

func TestCreateAssignsFirstReferenceNumber(t *testing.T) {
	svc, _, _ := newTestService()

	header, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)
	require.Equal(t, "IB-100001", header.ReferenceNumber)
	require.Len(t, header.Details, 1)
	require.Equal(t, LinePending, header.Details[0].Status)
}

func TestCreateIncrementsPerPrefix(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)
	require.Equal(t, "IB-100002", second.ReferenceNumber)

	outbound := baseCreateInput()
	outbound.Type = TypeOutbound
	third, err := svc.Create(context.Background(), outbound)
	require.NoError(t, err)
	require.Equal(t, "OB-100001", third.ReferenceNumber)
}

func TestCreateRejectsStatusForType(t *testing.T) {
	svc, _, _ := newTestService()

	input := baseCreateInput()
	input.Status = LineShipped
	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)

	var invalid ErrInvalidStatus
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, LineShipped, invalid.Status)
	require.Equal(t, TypeInbound, invalid.Type)
}

func TestCreateRequiresItems(t *testing.T) {
	svc, _, _ := newTestService()

	input := baseCreateInput()
	input.Items = nil
	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
}

func TestCreateTransferBuildsInboundLeg(t *testing.T) {
	svc, repo, _ := newTestService()

	input := baseCreateInput()
	input.Type = TypeOutbound
	input.ReferenceType = RefTransferOrder
	input.Status = LinePending
	input.TransferToWarehouse = "East DC"
	input.TransferToStatus = StatusHold
	// Friday; two business days later is Tuesday.
	input.Date = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	outbound, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "OB-100001", outbound.ReferenceNumber)

	headers, err := repo.ListFull(context.Background())
	require.NoError(t, err)
	require.Len(t, headers, 2)

	inbound := headers[1]
	require.Equal(t, TypeInbound, inbound.Type)
	require.Equal(t, "IB-100001", inbound.ReferenceNumber)
	require.Equal(t, "East DC", inbound.Warehouse)
	require.Equal(t, outbound.ID, inbound.RelatedID)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), inbound.Date)
	require.Len(t, inbound.Details, 1)
	require.Equal(t, LinePending, inbound.Details[0].Status)
	require.Equal(t, StatusHold, inbound.Details[0].InventoryStatus)
}

func TestCreateTransferHonorsExplicitDate(t *testing.T) {
	svc, repo, _ := newTestService()

	input := baseCreateInput()
	input.Type = TypeOutbound
	input.ReferenceType = RefTransferOrder
	input.TransferToWarehouse = "East DC"
	input.TransferDate = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	headers, err := repo.ListFull(context.Background())
	require.NoError(t, err)
	require.Equal(t, input.TransferDate, headers[1].Date)
	// Destination inherits the source inventory status when none given.
	require.Equal(t, StatusStock, headers[1].Details[0].InventoryStatus)
}

func TestDeleteHeaderBlockedByTransferPair(t *testing.T) {
	svc, repo, _ := newTestService()

	input := baseCreateInput()
	input.Type = TypeOutbound
	input.ReferenceType = RefTransferOrder
	input.TransferToWarehouse = "East DC"
	outbound, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	err = svc.DeleteHeader(context.Background(), outbound.ID)
	var related ErrRelatedExist
	require.ErrorAs(t, err, &related)
	require.Equal(t, []string{"IB-100001"}, related.References)
	require.Contains(t, related.Error(), "IB-100001")

	// Deleting the inbound leg first unblocks the outbound.
	headers, err := repo.ListFull(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteHeader(context.Background(), headers[1].ID))
	require.NoError(t, svc.DeleteHeader(context.Background(), outbound.ID))
}

func TestCreateAdjustmentSkipsZeroVariance(t *testing.T) {
	svc, repo, _ := newTestService()

	header, err := svc.CreateAdjustment(context.Background(), AdjustmentInput{
		Warehouse: "Main DC",
		Date:      time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		ActorID:   "user-1",
		Lines: []AdjustmentLine{
			{ItemName: "Widget 12x1 l/case", Quantity: -20, InventoryStatus: StatusStock, Comment: "Count shortage"},
			{ItemName: "Gadget 6x500 ml/case", Quantity: 0, InventoryStatus: StatusStock},
			{ItemName: "Sprocket 4x2 l/case", Quantity: 5, InventoryStatus: StatusHold, Comment: "Count overage"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "ADJ-100001", header.ReferenceNumber)
	require.Equal(t, "Inventory count adjustment for Main DC as of 2024-03-04", header.Comments)
	require.Equal(t, string(RefInventoryCount), header.ReferenceType)

	details := repo.details[header.ID]
	require.Len(t, details, 2)
	for _, d := range details {
		require.Equal(t, LineCompleted, d.Status)
		require.NotZero(t, d.Quantity)
	}
}

func TestCreateAdjustmentAllZeroStillCreatesHeader(t *testing.T) {
	svc, repo, _ := newTestService()

	header, err := svc.CreateAdjustment(context.Background(), AdjustmentInput{
		Warehouse: "Main DC",
		Date:      time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Lines:     []AdjustmentLine{{ItemName: "Widget 12x1 l/case", Quantity: 0}},
	})
	require.NoError(t, err)
	require.Empty(t, repo.details[header.ID])
	require.Contains(t, repo.headers, header.ID)
}

func TestUpdateDetailValidatesStatusAgainstHeaderType(t *testing.T) {
	svc, repo, _ := newTestService()

	header, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)
	detail := repo.details[header.ID][0]

	update := DetailUpdate{
		DetailID:        detail.ID,
		Quantity:        12,
		InventoryStatus: StatusStock,
		Status:          LineShipped,
	}
	err = svc.UpdateDetail(context.Background(), header.ID, update, "user-2")
	var invalid ErrInvalidStatus
	require.ErrorAs(t, err, &invalid)

	update.Status = LineReceived
	require.NoError(t, svc.UpdateDetail(context.Background(), header.ID, update, "user-2"))
	require.Equal(t, float64(12), repo.details[header.ID][0].Quantity)
	require.Equal(t, "user-2", repo.details[header.ID][0].LastEditedBy)
}

func TestUpdateHeaderKeepsWarehouse(t *testing.T) {
	svc, repo, _ := newTestService()

	header, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)

	update := HeaderUpdate{
		Date:      time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Warehouse: header.Warehouse,
		Comments:  "carrier rebooked",
	}
	require.NoError(t, svc.UpdateHeader(context.Background(), header.ID, update, "user-2"))

	stored := repo.headers[header.ID]
	require.Equal(t, "Main DC", stored.Warehouse)
	require.Equal(t, "carrier rebooked", stored.Comments)
	require.Equal(t, "user-2", stored.LastEditedBy)
}

func TestPendingFiltersWarehouseAndDate(t *testing.T) {
	svc, _, _ := newTestService()

	early := baseCreateInput()
	early.Date = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), early)
	require.NoError(t, err)

	late := baseCreateInput()
	late.Date = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(context.Background(), late)
	require.NoError(t, err)

	other := baseCreateInput()
	other.Warehouse = "East DC"
	other.Date = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(context.Background(), other)
	require.NoError(t, err)

	pending, err := svc.Pending(context.Background(), "Main DC", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, early.Date, pending[0].Date)
}

func TestServiceRecordsActions(t *testing.T) {
	svc, _, audit := newTestService()

	header, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteHeader(context.Background(), header.ID))

	require.Len(t, audit.actions, 2)
	require.Equal(t, "create_transaction", audit.actions[0].actionType)
	require.Equal(t, "delete_transaction", audit.actions[1].actionType)
}

func TestNextSequenceParsesSuffix(t *testing.T) {
	require.Equal(t, FirstSequence, NextSequence(""))
	require.Equal(t, 100002, NextSequence("IB-100001"))
	require.Equal(t, FirstSequence, NextSequence("garbage"))
	require.Equal(t, 100051, NextSequence("ADJ-100050"))
}

func TestAddBusinessDaysSkipsWeekends(t *testing.T) {
	friday := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), AddBusinessDays(friday, 2))

	wednesday := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), AddBusinessDays(wednesday, 2))
}
