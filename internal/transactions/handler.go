package transactions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warelane/warelane/internal/platform/httpx"
	"github.com/warelane/warelane/internal/shared"
)

// Handler wires HTTP endpoints for the transactions module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs transactions handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Put("/{transactionID}", h.handleUpdateHeader)
	r.Delete("/{transactionID}", h.handleDeleteHeader)
	r.Put("/{transactionID}/details/{detailID}", h.handleUpdateDetail)
	r.Delete("/{transactionID}/details/{detailID}", h.handleDeleteDetail)
}

type createRequest struct {
	TransactionType  string      `json:"transaction_type" validate:"required,oneof=Inbound Outbound Adjustment"`
	TransactionDate  string      `json:"transaction_date" validate:"required"`
	ReferenceType    string      `json:"reference_type"`
	Warehouse        string      `json:"warehouse" validate:"required"`
	InventoryStatus  string      `json:"inventory_status" validate:"required,oneof=Stock Consignment Hold"`
	Status           string      `json:"detail_status" validate:"required"`
	ShipmentCarrier  string      `json:"shipment_carrier"`
	ShippingDocument string      `json:"shipping_document"`
	CustomerPO       string      `json:"customer_po"`
	CustomerName     string      `json:"customer_name"`
	Comments         string      `json:"comments"`
	RelatedID        string      `json:"related_transaction_id"`
	TransferTo       string      `json:"transfer_to_warehouse"`
	TransferStatus   string      `json:"transfer_to_status"`
	TransferDate     string      `json:"transfer_date"`
	Items            []LineInput `json:"items" validate:"required,min=1,dive"`
}

type updateHeaderRequest struct {
	TransactionDate  string `json:"transaction_date" validate:"required"`
	Warehouse        string `json:"warehouse"`
	ShipmentCarrier  string `json:"shipment_carrier"`
	ShippingDocument string `json:"shipping_document"`
	CustomerPO       string `json:"customer_po"`
	CustomerName     string `json:"customer_name"`
	Comments         string `json:"comments"`
}

type updateDetailRequest struct {
	Quantity        float64 `json:"quantity"`
	InventoryStatus string  `json:"inventory_status" validate:"required,oneof=Stock Consignment Hold"`
	Status          string  `json:"detail_status" validate:"required"`
	LotNumber       string  `json:"lot_number"`
	Comments        string  `json:"comments"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	headers, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list transactions failed", slog.Any("error", err))
		h.respondError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	meta := shared.NewPagination(page, perPage, len(headers))
	start := (meta.Page - 1) * meta.PerPage
	if start > len(headers) {
		start = len(headers)
	}
	end := start + meta.PerPage
	if end > len(headers) {
		end = len(headers)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": headers[start:end],
		"pagination":   meta,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.TransactionDate)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "transaction_date must be YYYY-MM-DD")
		return
	}
	var transferDate time.Time
	if req.TransferDate != "" {
		transferDate, err = time.Parse("2006-01-02", req.TransferDate)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "transfer_date must be YYYY-MM-DD")
			return
		}
	}

	input := CreateInput{
		Type:                Type(req.TransactionType),
		Date:                date,
		ReferenceType:       ReferenceType(req.ReferenceType),
		Warehouse:           req.Warehouse,
		InventoryStatus:     InventoryStatus(req.InventoryStatus),
		Status:              LineStatus(req.Status),
		ShipmentCarrier:     req.ShipmentCarrier,
		ShippingDocument:    req.ShippingDocument,
		CustomerPO:          req.CustomerPO,
		CustomerName:        req.CustomerName,
		Comments:            req.Comments,
		RelatedID:           req.RelatedID,
		TransferToWarehouse: req.TransferTo,
		TransferToStatus:    InventoryStatus(req.TransferStatus),
		TransferDate:        transferDate,
		ActorID:             actorID(r),
		Items:               req.Items,
	}
	header, err := h.service.Create(r.Context(), input)
	if err != nil {
		var invalid ErrInvalidStatus
		if errors.As(err, &invalid) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", invalid.Error())
			return
		}
		h.logger.Error("create transaction failed", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, header)
}

func (h *Handler) handleUpdateHeader(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionID")
	var req updateHeaderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.TransactionDate)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "transaction_date must be YYYY-MM-DD")
		return
	}
	update := HeaderUpdate{
		Date:             date,
		Warehouse:        req.Warehouse,
		ShipmentCarrier:  req.ShipmentCarrier,
		ShippingDocument: req.ShippingDocument,
		CustomerPO:       req.CustomerPO,
		CustomerName:     req.CustomerName,
		Comments:         req.Comments,
	}
	if err := h.service.UpdateHeader(r.Context(), id, update, actorID(r)); err != nil {
		h.logger.Error("update transaction failed", slog.Any("error", err), slog.String("transaction_id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transaction_id": id})
}

func (h *Handler) handleUpdateDetail(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")
	detailID := chi.URLParam(r, "detailID")
	var req updateDetailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	update := DetailUpdate{
		DetailID:        detailID,
		Quantity:        req.Quantity,
		InventoryStatus: InventoryStatus(req.InventoryStatus),
		Status:          LineStatus(req.Status),
		LotNumber:       req.LotNumber,
		Comments:        req.Comments,
	}
	if err := h.service.UpdateDetail(r.Context(), transactionID, update, actorID(r)); err != nil {
		var invalid ErrInvalidStatus
		if errors.As(err, &invalid) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", invalid.Error())
			return
		}
		h.logger.Error("update detail failed", slog.Any("error", err), slog.String("detail_id", detailID))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"detail_id": detailID})
}

func (h *Handler) handleDeleteDetail(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")
	detailID := chi.URLParam(r, "detailID")
	if err := h.service.DeleteDetail(r.Context(), transactionID, detailID); err != nil {
		h.logger.Error("delete detail failed", slog.Any("error", err), slog.String("detail_id", detailID))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"detail_id": detailID})
}

func (h *Handler) handleDeleteHeader(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionID")
	if err := h.service.DeleteHeader(r.Context(), id); err != nil {
		var related ErrRelatedExist
		if errors.As(err, &related) {
			httpx.Problem(w, http.StatusConflict, "Conflict", related.Error())
			return
		}
		h.logger.Error("delete transaction failed", slog.Any("error", err), slog.String("transaction_id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transaction_id": id})
}

func actorID(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	httpx.RespondError(w, err)
}
