package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/comedor-system/api/internal/database"
	"github.com/comedor-system/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentServicer defines the service methods needed by payment handlers.
// Satisfied by *service.PaymentService; narrow interface for testability.
type PaymentServicer interface {
	Settle(ctx context.Context, entries []service.SettleEntry) ([]service.SettleResult, error)
}

// PaymentReadStore defines the database methods needed by payment reads.
// Satisfied by *database.Queries.
type PaymentReadStore interface {
	ListPayments(ctx context.Context) ([]database.Payment, error)
}

// PaymentHandler handles settlement endpoints.
type PaymentHandler struct {
	svc   PaymentServicer
	store PaymentReadStore
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, store PaymentReadStore) *PaymentHandler {
	return &PaymentHandler{svc: svc, store: store}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Settle)
	r.Get("/", h.List)
}

// --- Request / Response types ---

type settleEntryRequest struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
	Method  string `json:"method"`
}

type paymentResponse struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Total   string    `json:"total"`
	Method  string    `json:"method"`
	PaidAt  time.Time `json:"paid_at"`
}

type settleResponse struct {
	Payments []paymentResponse `json:"payments"`
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:      p.ID,
		OrderID: p.OrderID,
		Total:   numericToString(p.Total),
		Method:  p.Method,
		PaidAt:  p.PaidAt,
	}
}

// --- Handlers ---

// Settle handles POST /api/payments. The body is an array of settlement
// entries; the batch commits or rolls back as a whole.
func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req []settleEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	entries := make([]service.SettleEntry, len(req))
	for i, e := range req {
		entries[i] = service.SettleEntry{
			OrderID: e.OrderID,
			Total:   e.Total,
			Method:  e.Method,
		}
	}

	results, err := h.svc.Settle(r.Context(), entries)
	if err != nil {
		switch {
		case isSettleValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyPaid) || errors.Is(err, service.ErrOrderNotServed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeInternal(w, "settle payments", err)
		}
		return
	}

	resp := settleResponse{Payments: make([]paymentResponse, len(results))}
	for i, res := range results {
		resp.Payments[i] = toPaymentResponse(res.Payment)
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.store.ListPayments(r.Context())
	if err != nil {
		writeInternal(w, "list payments", err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func isSettleValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyBatch) ||
		errors.Is(err, service.ErrMissingOrderID) ||
		errors.Is(err, service.ErrInvalidOrderID) ||
		errors.Is(err, service.ErrMissingTotal) ||
		errors.Is(err, service.ErrInvalidTotal) ||
		errors.Is(err, service.ErrMissingMethod)
}
