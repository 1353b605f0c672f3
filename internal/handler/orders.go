package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/comedor-system/api/internal/database"
	"github.com/comedor-system/api/internal/enum"
	"github.com/comedor-system/api/internal/middleware"
	"github.com/comedor-system/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// deletedDishPlaceholder stands in for a line whose dish was removed from
// the catalog after the order was placed.
const deletedDishPlaceholder = "(platillo eliminado)"

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update
// handlers. Satisfied by *database.Queries.
type OrderStore interface {
	ListOrders(ctx context.Context, status pgtype.Text) ([]database.Order, error)
	ListOrderItemsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]database.OrderItemDetail, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{id}", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	Dishes []createOrderDishRequest `json:"dishes"`
	// Accepted for wire compatibility with the original waiter client; the
	// owner is always the authenticated user.
	UserID string `json:"user_id"`
	Mesa   string `json:"mesa"`
}

type createOrderDishRequest struct {
	DishID string `json:"dish_id"`
}

type createOrderResponse struct {
	OrderID uuid.UUID `json:"orderId"`
}

type orderResponse struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	Mesa      string              `json:"mesa"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	Dishes    []orderLineResponse `json:"dishes"`
}

type orderLineResponse struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Price string `json:"price"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Dishes) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dishes are required"})
		return
	}

	dishIDs := make([]string, len(req.Dishes))
	for i, d := range req.Dishes {
		if d.DishID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("dishes[%d]: dish_id is required", i),
			})
			return
		}
		dishIDs[i] = d.DishID
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		UserID:  claims.UserID,
		Mesa:    req.Mesa,
		DishIDs: dishIDs,
	})
	if err != nil {
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeInternal(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusOK, createOrderResponse{OrderID: result.Order.ID})
}

// List handles GET /api/orders. Orders come back oldest first with their
// lines attached in cart insertion order.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := pgtype.Text{}
	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		filter = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), filter)
	if err != nil {
		writeInternal(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	byID := make(map[uuid.UUID]int, len(orders))
	orderIDs := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
		byID[o.ID] = i
		orderIDs[i] = o.ID
	}

	if len(orderIDs) > 0 {
		items, err := h.store.ListOrderItemsByOrders(r.Context(), orderIDs)
		if err != nil {
			writeInternal(w, "list order items", err)
			return
		}
		// Rows arrive ordered by (order_id, position); appending keeps each
		// order's lines in original cart order.
		for _, it := range items {
			i, ok := byID[it.OrderID]
			if !ok {
				continue
			}
			resp[i].Dishes = append(resp[i].Dishes, toOrderLineResponse(it))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /api/orders/{id}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	// Fetch current order to validate the transition.
	current, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		writeInternal(w, "get order for status update", err)
		return
	}

	if err := validateStatusTransition(current.Status, req.Status); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		Status:         req.Status,
		ID:             orderID,
		ExpectedStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status moved between our read and write.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		writeInternal(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// --- Helpers ---

func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyDishes) ||
		errors.Is(err, service.ErrInvalidDishID) ||
		errors.Is(err, service.ErrDishNotFound)
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		Dishes:    []orderLineResponse{},
	}
	if o.Mesa.Valid {
		resp.Mesa = o.Mesa.String
	}
	return resp
}

func toOrderLineResponse(it database.OrderItemDetail) orderLineResponse {
	if !it.DishID.Valid || !it.DishName.Valid {
		return orderLineResponse{Name: deletedDishPlaceholder, Price: "0.00"}
	}
	line := orderLineResponse{
		Name:  it.DishName.String,
		Price: numericToString(it.DishPrice),
	}
	if it.DishType.Valid {
		line.Type = it.DishType.String
	}
	return line
}

// isValidOrderStatus checks if the given status is a known order status.
func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPendiente, enum.OrderStatusEnProceso,
		enum.OrderStatusServido, enum.OrderStatusPagado:
		return true
	}
	return false
}

// allowedTransitions defines valid forward moves. pagado is terminal and is
// only reachable through the payment batch processor, never this endpoint.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPendiente: {enum.OrderStatusEnProceso, enum.OrderStatusServido},
	enum.OrderStatusEnProceso: {enum.OrderStatusServido},
}

// validateStatusTransition checks if the move from current to next is allowed.
func validateStatusTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("invalid transition: cannot transition from %s", current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("invalid transition: cannot transition from %s to %s", current, next)
}
