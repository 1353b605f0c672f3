package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/comedor-system/api/internal/database"
	"github.com/comedor-system/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DishStore defines the database methods needed by dish handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DishStore interface {
	ListDishes(ctx context.Context, dishType pgtype.Text) ([]database.Dish, error)
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	DeleteDish(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// DishHandler handles menu catalog endpoints.
type DishHandler struct {
	store DishStore
}

// NewDishHandler creates a new DishHandler.
func NewDishHandler(store DishStore) *DishHandler {
	return &DishHandler{store: store}
}

// RegisterRoutes registers dish endpoints on the given Chi router.
func (h *DishHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createDishRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Price string `json:"price"`
}

type dishResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func toDishResponse(d database.Dish) dishResponse {
	return dishResponse{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		Price:     numericToString(d.Price),
		CreatedAt: d.CreatedAt,
	}
}

// --- Handlers ---

// List handles GET /api/dishes. The type query parameter filters by meal
// category; an unknown value is ignored, not rejected, per the original
// catalog contract.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := pgtype.Text{}
	if t := r.URL.Query().Get("type"); isValidDishType(t) {
		filter = pgtype.Text{String: t, Valid: true}
	}

	dishes, err := h.store.ListDishes(r.Context(), filter)
	if err != nil {
		writeInternal(w, "list dishes", err)
		return
	}

	resp := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		resp[i] = toDishResponse(d)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/dishes.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Type == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, type, and price are required"})
		return
	}

	if !isValidDishType(req.Type) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid type"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative amount"})
		return
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		Name:  req.Name,
		Type:  req.Type,
		Price: decimalToNumeric(price),
	})
	if err != nil {
		writeInternal(w, "create dish", err)
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// Delete handles DELETE /api/dishes/{id}. Order lines that reference the
// dish survive with a null reference and render as placeholders.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dishID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	if _, err := h.store.DeleteDish(r.Context(), dishID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		writeInternal(w, "delete dish", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "dish deleted"})
}

// --- Helpers ---

func isValidDishType(t string) bool {
	switch t {
	case enum.DishTypeDesayuno, enum.DishTypeAlmuerzo, enum.DishTypeCena:
		return true
	}
	return false
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
