package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comedor-system/api/internal/auth"
	"github.com/comedor-system/api/internal/database"
	"github.com/comedor-system/api/internal/enum"
	"github.com/comedor-system/api/internal/handler"
	mw "github.com/comedor-system/api/internal/middleware"
	"github.com/comedor-system/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mocks ---

type mockOrderServicer struct {
	createFn func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

func (m *mockOrderServicer) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, req)
}

type mockOrderStore struct {
	orders map[uuid.UUID]database.Order
	items  []database.OrderItemDetail
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[uuid.UUID]database.Order)}
}

func (m *mockOrderStore) addOrder(status string) database.Order {
	o := database.Order{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Mesa:      pgtype.Text{String: "5", Valid: true},
		Status:    status,
		CreatedAt: time.Now(),
	}
	m.orders[o.ID] = o
	return o
}

func (m *mockOrderStore) ListOrders(_ context.Context, status pgtype.Text) ([]database.Order, error) {
	var out []database.Order
	for _, o := range m.orders {
		if status.Valid && o.Status != status.String {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderStore) ListOrderItemsByOrders(_ context.Context, orderIDs []uuid.UUID) ([]database.OrderItemDetail, error) {
	wanted := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	var out []database.OrderItemDetail
	for _, it := range m.items {
		if wanted[it.OrderID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockOrderStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderStore) UpdateOrderStatus(_ context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.Status != arg.ExpectedStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	m.orders[arg.ID] = o
	return o, nil
}

// --- Helpers ---

// newOrderRouter wires the order handler behind the real auth middleware so
// requests carry verified claims, the way the production router mounts it.
func newOrderRouter(svc handler.OrderServicer, store *mockOrderStore) chi.Router {
	h := handler.NewOrderHandler(svc, store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(testSecret))
		h.RegisterRoutes(r)
	})
	return r
}

// doAuthRequest performs a request with a real signed token for the given
// user and role.
func doAuthRequest(t *testing.T, router http.Handler, method, path string, userID uuid.UUID, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	token, err := auth.GenerateToken(testSecret, userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func passingOrderServicer(captured *service.CreateOrderRequest) *mockOrderServicer {
	return &mockOrderServicer{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			if captured != nil {
				*captured = req
			}
			return &service.CreateOrderResult{
				Order: database.Order{
					ID:     uuid.New(),
					UserID: req.UserID,
					Status: enum.OrderStatusPendiente,
				},
			}, nil
		},
	}
}

// --- Create tests ---

func TestCreateOrder_ReturnsOrderID(t *testing.T) {
	svc := passingOrderServicer(nil)
	r := newOrderRouter(svc, newMockOrderStore())

	rr := doAuthRequest(t, r, "POST", "/", uuid.New(), enum.UserRoleMesero, map[string]interface{}{
		"mesa": "7",
		"dishes": []map[string]string{
			{"dish_id": uuid.New().String()},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["orderId"] == nil || resp["orderId"] == "" {
		t.Error("expected non-empty orderId")
	}
}

func TestCreateOrder_OwnerComesFromToken(t *testing.T) {
	var captured service.CreateOrderRequest
	svc := passingOrderServicer(&captured)
	r := newOrderRouter(svc, newMockOrderStore())

	authedUser := uuid.New()
	bodyUser := uuid.New()
	rr := doAuthRequest(t, r, "POST", "/", authedUser, enum.UserRoleMesero, map[string]interface{}{
		// A client-supplied user_id is ignored; the token decides.
		"user_id": bodyUser.String(),
		"dishes": []map[string]string{
			{"dish_id": uuid.New().String()},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if captured.UserID != authedUser {
		t.Errorf("order owner: got %v, want %v (the authenticated user)", captured.UserID, authedUser)
	}
}

func TestCreateOrder_RepeatedDishKeptAsRepeatedEntries(t *testing.T) {
	var captured service.CreateOrderRequest
	svc := passingOrderServicer(&captured)
	r := newOrderRouter(svc, newMockOrderStore())

	dishID := uuid.New().String()
	rr := doAuthRequest(t, r, "POST", "/", uuid.New(), enum.UserRoleMesero, map[string]interface{}{
		"dishes": []map[string]string{
			{"dish_id": dishID},
			{"dish_id": dishID},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(captured.DishIDs) != 2 {
		t.Fatalf("dish refs: got %d, want 2", len(captured.DishIDs))
	}
	if captured.DishIDs[0] != dishID || captured.DishIDs[1] != dishID {
		t.Error("repeated dish references must be passed through, not collapsed")
	}
}

func TestCreateOrder_EmptyDishes(t *testing.T) {
	called := false
	svc := &mockOrderServicer{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			called = true
			return nil, nil
		},
	}
	r := newOrderRouter(svc, newMockOrderStore())

	rr := doAuthRequest(t, r, "POST", "/", uuid.New(), enum.UserRoleMesero, map[string]interface{}{
		"dishes": []map[string]string{},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service should not be called for an empty cart")
	}
}

func TestCreateOrder_MissingDishID(t *testing.T) {
	svc := passingOrderServicer(nil)
	r := newOrderRouter(svc, newMockOrderStore())

	rr := doAuthRequest(t, r, "POST", "/", uuid.New(), enum.UserRoleMesero, map[string]interface{}{
		"dishes": []map[string]string{
			{"dish_id": ""},
		},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateOrder_UnknownDish(t *testing.T) {
	svc := &mockOrderServicer{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, service.ErrDishNotFound
		},
	}
	r := newOrderRouter(svc, newMockOrderStore())

	rr := doAuthRequest(t, r, "POST", "/", uuid.New(), enum.UserRoleMesero, map[string]interface{}{
		"dishes": []map[string]string{
			{"dish_id": uuid.New().String()},
		},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	svc := passingOrderServicer(nil)
	r := newOrderRouter(svc, newMockOrderStore())

	rr := postJSON(t, r, "/", map[string]interface{}{
		"dishes": []map[string]string{
			{"dish_id": uuid.New().String()},
		},
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- List tests ---

func TestListOrders_IncludesLines(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusPendiente)
	store.items = []database.OrderItemDetail{
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			DishID:    pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Position:  0,
			DishName:  pgtype.Text{String: "Pozole rojo", Valid: true},
			DishType:  pgtype.Text{String: enum.DishTypeCena, Valid: true},
			DishPrice: makeTestNumeric("90.00"),
		},
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			DishID:    pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Position:  1,
			DishName:  pgtype.Text{String: "Quesadillas", Valid: true},
			DishType:  pgtype.Text{String: enum.DishTypeCena, Valid: true},
			DishPrice: makeTestNumeric("45.00"),
		},
	}
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "GET", "/", uuid.New(), enum.UserRoleCocina, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("orders: got %d, want 1", len(resp))
	}

	dishes, ok := resp[0]["dishes"].([]interface{})
	if !ok {
		t.Fatal("expected dishes array")
	}
	if len(dishes) != 2 {
		t.Fatalf("lines: got %d, want 2", len(dishes))
	}
	first := dishes[0].(map[string]interface{})
	if first["name"] != "Pozole rojo" {
		t.Errorf("first line: got %v, want Pozole rojo (cart order preserved)", first["name"])
	}
	if first["price"] != "90.00" {
		t.Errorf("first line price: got %v, want 90.00", first["price"])
	}
}

func TestListOrders_RepeatedDishTotalsFromLines(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusServido)
	omelette := uuid.New()
	store.items = []database.OrderItemDetail{
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			DishID:    pgtype.UUID{Bytes: omelette, Valid: true},
			Position:  0,
			DishName:  pgtype.Text{String: "Omelette", Valid: true},
			DishType:  pgtype.Text{String: enum.DishTypeDesayuno, Valid: true},
			DishPrice: makeTestNumeric("45.00"),
		},
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			DishID:    pgtype.UUID{Bytes: omelette, Valid: true},
			Position:  1,
			DishName:  pgtype.Text{String: "Omelette", Valid: true},
			DishType:  pgtype.Text{String: enum.DishTypeDesayuno, Valid: true},
			DishPrice: makeTestNumeric("45.00"),
		},
	}
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "GET", "/", uuid.New(), enum.UserRoleCobrador, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeList(t, rr)
	dishes := resp[0]["dishes"].([]interface{})
	if len(dishes) != 2 {
		t.Fatalf("lines: got %d, want 2 (one per reference, no quantity collapse)", len(dishes))
	}

	total := decimal.Zero
	for _, d := range dishes {
		line := d.(map[string]interface{})
		p, err := decimal.NewFromString(line["price"].(string))
		if err != nil {
			t.Fatalf("parse line price: %v", err)
		}
		total = total.Add(p)
	}
	if total.StringFixed(2) != "90.00" {
		t.Errorf("order total from lines: got %s, want 90.00", total.StringFixed(2))
	}
}

func TestListOrders_DeletedDishRendersPlaceholder(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusServido)
	store.items = []database.OrderItemDetail{
		{
			ID:      uuid.New(),
			OrderID: order.ID,
			// The dish row is gone; the line survives with a null reference.
			DishID:   pgtype.UUID{},
			Position: 0,
		},
	}
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "GET", "/", uuid.New(), enum.UserRoleCocina, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeList(t, rr)
	dishes := resp[0]["dishes"].([]interface{})
	line := dishes[0].(map[string]interface{})
	if line["name"] != "(platillo eliminado)" {
		t.Errorf("line name: got %v, want (platillo eliminado)", line["name"])
	}
}

func TestListOrders_FilterByStatus(t *testing.T) {
	store := newMockOrderStore()
	store.addOrder(enum.OrderStatusPendiente)
	store.addOrder(enum.OrderStatusServido)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "GET", "/?status=servido", uuid.New(), enum.UserRoleCobrador, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("orders: got %d, want 1", len(resp))
	}
	if resp[0]["status"] != enum.OrderStatusServido {
		t.Errorf("order status: got %v, want servido", resp[0]["status"])
	}
}

func TestListOrders_InvalidStatusFilter(t *testing.T) {
	r := newOrderRouter(passingOrderServicer(nil), newMockOrderStore())

	rr := doAuthRequest(t, r, "GET", "/?status=cancelado", uuid.New(), enum.UserRoleCocina, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListOrders_NoLinesIsEmptyArray(t *testing.T) {
	store := newMockOrderStore()
	store.addOrder(enum.OrderStatusPendiente)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "GET", "/", uuid.New(), enum.UserRoleCocina, nil)
	resp := decodeList(t, rr)

	if _, ok := resp[0]["dishes"].([]interface{}); !ok {
		t.Errorf("dishes should be an empty array, got %v", resp[0]["dishes"])
	}
}

// --- Status transition tests ---

func TestUpdateOrderStatus_PendienteToEnProceso(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusPendiente)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "PATCH", "/"+order.ID.String(), uuid.New(), enum.UserRoleCocina, map[string]string{
		"status": enum.OrderStatusEnProceso,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.orders[order.ID].Status != enum.OrderStatusEnProceso {
		t.Errorf("stored status: got %s, want en_proceso", store.orders[order.ID].Status)
	}
}

func TestUpdateOrderStatus_PendienteDirectToServido(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusPendiente)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "PATCH", "/"+order.ID.String(), uuid.New(), enum.UserRoleCocina, map[string]string{
		"status": enum.OrderStatusServido,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestUpdateOrderStatus_BackwardsRejected(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusServido)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "PATCH", "/"+order.ID.String(), uuid.New(), enum.UserRoleCocina, map[string]string{
		"status": enum.OrderStatusPendiente,
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if store.orders[order.ID].Status != enum.OrderStatusServido {
		t.Error("order status must not change on a rejected transition")
	}
}

func TestUpdateOrderStatus_PagadoNotReachableHere(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusServido)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "PATCH", "/"+order.ID.String(), uuid.New(), enum.UserRoleCocina, map[string]string{
		"status": enum.OrderStatusPagado,
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	store := newMockOrderStore()
	order := store.addOrder(enum.OrderStatusPendiente)
	r := newOrderRouter(passingOrderServicer(nil), store)

	rr := doAuthRequest(t, r, "PATCH", "/"+order.ID.String(), uuid.New(), enum.UserRoleCocina, map[string]string{
		"status": "cancelado",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateOrderStatus_OrderNotFound(t *testing.T) {
	r := newOrderRouter(passingOrderServicer(nil), newMockOrderStore())

	rr := doAuthRequest(t, r, "PATCH", "/"+uuid.New().String(), uuid.New(), enum.UserRoleCocina, map[string]string{
		"status": enum.OrderStatusEnProceso,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
