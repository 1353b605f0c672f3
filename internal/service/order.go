package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comedor-system/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Errors returned by the order service.
var (
	ErrEmptyDishes   = errors.New("dishes are required")
	ErrInvalidDishID = errors.New("invalid dish_id")
	ErrDishNotFound  = errors.New("dish not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	UserID  uuid.UUID
	Mesa    string
	DishIDs []string
}

// CreateOrderResult is the full created order with its lines.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order creation business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates the cart and persists the order header plus one line
// per dish reference atomically. A repeated dish is a repeated line, never a
// quantity. A failure on any line rolls back the header.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.DishIDs) == 0 {
		return nil, ErrEmptyDishes
	}

	dishIDs := make([]uuid.UUID, len(req.DishIDs))
	for i, raw := range req.DishIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("dishes[%d]: %w", i, ErrInvalidDishID)
		}
		dishIDs[i] = id
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Validate every dish reference before inserting anything.
	for i, id := range dishIDs {
		if _, err := store.GetDish(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("dishes[%d]: %w", i, ErrDishNotFound)
			}
			return nil, fmt.Errorf("dishes[%d]: get dish: %w", i, err)
		}
	}

	mesa := pgtypeText(req.Mesa)
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID: req.UserID,
		Mesa:   mesa,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(dishIDs))
	for i, id := range dishIDs {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:  order.ID,
			DishID:   id,
			Position: int32(i),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

func pgtypeText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
