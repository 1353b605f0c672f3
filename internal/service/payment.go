package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comedor-system/api/internal/database"
	"github.com/comedor-system/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the payment service.
var (
	ErrEmptyBatch     = errors.New("payments are required")
	ErrMissingOrderID = errors.New("order_id is required")
	ErrInvalidOrderID = errors.New("invalid order_id")
	ErrMissingTotal   = errors.New("total is required")
	ErrInvalidTotal   = errors.New("total must be a positive amount")
	ErrMissingMethod  = errors.New("method is required")
	ErrOrderNotFound  = errors.New("order not found")
	ErrAlreadyPaid    = errors.New("order is already paid")
	ErrOrderNotServed = errors.New("order has not been served")
)

// PaymentStore defines the DB methods needed to settle orders.
// Satisfied by *database.Queries (and its WithTx variant).
type PaymentStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX (pool or tx).
type NewPaymentStore func(db database.DBTX) PaymentStore

// SettleEntry is one order settlement within a batch.
type SettleEntry struct {
	OrderID string
	Total   string
	Method  string
}

// SettleResult pairs a recorded payment with the order it stamped paid.
type SettleResult struct {
	Payment database.Payment
	Order   database.Order
}

// PaymentService settles payment batches.
type PaymentService struct {
	pool     TxBeginner
	newStore NewPaymentStore
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(pool TxBeginner, newStore NewPaymentStore) *PaymentService {
	return &PaymentService{pool: pool, newStore: newStore}
}

// Settle records every payment in the batch and advances each order to
// pagado inside a single transaction: a failure on entry k rolls back
// entries 1..k-1. Each order row is locked first, so two cashiers racing to
// settle the same order serialize and the loser gets ErrAlreadyPaid.
func (s *PaymentService) Settle(ctx context.Context, entries []SettleEntry) ([]SettleResult, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	type parsedEntry struct {
		orderID uuid.UUID
		total   decimal.Decimal
		method  string
	}

	parsed := make([]parsedEntry, len(entries))
	for i, e := range entries {
		if e.OrderID == "" {
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrMissingOrderID)
		}
		orderID, err := uuid.Parse(e.OrderID)
		if err != nil {
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrInvalidOrderID)
		}
		if e.Total == "" {
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrMissingTotal)
		}
		total, err := decimal.NewFromString(e.Total)
		if err != nil || total.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrInvalidTotal)
		}
		if e.Method == "" {
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrMissingMethod)
		}
		parsed[i] = parsedEntry{orderID: orderID, total: total, method: e.Method}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	results := make([]SettleResult, 0, len(parsed))
	for i, e := range parsed {
		order, err := store.GetOrderForUpdate(ctx, e.orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("payments[%d]: %w", i, ErrOrderNotFound)
			}
			return nil, fmt.Errorf("payments[%d]: get order: %w", i, err)
		}

		switch order.Status {
		case enum.OrderStatusServido:
			// settleable
		case enum.OrderStatusPagado:
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrAlreadyPaid)
		default:
			return nil, fmt.Errorf("payments[%d]: %w", i, ErrOrderNotServed)
		}

		payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID: e.orderID,
			Total:   decimalToNumeric(e.total),
			Method:  e.method,
		})
		if err != nil {
			return nil, fmt.Errorf("payments[%d]: create payment: %w", i, err)
		}

		paid, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			Status:         enum.OrderStatusPagado,
			ID:             e.orderID,
			ExpectedStatus: enum.OrderStatusServido,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("payments[%d]: %w", i, ErrAlreadyPaid)
			}
			return nil, fmt.Errorf("payments[%d]: update order status: %w", i, err)
		}

		results = append(results, SettleResult{Payment: payment, Order: paid})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return results, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
