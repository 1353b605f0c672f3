package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (user_id, mesa)
VALUES ($1, $2)
RETURNING id, user_id, mesa, status, created_at
`

type CreateOrderParams struct {
	UserID uuid.UUID
	Mesa   pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.UserID, arg.Mesa)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Mesa, &o.Status, &o.CreatedAt)
	return o, err
}

const createOrderItem = `
INSERT INTO order_items (order_id, dish_id, position)
VALUES ($1, $2, $3)
RETURNING id, order_id, dish_id, position
`

type CreateOrderItemParams struct {
	OrderID  uuid.UUID
	DishID   uuid.UUID
	Position int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.DishID, arg.Position)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Position)
	return it, err
}

const getOrder = `
SELECT id, user_id, mesa, status, created_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Mesa, &o.Status, &o.CreatedAt)
	return o, err
}

const getOrderForUpdate = `
SELECT id, user_id, mesa, status, created_at
FROM orders
WHERE id = $1
FOR UPDATE
`

// GetOrderForUpdate locks the order row for the rest of the transaction,
// serializing concurrent settlements of the same order.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Mesa, &o.Status, &o.CreatedAt)
	return o, err
}

const listOrders = `
SELECT id, user_id, mesa, status, created_at
FROM orders
WHERE $1::text IS NULL OR status = $1
ORDER BY created_at ASC, mesa ASC
`

// ListOrders returns orders oldest first, then by table label, optionally
// filtered by status when the argument is non-null.
func (q *Queries) ListOrders(ctx context.Context, status pgtype.Text) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Mesa, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrders = `
SELECT oi.id, oi.order_id, oi.dish_id, oi.position, d.name, d.type, d.price
FROM order_items oi
LEFT JOIN dishes d ON oi.dish_id = d.id
WHERE oi.order_id = ANY($1)
ORDER BY oi.order_id, oi.position ASC
`

// ListOrderItemsByOrders returns one row per order line for the given
// orders, in cart insertion order, with dish columns left null when the
// dish no longer exists.
func (q *Queries) ListOrderItemsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]OrderItemDetail, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrders, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItemDetail
	for rows.Next() {
		var it OrderItemDetail
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Position, &it.DishName, &it.DishType, &it.DishPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $1
WHERE id = $2 AND status = $3
RETURNING id, user_id, mesa, status, created_at
`

type UpdateOrderStatusParams struct {
	Status         string
	ID             uuid.UUID
	ExpectedStatus string
}

// UpdateOrderStatus advances an order with a current-status precondition.
// Returns pgx.ErrNoRows when the order is gone or its status moved under us.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.Status, arg.ID, arg.ExpectedStatus)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Mesa, &o.Status, &o.CreatedAt)
	return o, err
}
