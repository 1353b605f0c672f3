package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createPayment = `
INSERT INTO payments (order_id, total, method)
VALUES ($1, $2, $3)
RETURNING id, order_id, total, method, paid_at
`

type CreatePaymentParams struct {
	OrderID uuid.UUID
	Total   pgtype.Numeric
	Method  string
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment, arg.OrderID, arg.Total, arg.Method)
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Total, &p.Method, &p.PaidAt)
	return p, err
}

const listPayments = `
SELECT id, order_id, total, method, paid_at
FROM payments
ORDER BY paid_at ASC
`

func (q *Queries) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPayments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Total, &p.Method, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

const listPaymentsByOrder = `
SELECT id, order_id, total, method, paid_at
FROM payments
WHERE order_id = $1
ORDER BY paid_at ASC
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Total, &p.Method, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
