package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createDish = `
INSERT INTO dishes (name, type, price)
VALUES ($1, $2, $3)
RETURNING id, name, type, price, created_at
`

type CreateDishParams struct {
	Name  string
	Type  string
	Price pgtype.Numeric
}

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, createDish, arg.Name, arg.Type, arg.Price)
	var d Dish
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Price, &d.CreatedAt)
	return d, err
}

const listDishes = `
SELECT id, name, type, price, created_at
FROM dishes
WHERE $1::text IS NULL OR type = $1
ORDER BY created_at ASC
`

// ListDishes returns the catalog, optionally filtered by meal type when the
// argument is non-null.
func (q *Queries) ListDishes(ctx context.Context, dishType pgtype.Text) ([]Dish, error) {
	rows, err := q.db.Query(ctx, listDishes, dishType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dishes []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Price, &d.CreatedAt); err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

const getDish = `
SELECT id, name, type, price, created_at
FROM dishes
WHERE id = $1
`

func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	row := q.db.QueryRow(ctx, getDish, id)
	var d Dish
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Price, &d.CreatedAt)
	return d, err
}

const deleteDish = `
DELETE FROM dishes
WHERE id = $1
RETURNING id
`

// DeleteDish removes a dish from the catalog. Historical order lines keep a
// null dish reference (ON DELETE SET NULL). Returns pgx.ErrNoRows when the
// id matches nothing.
func (q *Queries) DeleteDish(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteDish, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
