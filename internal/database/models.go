package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

type Dish struct {
	ID        uuid.UUID
	Name      string
	Type      string
	Price     pgtype.Numeric
	CreatedAt time.Time
}

type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Mesa      pgtype.Text
	Status    string
	CreatedAt time.Time
}

type OrderItem struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	DishID   pgtype.UUID
	Position int32
}

// OrderItemDetail is one order line joined with its dish. Dish columns are
// null when the dish was deleted after the order was placed.
type OrderItemDetail struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	DishID    pgtype.UUID
	Position  int32
	DishName  pgtype.Text
	DishType  pgtype.Text
	DishPrice pgtype.Numeric
}

type Payment struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Total   pgtype.Numeric
	Method  string
	PaidAt  time.Time
}
