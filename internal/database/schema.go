package database

import (
	"context"
	"log"
)

// schemaStatements is the full DDL the application needs, in dependency
// order. Every statement is idempotent so the list can run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('administrador', 'mesero', 'cocina', 'cobrador')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS dishes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('desayuno', 'almuerzo', 'cena')),
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'pendiente'
			CHECK (status IN ('pendiente', 'en_proceso', 'servido', 'pagado')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id),
		total NUMERIC(10,2) NOT NULL,
		paid_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		dish_id UUID REFERENCES dishes(id) ON DELETE SET NULL,
		position INT NOT NULL DEFAULT 0
	)`,
	// Columns added after the initial release.
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS mesa VARCHAR(10)`,
	`ALTER TABLE payments ADD COLUMN IF NOT EXISTS method VARCHAR(50) NOT NULL DEFAULT 'efectivo'`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
}

// EnsureSchema runs all schema statements, logging and skipping past
// failures. Best-effort: a single bad statement never blocks the rest or
// startup. Acceptable for a single-tenant deployment where concurrent
// alters cannot race.
func EnsureSchema(ctx context.Context, db DBTX) {
	failed := 0
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			failed++
			log.Printf("ERROR: ensure schema: %v", err)
		}
	}
	if failed > 0 {
		log.Printf("schema ensured with %d failed statement(s)", failed)
	} else {
		log.Println("schema ensured")
	}
}
