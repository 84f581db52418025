package models

import "github.com/google/uuid"

// Budget is a per-category spending ceiling, unique by category.
type Budget struct {
	ID       uuid.UUID `db:"id"`
	Category Category  `db:"category"`
	Amount   float64   `db:"amount"`
}
