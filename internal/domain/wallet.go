package domain

import (
	"time"
)

type Wallet struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id" binding:"required"`
	BalanceCents int64     `json:"balance_cents" db:"balance_cents"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
