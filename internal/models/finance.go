package models

import (
	"fmt"
	"math"
	"time"
)

// Category represents a row in the categories table. Categories form an
// optional hierarchy through ParentID.
type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryRequest is the JSON body for creating or updating a category.
type CategoryRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id"`
}

func (r *CategoryRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidType(r.Type) {
		return fmt.Errorf("type must be %q or %q", TypeIncome, TypeExpense)
	}
	return nil
}

// Wallet represents a row in the wallets table. Balance carries two-decimal
// currency semantics; it is rounded at the API boundary.
type Wallet struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Balance   float64   `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// WalletRequest is the JSON body for creating or updating a wallet.
type WalletRequest struct {
	Name     string  `json:"name"`
	Balance  *Amount `json:"balance"`
	Currency string  `json:"currency"`
}

func (r *WalletRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code")
	}
	return nil
}

// RoundBalance normalizes a balance to two decimal places.
func RoundBalance(v float64) float64 {
	return math.Round(v*100) / 100
}
