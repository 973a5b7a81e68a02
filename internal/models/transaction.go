package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TypeIncome and TypeExpense are the only valid transaction and category types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// ValidType reports whether t is a known transaction type.
func ValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents a row in the transactions table.
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Amount accepts a JSON number or a numeric string ("12.50") and rejects
// anything that does not parse to a finite number.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var err error
		s, err = strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid amount")
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid amount")
	}
	*a = Amount(f)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(a))
}

// dateLayouts are the accepted request formats for transaction dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date")
}

// TransactionRequest is the JSON body for POST /api/transactions and each
// element of POST /api/transactions/bulk.
type TransactionRequest struct {
	Type        string  `json:"type"`
	Amount      *Amount `json:"amount"`
	Date        *Date   `json:"date"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Description string  `json:"description"`
}

// Validate checks the request and returns the transaction to persist.
func (r *TransactionRequest) Validate() (*Transaction, error) {
	if !ValidType(r.Type) {
		return nil, fmt.Errorf("type must be %q or %q", TypeIncome, TypeExpense)
	}
	if r.Amount == nil {
		return nil, fmt.Errorf("amount is required")
	}
	if r.Date == nil {
		return nil, fmt.Errorf("date is required")
	}
	return &Transaction{
		Type:        r.Type,
		Amount:      float64(*r.Amount),
		Date:        r.Date.Time,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Description: r.Description,
	}, nil
}

// TransactionPatch is the JSON body for PUT /api/transactions/{id}. Only
// fields present in the request are applied.
type TransactionPatch struct {
	Type        *string `json:"type"`
	Amount      *Amount `json:"amount"`
	Date        *Date   `json:"date"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Description *string `json:"description"`
}

// Validate rejects patches with no recognized fields or an invalid type.
func (p *TransactionPatch) Validate() error {
	if p.Type != nil && !ValidType(*p.Type) {
		return fmt.Errorf("type must be %q or %q", TypeIncome, TypeExpense)
	}
	if p.Type == nil && p.Amount == nil && p.Date == nil &&
		p.Category == nil && p.Subcategory == nil && p.Description == nil {
		return fmt.Errorf("no fields to update")
	}
	return nil
}

// Apply overwrites the present fields on t.
func (p *TransactionPatch) Apply(t *Transaction) {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = float64(*p.Amount)
	}
	if p.Date != nil {
		t.Date = p.Date.Time
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subcategory != nil {
		t.Subcategory = *p.Subcategory
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}

// DeleteBulkRequest is the JSON body for DELETE /api/transactions/bulk.
type DeleteBulkRequest struct {
	IDs []json.Number `json:"ids"`
}

// ValidIDs filters the request down to positive integer ids.
func (r *DeleteBulkRequest) ValidIDs() []int64 {
	var ids []int64
	for _, n := range r.IDs {
		id, err := n.Int64()
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
