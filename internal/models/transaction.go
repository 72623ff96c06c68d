package models

import "time"

// TransactionType is the direction of money for a transaction.
type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionExpense, TransactionIncome:
		return true
	}
	return false
}

// Transaction represents a single income or expense entry owned by a user.
type Transaction struct {
	ID          string          `json:"id" bson:"_id"`
	UserID      string          `json:"userId" bson:"userId"`
	Type        TransactionType `json:"type" bson:"type"`
	Amount      float64         `json:"amount" bson:"amount"`
	Date        time.Time       `json:"date" bson:"date"`
	Category    string          `json:"category" bson:"category"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
}
