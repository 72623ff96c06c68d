// Package finance aggregates transactions into the totals used by reports and
// the assistant prompt.
package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
)

// NearThreshold is the share of a budget at which spending counts as near the limit.
const NearThreshold = 0.8

// Summary holds the totals over a set of transactions.
type Summary struct {
	TotalIncome  float64            `json:"totalIncome"`
	TotalExpense float64            `json:"totalExpense"`
	Balance      float64            `json:"balance"`
	ByCategory   map[string]float64 `json:"byCategory"`
}

// CategoryTotal is one row of the expense breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Summarize totals income and expenses. ByCategory only covers expenses.
func Summarize(txs []models.Transaction) Summary {
	s := Summary{ByCategory: make(map[string]float64)}
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionIncome:
			s.TotalIncome += tx.Amount
		case models.TransactionExpense:
			s.TotalExpense += tx.Amount
			s.ByCategory[tx.Category] += tx.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	return s
}

// Categories returns the expense breakdown sorted by amount, largest first.
// Ties are broken by category name.
func (s Summary) Categories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.ByCategory))
	for c, a := range s.ByCategory {
		out = append(out, CategoryTotal{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BudgetState classifies spending against a budget.
type BudgetState string

const (
	BudgetUnder BudgetState = "under"
	BudgetNear  BudgetState = "near"
	BudgetOver  BudgetState = "over"
)

// BudgetStatus compares a budget with the matching expense total.
type BudgetStatus struct {
	Category    string      `json:"category"`
	Limit       float64     `json:"limit"`
	Spent       float64     `json:"spent"`
	Remaining   float64     `json:"remaining"`
	PercentUsed float64     `json:"percentUsed"`
	State       BudgetState `json:"state"`
}

// BudgetStatuses reports each budget against the summary. Categories match
// case-insensitively.
func BudgetStatuses(budgets []models.Budget, s Summary) []BudgetStatus {
	spentBy := make(map[string]float64, len(s.ByCategory))
	for c, a := range s.ByCategory {
		spentBy[strings.ToLower(c)] += a
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := spentBy[strings.ToLower(b.Category)]
		st := BudgetStatus{
			Category:  b.Category,
			Limit:     b.Amount,
			Spent:     spent,
			Remaining: b.Amount - spent,
		}
		switch {
		case b.Amount > 0:
			st.PercentUsed = spent / b.Amount * 100
		case spent > 0:
			st.PercentUsed = 100
		}
		switch {
		case spent > b.Amount:
			st.State = BudgetOver
		case b.Amount > 0 && spent >= b.Amount*NearThreshold:
			st.State = BudgetNear
		default:
			st.State = BudgetUnder
		}
		out = append(out, st)
	}
	return out
}

// FilterMonth keeps the transactions dated in the given month (UTC).
func FilterMonth(txs []models.Transaction, year int, month time.Month) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		d := tx.Date.UTC()
		if d.Year() == year && d.Month() == month {
			out = append(out, tx)
		}
	}
	return out
}
