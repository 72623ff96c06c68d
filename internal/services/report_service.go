package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/finance"
	"github.com/isdelr/finance-tracker-be/internal/storage"
)

// Report is the monthly overview shown on the reports page.
type Report struct {
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	Summary    finance.Summary         `json:"summary"`
	Categories []finance.CategoryTotal `json:"categories"`
	Budgets    []finance.BudgetStatus  `json:"budgets"`
	Count      int                     `json:"transactionCount"`
}

// ReportServiceProvider defines the interface for reports.
type ReportServiceProvider interface {
	MonthlySummary(ctx context.Context, userID string, year int, month time.Month) (Report, error)
}

// ReportService combines transactions and budgets into reports.
type ReportService struct {
	users        storage.UserStore
	transactions storage.TransactionStore
}

// NewReportService creates a new ReportService.
func NewReportService(users storage.UserStore, transactions storage.TransactionStore) *ReportService {
	return &ReportService{users: users, transactions: transactions}
}

// MonthlySummary totals the given month and compares it with the budgets.
func (s *ReportService) MonthlySummary(ctx context.Context, userID string, year int, month time.Month) (Report, error) {
	const op = "services.ReportService.MonthlySummary"

	if month < time.January || month > time.December || year < 1970 || year > 9999 {
		return Report{}, invalid("Invalid year or month")
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}
	txs, err := s.transactions.ListTransactions(ctx, userID, 0)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	monthly := finance.FilterMonth(txs, year, month)
	summary := finance.Summarize(monthly)
	return Report{
		Year:       year,
		Month:      int(month),
		Summary:    summary,
		Categories: summary.Categories(),
		Budgets:    finance.BudgetStatuses(user.Budgets, summary),
		Count:      len(monthly),
	}, nil
}
