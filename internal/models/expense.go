package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a dated spending record.
// Date is an ISO "YYYY-MM-DD" string; legacy rows may carry an empty date until repaired.
type Expense struct {
	ID       int64           `json:"id"`
	UserID   *int64          `json:"user_id,omitempty"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Notes    string          `json:"notes,omitempty"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a logged-in user. It is created at login and removed at logout.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Budget is the monthly spending limit of a user.
type Budget struct {
	UserID        int64           `json:"user_id"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
}

// BudgetStatus compares the current month's spending against the budget.
type BudgetStatus struct {
	Exceeded bool            `json:"exceeded"`
	Budget   decimal.Decimal `json:"budget"`
	Total    decimal.Decimal `json:"total"`
}

// Overspend returns how far the total is over budget, or zero when within budget.
func (s BudgetStatus) Overspend() decimal.Decimal {
	if !s.Exceeded {
		return decimal.Zero
	}
	return s.Total.Sub(s.Budget)
}

// CategoryTotal aggregates spending for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}
