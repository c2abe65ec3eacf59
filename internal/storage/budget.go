package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"kharchabook/internal/models"
)

// SetMonthlyBudget stores the monthly budget of a user, replacing any previous value.
func (db *DB) SetMonthlyBudget(userID int64, amount decimal.Decimal) error {
	if userID <= 0 {
		return invalid("user", strconv.FormatInt(userID, 10), ErrRequired)
	}
	if amount.IsNegative() {
		return invalid("budget", amount.String(), ErrInvalidAmount)
	}

	_, err := db.conn.Exec(`
		INSERT INTO budget (user_id, monthly_budget) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET monthly_budget = excluded.monthly_budget
	`, userID, amount.Round(2).String())
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	db.log.Debug().Int64("user_id", userID).Str("budget", amount.String()).Msg("budget set")
	return nil
}

// MonthlyBudget returns the budget row of a user. MonthlyBudget is zero when none is set.
func (db *DB) MonthlyBudget(userID int64) (models.Budget, error) {
	b := models.Budget{UserID: userID, MonthlyBudget: decimal.Zero}
	err := db.conn.QueryRow("SELECT monthly_budget FROM budget WHERE user_id = ?", userID).Scan(&b.MonthlyBudget)
	if errors.Is(err, sql.ErrNoRows) {
		return b, nil
	}
	if err != nil {
		return models.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// CheckBudgetExceeded compares this month's spending with the budget.
// An unset or zero budget never counts as exceeded.
func (db *DB) CheckBudgetExceeded(userID int64) (models.BudgetStatus, error) {
	b, err := db.MonthlyBudget(userID)
	if err != nil {
		return models.BudgetStatus{}, err
	}
	budget := b.MonthlyBudget
	total, err := db.MonthlyExpenseTotal(userID)
	if err != nil {
		return models.BudgetStatus{}, err
	}
	return models.BudgetStatus{
		Exceeded: budget.IsPositive() && total.GreaterThan(budget),
		Budget:   budget,
		Total:    total,
	}, nil
}
