package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kharchabook/internal/models"
)

const expenseColumns = "id, user_id, COALESCE(date, ''), amount, category, notes"

// AddExpense validates and stores an expense. The date may be in any accepted layout
// and is stored as YYYY-MM-DD.
func (db *DB) AddExpense(userID int64, date string, amount decimal.Decimal, category, notes string) (int64, error) {
	if userID <= 0 {
		return 0, invalid("user", strconv.FormatInt(userID, 10), ErrRequired)
	}
	iso, err := NormalizeDate(date)
	if err != nil {
		return 0, err
	}
	if amount.IsNegative() {
		return 0, invalid("amount", amount.String(), ErrInvalidAmount)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, invalid("category", "", ErrRequired)
	}

	result, err := db.conn.Exec(
		"INSERT INTO expenses (user_id, date, amount, category, notes) VALUES (?, ?, ?, ?, ?)",
		userID, iso, amount.Round(2).String(), category, strings.TrimSpace(notes),
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	db.log.Debug().
		Int64("expense_id", id).
		Int64("user_id", userID).
		Str("date", iso).
		Str("amount", amount.String()).
		Str("category", category).
		Msg("expense added")
	return id, nil
}

// ExpensesByMonth returns a user's expenses in the given month, oldest first.
func (db *DB) ExpensesByMonth(userID int64, year, month int) ([]models.Expense, error) {
	start, end, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date ASC, id ASC",
		userID, start, end,
	)
}

// ExpensesByDateRange returns a user's expenses between start and end inclusive, newest first.
// Both bounds accept every input date layout.
func (db *DB) ExpensesByDateRange(userID int64, start, end string) ([]models.Expense, error) {
	from, err := NormalizeDate(start)
	if err != nil {
		return nil, err
	}
	to, err := NormalizeDate(end)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, invalid("range", from+".."+to, ErrInvalidRange)
	}
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date BETWEEN ? AND ? ORDER BY date DESC, id DESC",
		userID, from, to,
	)
}

// ListExpenses returns every expense of a user, newest first.
func (db *DB) ListExpenses(userID int64) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID,
	)
}

// UniqueYears returns the distinct valid years of a user's expenses, newest first.
// Years outside [MinYear, MaxYear] are ignored; with no valid year the current year is returned.
func (db *DB) UniqueYears(userID int64) ([]int, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT date FROM expenses WHERE user_id = ? AND date IS NOT NULL",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()

	seen := make(map[int]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		year, err := strconv.Atoi(strings.SplitN(strings.TrimSpace(date), "-", 2)[0])
		if err != nil || year < MinYear || year > MaxYear {
			continue
		}
		seen[year] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(seen) == 0 {
		return []int{db.now().Year()}, nil
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// FixBrokenDates sets missing or blank expense dates to today and returns the number of rows repaired.
func (db *DB) FixBrokenDates() (int64, error) {
	result, err := db.conn.Exec(
		"UPDATE expenses SET date = ? WHERE date IS NULL OR TRIM(date) = ''",
		db.Today(),
	)
	if err != nil {
		return 0, fmt.Errorf("repair dates: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		db.log.Info().Int64("rows", n).Msg("repaired broken expense dates")
	}
	return n, nil
}

// MonthlyExpenseTotal sums a user's expenses in the current calendar month.
func (db *DB) MonthlyExpenseTotal(userID int64) (decimal.Decimal, error) {
	now := db.now()
	return db.ExpenseTotalByMonth(userID, now.Year(), int(now.Month()))
}

// ExpenseTotalByMonth sums a user's expenses in the given month.
func (db *DB) ExpenseTotalByMonth(userID int64, year, month int) (decimal.Decimal, error) {
	expenses, err := db.ExpensesByMonth(userID, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// CategoryTotalsByMonth aggregates a user's spending per category for a month, largest first.
func (db *DB) CategoryTotalsByMonth(userID int64, year, month int) ([]models.CategoryTotal, error) {
	expenses, err := db.ExpensesByMonth(userID, year, month)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	totals := make([]models.CategoryTotal, 0)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(totals)
			index[e.Category] = i
			totals = append(totals, models.CategoryTotal{Category: e.Category, Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(e.Amount)
		totals[i].Count++
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals, nil
}

func (db *DB) queryExpenses(query string, args ...any) ([]models.Expense, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]models.Expense, 0)
	for rows.Next() {
		var (
			e      models.Expense
			userID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &userID, &e.Date, &e.Amount, &e.Category, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func monthBounds(year, month int) (start, end string, err error) {
	if month < 1 || month > 12 {
		return "", "", invalid("month", strconv.Itoa(month), ErrInvalidDate)
	}
	if year < MinYear || year > MaxYear {
		return "", "", invalid("year", strconv.Itoa(year), ErrInvalidDate)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first.Format(ISODate), first.AddDate(0, 1, 0).Format(ISODate), nil
}
