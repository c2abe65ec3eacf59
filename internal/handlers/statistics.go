package handlers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kharchabook/internal/models"
)

// StatsCategoryItem represents a category with its spending statistics.
type StatsCategoryItem struct {
	Category   string
	Total      decimal.Decimal
	Count      int
	Percentage float64
}

// StatsViewModel is the category breakdown for one month.
type StatsViewModel struct {
	Year           int
	Month          int
	MonthName      string
	Total          decimal.Decimal
	Categories     []StatsCategoryItem
	PrevYear       int
	PrevMonth      int
	NextYear       int
	NextMonth      int
	IsCurrentMonth bool
}

// BuildStatistics computes per-category totals and shares for a month.
func (h *Handlers) BuildStatistics(s *models.Session, year, month int) (*StatsViewModel, error) {
	categoryTotals, err := h.db.CategoryTotalsByMonth(s.UserID, year, month)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, ct := range categoryTotals {
		total = total.Add(ct.Total)
	}

	hundred := decimal.NewFromInt(100)
	items := make([]StatsCategoryItem, 0, len(categoryTotals))
	for _, ct := range categoryTotals {
		percentage := 0.0
		if total.IsPositive() {
			percentage = ct.Total.Div(total).Mul(hundred).Round(1).InexactFloat64()
		}
		items = append(items, StatsCategoryItem{
			Category:   ct.Category,
			Total:      ct.Total,
			Count:      ct.Count,
			Percentage: percentage,
		})
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	curYear, curMonth := h.CurrentMonth()

	return &StatsViewModel{
		Year:           year,
		Month:          month,
		MonthName:      time.Month(month).String(),
		Total:          total,
		Categories:     items,
		PrevYear:       prev.Year(),
		PrevMonth:      int(prev.Month()),
		NextYear:       next.Year(),
		NextMonth:      int(next.Month()),
		IsCurrentMonth: year == curYear && month == curMonth,
	}, nil
}

// Statistics prints the category breakdown for a month.
func (h *Handlers) Statistics(s *models.Session, year, month int) error {
	vm, err := h.BuildStatistics(s, year, month)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("%s %d", vm.MonthName, vm.Year)
	if vm.IsCurrentMonth {
		header += " (current month)"
	}
	fmt.Fprintln(h.out, header)

	if len(vm.Categories) == 0 {
		fmt.Fprintln(h.out, "No expenses to display!")
	} else {
		for _, c := range vm.Categories {
			fmt.Fprintf(h.out, "%-14s %12s %5.1f%%  (%d)\n", c.Category, h.money(c.Total), c.Percentage, c.Count)
		}
		fmt.Fprintf(h.out, "%-14s %12s\n", "Total", h.money(vm.Total))
	}

	nav := fmt.Sprintf("Previous: stats -year %d -month %d", vm.PrevYear, vm.PrevMonth)
	if !vm.IsCurrentMonth {
		nav += fmt.Sprintf("  Next: stats -year %d -month %d", vm.NextYear, vm.NextMonth)
	}
	fmt.Fprintln(h.out, nav)
	return nil
}
