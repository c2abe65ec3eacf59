package storage

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ISODate is the layout every stored expense date uses.
const ISODate = "2006-01-02"

// Years outside this range are treated as corrupt data.
const (
	MinYear = 1900
	MaxYear = 2100
)

// dateLayouts are the accepted input formats, tried in order.
var dateLayouts = []string{
	"2006-1-2",            // 2024-03-05
	"1/2/06",              // 03/05/24
	"2-1-2006",            // 05-03-2024
	"2006-01-02T15:04",    // datetime-local form input
	"2006-01-02 15:04:05", // sqlite CURRENT_TIMESTAMP
}

// NormalizeDate parses s in any accepted layout and returns it as YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("date", s, ErrRequired)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < MinYear || t.Year() > MaxYear {
			return "", invalid("date", s, ErrInvalidDate)
		}
		return t.Format(ISODate), nil
	}
	return "", invalid("date", s, ErrInvalidDate)
}

// amountPattern is a plain decimal number; signs and exponents are not accepted.
var amountPattern = regexp.MustCompile(`^(?:\d+(?:\.\d*)?|\.\d+)$`)

// ParseAmount parses a non-negative money amount. A leading rupee sign and comma digit
// grouping ("1,50,000") are accepted. The result is rounded to two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "₹"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, invalid("amount", raw, ErrRequired)
	}
	if !amountPattern.MatchString(s) {
		return decimal.Zero, invalid("amount", raw, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("amount", raw, ErrInvalidAmount)
	}
	return d.Round(2), nil
}
