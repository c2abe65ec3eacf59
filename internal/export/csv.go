// Package export writes expense history to delimited text.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"kharchabook/internal/models"
)

// Header is the first record of every export.
var Header = []string{"Date", "Amount", "Category"}

// WriteCSV writes one record per expense, in the order given.
func WriteCSV(w io.Writer, expenses []models.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range expenses {
		if err := cw.Write([]string{e.Date, e.Amount.StringFixed(2), e.Category}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes expenses to a CSV file at path, replacing any existing file.
func ExportFile(path string, expenses []models.Expense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, expenses); err != nil {
		f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	return f.Close()
}
