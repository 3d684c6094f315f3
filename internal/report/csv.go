// Package report renders tax rows into the final CSV artifact.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/quantfm/stellartax/internal/domain"
)

// Header is the fixed column set of the report, in output order.
var Header = []string{"date", "event", "asset", "amount", "value", "transaction_id", "link"}

// rowDateLayout matches month/day/year with no zero padding.
const rowDateLayout = "1/2/2006 15:04:05"

// WriteFile writes the report atomically: rows are rendered to a temporary
// file next to path and renamed into place, so a mid-write failure never
// leaves a partial artifact. The caller is expected to skip calling it when
// there are no rows.
func WriteFile(path string, rows []domain.TaxRow) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: rename into place: %w", err)
	}
	return nil
}

func write(f *os.File, rows []domain.TaxRow) error {
	w := csv.NewWriter(f)

	if err := w.Write(Header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for i, row := range rows {
		if err := w.Write(Record(row)); err != nil {
			return fmt.Errorf("report: write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

// Record renders one tax row into CSV fields. Absent amounts and values become
// empty cells.
func Record(row domain.TaxRow) []string {
	return []string{
		row.Date.Format(rowDateLayout),
		row.Event,
		row.Asset,
		renderDecimal(row.Amount),
		renderDecimal(row.Value),
		row.TransactionID,
		row.Link,
	}
}

func renderDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
