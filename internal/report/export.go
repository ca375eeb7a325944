package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shineum/mail-broadcast-lite/internal/broadcast"
)

// DefaultOutputPath is used when the caller does not name an output file.
const DefaultOutputPath = "broadcast_results.csv"

// ErrNoResults is returned when there is nothing to export.
var ErrNoResults = errors.New("no results to export")

// header lists the exported columns in order.
var header = []string{"status", "email", "name", "message", "message_id", "timestamp"}

const sheetName = "Results"

// Export writes results to path, one row per recipient in send order.
// Files ending in .xlsx are written as Excel workbooks, anything else as CSV.
func Export(path string, results []broadcast.Result) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	if path == "" {
		path = DefaultOutputPath
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return exportExcel(path, results)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes results as CSV with a header row.
func WriteCSV(w io.Writer, results []broadcast.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportExcel(path string, results []broadcast.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	for i, r := range results {
		if err := setRow(f, i+2, row(r)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cellName, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", n, err)
	}
	return nil
}

func row(r broadcast.Result) []string {
	ts := ""
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.Format(time.RFC3339)
	}
	return []string{string(r.Status), r.Email, r.Name, r.Message, r.MessageID, ts}
}
