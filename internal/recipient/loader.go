// Package recipient loads and validates broadcast recipients from tabular
// files (CSV or Excel workbooks).
package recipient

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shineum/mail-broadcast-lite/internal/email"
)

var (
	// ErrFileAccess is returned when the input file is missing or unreadable.
	ErrFileAccess = errors.New("file access error")

	// ErrValidation is returned when the input is structurally unusable,
	// e.g. required columns are absent or the format is not supported.
	ErrValidation = errors.New("validation error")
)

// Format selects how the input file is decoded.
type Format string

const (
	FormatAuto  Format = ""
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// Options controls how a recipient file is read.
type Options struct {
	Format      Format
	Sheet       string // Excel sheet name; first sheet when empty
	NameColumn  string // defaults to "name"
	EmailColumn string // defaults to "email"
}

// Rejected is a row excluded because its address failed validation.
type Rejected struct {
	Row   int // 1-based line or sheet row, header is 1
	Name  string
	Email string
}

// List is the cleaned result of loading a recipient file.
type List struct {
	Recipients []email.Recipient
	Rejected   []Rejected
}

// Load reads recipients from path. Rows with an empty address are dropped,
// rows with a malformed address are excluded and reported in List.Rejected.
func Load(path string, opts Options) (*List, error) {
	opts = opts.withDefaults()

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileAccess, path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileAccess, path)
	}

	format := opts.Format
	if format == FormatAuto {
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	var t *table
	switch format {
	case FormatCSV:
		t, err = readCSV(path)
	case FormatExcel:
		t, err = readExcel(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrValidation, format)
	}
	if err != nil {
		return nil, err
	}

	list, err := parseRows(t, opts)
	if err != nil {
		return nil, err
	}

	if len(list.Rejected) > 0 {
		slog.Warn("invalid email addresses excluded",
			"count", len(list.Rejected),
			"file", path,
		)
		for _, r := range list.Rejected {
			slog.Warn("excluded recipient", "row", r.Row, "name", r.Name, "email", r.Email)
		}
	}

	slog.Info("recipients loaded", "count", len(list.Recipients), "file", path)
	return list, nil
}

// DetectFormat infers the input format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: cannot infer format from extension of %s", ErrValidation, path)
	}
}

func (o Options) withDefaults() Options {
	if o.NameColumn == "" {
		o.NameColumn = "name"
	}
	if o.EmailColumn == "" {
		o.EmailColumn = "email"
	}
	return o
}

// table holds raw records and the 1-based file line each one starts on.
type table struct {
	rows  [][]string
	lines []int
}

func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileAccess, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	t := &table{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse CSV: %v", ErrValidation, err)
		}
		// Blank lines are skipped and quoted fields may span lines.
		line, _ := r.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

func readExcel(path, sheet string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrFileAccess, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrValidation)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrValidation, sheet, err)
	}

	// GetRows keeps empty rows in place, so the index maps to the sheet row.
	t := &table{rows: rows, lines: make([]int, len(rows))}
	for i := range rows {
		t.lines[i] = i + 1
	}
	return t, nil
}

// parseRows maps a header row plus data rows onto recipients.
func parseRows(t *table, opts Options) (*List, error) {
	rows := t.rows
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: input has no header row", ErrValidation)
	}

	nameIdx, emailIdx := -1, -1
	for i, h := range rows[0] {
		switch normalizeHeader(h) {
		case normalizeHeader(opts.NameColumn):
			if nameIdx < 0 {
				nameIdx = i
			}
		case normalizeHeader(opts.EmailColumn):
			if emailIdx < 0 {
				emailIdx = i
			}
		}
	}

	var missing []string
	if nameIdx < 0 {
		missing = append(missing, opts.NameColumn)
	}
	if emailIdx < 0 {
		missing = append(missing, opts.EmailColumn)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns: %s", ErrValidation, strings.Join(missing, ", "))
	}

	list := &List{}
	for i, row := range rows[1:] {
		addr := cell(row, emailIdx)
		if addr == "" {
			continue
		}
		name := cell(row, nameIdx)

		if !email.ValidAddress(addr) {
			list.Rejected = append(list.Rejected, Rejected{Row: t.lines[i+1], Name: name, Email: addr})
			continue
		}
		list.Recipients = append(list.Recipients, email.Recipient{Name: name, Email: addr})
	}
	return list, nil
}

func normalizeHeader(h string) string {
	// CSV files saved by Excel often prefix the first header with a UTF-8 BOM.
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
