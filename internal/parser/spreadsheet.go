package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyFile is returned when a sheet has no header row or no data rows.
	ErrEmptyFile = errors.New("spreadsheet has no data rows")
	// ErrNoSheets is returned for workbooks without any worksheet.
	ErrNoSheets = errors.New("workbook has no sheets")
)

// RawRow maps a header to the cell value found under it.
type RawRow map[string]any

// Sheet is the first worksheet of an uploaded file.
type Sheet struct {
	Name    string
	Headers []string // file order
	Rows    []RawRow // data rows in file order; blank rows are kept as empty maps
}

// Open reads the spreadsheet at path. CSV files are read directly; anything
// else is handed to excelize.
func Open(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	return Parse(bytes.NewReader(data), filepath.Base(path))
}

// Parse reads a spreadsheet from r. name is only used to pick the format.
func Parse(r io.Reader, name string) (*Sheet, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return parseCSV(r, name)
	}
	return parseWorkbook(r)
}

func parseWorkbook(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return fromRecords(sheets[0], records)
}

func parseCSV(r io.Reader, name string) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return fromRecords(strings.TrimSuffix(name, filepath.Ext(name)), records)
}

// fromRecords treats the first non-blank record as the header row.
func fromRecords(name string, records [][]string) (*Sheet, error) {
	for len(records) > 0 && blank(records[0]) {
		records = records[1:]
	}
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	headers := headerNames(records[0])
	sheet := &Sheet{
		Name:    name,
		Headers: headers,
		Rows:    make([]RawRow, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		row := make(RawRow, len(headers))
		for i, h := range headers {
			if i < len(record) && record[i] != "" {
				row[h] = record[i]
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	// Trailing blank rows carry no position worth keeping.
	for len(sheet.Rows) > 0 && len(sheet.Rows[len(sheet.Rows)-1]) == 0 {
		sheet.Rows = sheet.Rows[:len(sheet.Rows)-1]
	}
	if len(sheet.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	return sheet, nil
}

// headerNames cleans the header row so every column has a unique name.
// Repeated names get the first free " (N)" suffix that no other column
// already carries.
func headerNames(record []string) []string {
	headers := make([]string, len(record))
	taken := make(map[string]bool, len(record))
	for i, col := range record {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = name
		taken[name] = true
	}

	used := make(map[string]bool, len(record))
	for i, name := range headers {
		if used[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s (%d)", name, n)
				if !taken[candidate] && !used[candidate] {
					name = candidate
					break
				}
			}
			headers[i] = name
		}
		used[name] = true
	}

	return headers
}

func blank(record []string) bool {
	for _, col := range record {
		if strings.TrimSpace(col) != "" {
			return false
		}
	}
	return true
}

// Samples returns up to n rows that have at least one cell.
func (s *Sheet) Samples(n int) []RawRow {
	var out []RawRow
	for _, row := range s.Rows {
		if len(out) >= n {
			break
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}
