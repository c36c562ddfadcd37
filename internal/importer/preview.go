package importer

import "fmt"

const (
	ErrMissingTitle = "Missing Title"
	ErrMissingPrice = "Missing Price"
)

// PreviewRow is an import row annotated with its validation result.
type PreviewRow struct {
	ImportRow
	Errors []string
}

// Valid reports whether the row has no errors.
func (p PreviewRow) Valid() bool {
	return len(p.Errors) == 0
}

// Validate annotates rows. A missing SKU is never an error.
func Validate(rows []ImportRow) []PreviewRow {
	out := make([]PreviewRow, 0, len(rows))
	for _, r := range rows {
		var errs []string
		if r.Title == "" {
			errs = append(errs, ErrMissingTitle)
		}
		if r.Price <= 0 {
			errs = append(errs, ErrMissingPrice)
		}
		out = append(out, PreviewRow{ImportRow: r, Errors: errs})
	}
	return out
}

// InvalidCount returns the number of rows that block a commit.
func InvalidCount(rows []PreviewRow) int {
	n := 0
	for _, r := range rows {
		if !r.Valid() {
			n++
		}
	}
	return n
}

// CheckCommit returns a *PreviewError itemizing every invalid row, or nil.
func CheckCommit(rows []PreviewRow) error {
	var issues []RowIssue
	for i, r := range rows {
		if !r.Valid() {
			issues = append(issues, RowIssue{Index: i, OriginalIndex: r.OriginalIndex, Errors: r.Errors})
		}
	}
	if len(issues) > 0 {
		return &PreviewError{Invalid: issues}
	}
	return nil
}

// RemoveRow returns a new slice without the row at index. Positions of the
// rows after it shift down by one.
func RemoveRow(rows []PreviewRow, index int) ([]PreviewRow, error) {
	if index < 0 || index >= len(rows) {
		return rows, fmt.Errorf("row %d out of range (have %d)", index, len(rows))
	}
	out := make([]PreviewRow, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	out = append(out, rows[index+1:]...)
	return out, nil
}

// Rows strips the annotations.
func Rows(preview []PreviewRow) []ImportRow {
	out := make([]ImportRow, 0, len(preview))
	for _, p := range preview {
		out = append(out, p.ImportRow)
	}
	return out
}
