package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWrongStep is returned when a session operation is called out of order.
	ErrWrongStep = errors.New("operation not allowed at this step")
	// ErrNoCategory is returned when no category was selected or entered.
	ErrNoCategory = errors.New("no category selected")
	// ErrInactiveCategory is returned when the chosen category is switched off.
	ErrInactiveCategory = errors.New("category is not active")
)

// MappingError lists the required roles a mapping is missing.
type MappingError struct {
	Missing []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("column mapping incomplete: no column mapped to %s", strings.Join(e.Missing, " or "))
}

// RowIssue names the problems of one preview row.
type RowIssue struct {
	Index         int // position in the preview
	OriginalIndex int
	Errors        []string
}

// PreviewError blocks a commit while rows are invalid. Nothing was imported.
type PreviewError struct {
	Invalid []RowIssue
}

func (e *PreviewError) Error() string {
	parts := make([]string, 0, len(e.Invalid))
	for _, issue := range e.Invalid {
		parts = append(parts, fmt.Sprintf("row %d: %s", issue.Index+1, strings.Join(issue.Errors, ", ")))
	}
	return fmt.Sprintf("nothing imported, %d invalid row(s): %s", len(e.Invalid), strings.Join(parts, "; "))
}

// RowFailure is a row the store rejected during commit.
type RowFailure struct {
	OriginalIndex int
	SKU           string
	Title         string
	Err           error
}
