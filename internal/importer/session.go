package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/esgaming/catalogops/internal/parser"
	"github.com/esgaming/catalogops/internal/sanitize"
)

// Step is a stage of an import session
type Step int

const (
	StepCategory Step = iota
	StepUpload
	StepMapping
	StepPreview
	StepImporting
)

func (s Step) String() string {
	switch s {
	case StepCategory:
		return "category"
	case StepUpload:
		return "upload"
	case StepMapping:
		return "mapping"
	case StepPreview:
		return "preview"
	case StepImporting:
		return "importing"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ErrNoRows is returned when the preview has nothing left to import.
var ErrNoRows = errors.New("no rows to import")

// DefaultGuessSamples is how many rows GuessMapping looks at.
const DefaultGuessSamples = 5

// Session is the state of one import. Every transition returns a new value
// and leaves the receiver untouched; on error the receiver is returned as is.
type Session struct {
	Step     Step
	Category CategoryChoice
	Source   string
	Headers  []string
	Raw      []parser.RawRow
	Mapping  Mapping
	Preview  []PreviewRow
}

// NewSession starts at the category step
func NewSession() Session {
	return Session{Step: StepCategory}
}

func (s Session) expect(step Step) error {
	if s.Step != step {
		return fmt.Errorf("%w: at %s, need %s", ErrWrongStep, s.Step, step)
	}
	return nil
}

// SelectCategory picks an existing category or enters a new one.
func (s Session) SelectCategory(name string, custom bool) (Session, error) {
	if err := s.expect(StepCategory); err != nil {
		return s, err
	}
	if sanitize.Text(name) == "" {
		return s, ErrNoCategory
	}
	next := s
	next.Category = CategoryChoice{Name: sanitize.Text(name), Custom: custom}
	next.Step = StepUpload
	return next, nil
}

// Upload takes the parsed sheet and proposes a column mapping. An empty
// sheet keeps the session at the upload step.
func (s Session) Upload(source string, sheet *parser.Sheet, samples int) (Session, error) {
	if err := s.expect(StepUpload); err != nil {
		return s, err
	}
	if sheet == nil || len(sheet.Headers) == 0 || len(sheet.Rows) == 0 {
		return s, parser.ErrEmptyFile
	}
	if samples <= 0 {
		samples = DefaultGuessSamples
	}

	next := s
	next.Source = source
	next.Headers = sheet.Headers
	next.Raw = sheet.Rows
	next.Mapping = GuessMapping(sheet.Headers, sheet.Samples(samples))
	next.Preview = nil
	next.Step = StepMapping
	return next, nil
}

// Remap overrides the role of one column.
func (s Session) Remap(header string, role Role) (Session, error) {
	if err := s.expect(StepMapping); err != nil {
		return s, err
	}
	m, err := s.Mapping.Set(header, role)
	if err != nil {
		return s, err
	}
	next := s
	next.Mapping = m
	return next, nil
}

// ConfirmMapping normalizes every raw row and moves to the preview. An
// incomplete mapping returns a *MappingError.
func (s Session) ConfirmMapping() (Session, error) {
	if err := s.expect(StepMapping); err != nil {
		return s, err
	}
	if err := s.Mapping.Validate(); err != nil {
		return s, err
	}
	next := s
	next.Preview = Validate(NormalizeRows(s.Raw, s.Mapping, s.Category.Canonical()))
	next.Step = StepPreview
	return next, nil
}

// BackToMapping discards the preview so the mapping can be edited again.
func (s Session) BackToMapping() (Session, error) {
	if err := s.expect(StepPreview); err != nil {
		return s, err
	}
	next := s
	next.Preview = nil
	next.Step = StepMapping
	return next, nil
}

// RemoveRow deletes the preview row at index.
func (s Session) RemoveRow(index int) (Session, error) {
	if err := s.expect(StepPreview); err != nil {
		return s, err
	}
	rows, err := RemoveRow(s.Preview, index)
	if err != nil {
		return s, err
	}
	next := s
	next.Preview = rows
	return next, nil
}

// RemoveInvalid deletes every row that blocks the commit.
func (s Session) RemoveInvalid() (Session, error) {
	if err := s.expect(StepPreview); err != nil {
		return s, err
	}
	kept := make([]PreviewRow, 0, len(s.Preview))
	for _, r := range s.Preview {
		if r.Valid() {
			kept = append(kept, r)
		}
	}
	next := s
	next.Preview = kept
	return next, nil
}

// CanCommit reports whether BeginImport would succeed.
func (s Session) CanCommit() bool {
	return s.Step == StepPreview && len(s.Preview) > 0 && InvalidCount(s.Preview) == 0
}

// BeginImport moves to the importing step and returns the rows to commit.
// Invalid rows produce a *PreviewError.
func (s Session) BeginImport() (Session, []ImportRow, error) {
	if err := s.expect(StepPreview); err != nil {
		return s, nil, err
	}
	if err := CheckCommit(s.Preview); err != nil {
		return s, nil, err
	}
	if len(s.Preview) == 0 {
		return s, nil, ErrNoRows
	}
	next := s
	next.Step = StepImporting
	return next, Rows(s.Preview), nil
}

// Finish ends the importing step. A commit that could not start or where
// every attempted row failed returns to the preview with the session intact;
// anything else starts a fresh session.
func (s Session) Finish(result *Result, err error) Session {
	if s.Step != StepImporting {
		return s
	}
	if err != nil || result == nil || (result.Attempted > 0 && result.Processed == 0) {
		next := s
		next.Step = StepPreview
		return next
	}
	return NewSession()
}

// Import runs the importing step of s with r.
func Import(ctx context.Context, s Session, r *Reconciler) (Session, *Result, error) {
	importing, rows, err := s.BeginImport()
	if err != nil {
		return s, nil, err
	}
	result, err := r.Commit(ctx, importing.Category, rows)
	return importing.Finish(result, err), result, err
}
