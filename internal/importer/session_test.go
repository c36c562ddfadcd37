package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/esgaming/catalogops/internal/parser"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/esgaming/catalogops/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caseSheet() *parser.Sheet {
	return &parser.Sheet{
		Name:    "Sheet1",
		Headers: []string{"Model", "SKU", "Price (FOB)", "Fan Support"},
		Rows: []parser.RawRow{
			{"Model": "Case X", "SKU": "CX-1", "Price (FOB)": "$45.00 USD", "Fan Support": "3x120mm"},
			{},
			{"Model": "Case Y", "SKU": "CY-1", "Price (FOB)": "", "Fan Support": "2x140mm"},
		},
	}
}

func TestSessionWalkthrough(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StepCategory, s.Step)

	_, err := s.SelectCategory("   ", true)
	assert.ErrorIs(t, err, ErrNoCategory)

	s, err = s.SelectCategory(" cases ", false)
	require.NoError(t, err)
	assert.Equal(t, StepUpload, s.Step)
	assert.Equal(t, "CASES", s.Category.Canonical())

	_, err = s.Upload("empty.csv", &parser.Sheet{Headers: []string{"Model"}}, 0)
	assert.ErrorIs(t, err, parser.ErrEmptyFile)

	s, err = s.Upload("cases.xlsx", caseSheet(), 0)
	require.NoError(t, err)
	assert.Equal(t, StepMapping, s.Step)
	assert.Equal(t, "cases.xlsx", s.Source)

	// SKU is not guessed and has to be set by hand.
	noSKU, err := s.ConfirmMapping()
	require.NoError(t, err)
	assert.Empty(t, noSKU.Preview[0].SKU)

	s, err = s.Remap("SKU", Role{Kind: RoleSKU})
	require.NoError(t, err)

	withoutPrice, err := s.Remap("Price (FOB)", Role{Kind: RoleIgnore})
	require.NoError(t, err)
	_, err = withoutPrice.ConfirmMapping()
	var merr *MappingError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"Price"}, merr.Missing)

	s, err = s.ConfirmMapping()
	require.NoError(t, err)
	assert.Equal(t, StepPreview, s.Step)
	require.Len(t, s.Preview, 2)
	assert.Equal(t, 2, s.Preview[1].OriginalIndex)
	assert.False(t, s.CanCommit())

	_, _, err = s.BeginImport()
	var perr *PreviewError
	require.ErrorAs(t, err, &perr)

	s, err = s.RemoveRow(1)
	require.NoError(t, err)
	assert.True(t, s.CanCommit())

	importing, rows, err := s.BeginImport()
	require.NoError(t, err)
	assert.Equal(t, StepImporting, importing.Step)
	require.Len(t, rows, 1)
	assert.Equal(t, "CX-1", rows[0].SKU)
	assert.Equal(t, specgroup.Cooling, rows[0].Specs[0].Group)
}

func TestSessionRejectsOutOfOrderCalls(t *testing.T) {
	s := NewSession()

	_, err := s.Upload("a.csv", caseSheet(), 0)
	assert.ErrorIs(t, err, ErrWrongStep)

	_, err = s.ConfirmMapping()
	assert.ErrorIs(t, err, ErrWrongStep)

	_, _, err = s.BeginImport()
	assert.ErrorIs(t, err, ErrWrongStep)

	assert.Equal(t, s, s.Finish(&Result{}, nil), "finish outside importing is a no-op")
}

func TestSessionBackToMapping(t *testing.T) {
	s := NewSession()
	s, _ = s.SelectCategory("CASES", false)
	s, _ = s.Upload("cases.xlsx", caseSheet(), 0)
	s, err := s.ConfirmMapping()
	require.NoError(t, err)

	s, err = s.BackToMapping()
	require.NoError(t, err)
	assert.Equal(t, StepMapping, s.Step)
	assert.Nil(t, s.Preview)
}

func TestSessionRemoveInvalid(t *testing.T) {
	s := NewSession()
	s, _ = s.SelectCategory("CASES", false)
	s, _ = s.Upload("cases.xlsx", caseSheet(), 0)
	s, _ = s.ConfirmMapping()

	s, err := s.RemoveInvalid()
	require.NoError(t, err)
	require.Len(t, s.Preview, 1)
	assert.True(t, s.CanCommit())
}

func TestSessionFinish(t *testing.T) {
	importing := Session{Step: StepImporting, Category: CategoryChoice{Name: "CASES"}}

	assert.Equal(t, NewSession(), importing.Finish(&Result{Attempted: 2, Processed: 1}, nil))

	back := importing.Finish(&Result{Attempted: 2}, nil)
	assert.Equal(t, StepPreview, back.Step)
	assert.Equal(t, "CASES", back.Category.Name)

	back = importing.Finish(&Result{}, errors.New("category missing"))
	assert.Equal(t, StepPreview, back.Step)
}

func TestImportReturnsToPreviewWhenCategoryMissing(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, store.Load())

	s := NewSession()
	s, _ = s.SelectCategory("KEYBOARDS", false)
	s, _ = s.Upload("cases.xlsx", caseSheet(), 0)
	s, _ = s.Remap("SKU", Role{Kind: RoleSKU})
	s, _ = s.ConfirmMapping()
	s, _ = s.RemoveInvalid()

	next, _, err := Import(ctx, s, NewReconciler(store, Options{}))
	assert.Error(t, err)
	assert.Equal(t, StepPreview, next.Step)
	assert.Len(t, next.Preview, 1, "preview kept for a retry")
	assert.Equal(t, 0, store.Count())

	_, err = store.Categories().EnsureExists(ctx, "KEYBOARDS", "Keyboards")
	require.NoError(t, err)

	next, result, err := Import(ctx, next, NewReconciler(store, Options{}))
	require.NoError(t, err)
	assert.Equal(t, StepCategory, next.Step)
	assert.Equal(t, 1, result.Processed)
}
