package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	rows := []ImportRow{
		{Title: "Case X", Price: 45, OriginalIndex: 0},
		{Title: "", Price: 10, OriginalIndex: 1},
		{Title: "Case Z", Price: 0, OriginalIndex: 2},
		{SKU: "ONLY", OriginalIndex: 4},
		{Title: "No SKU is fine", Price: 1, OriginalIndex: 5},
	}

	preview := Validate(rows)
	require.Len(t, preview, 5)

	assert.Empty(t, preview[0].Errors)
	assert.Equal(t, []string{ErrMissingTitle}, preview[1].Errors)
	assert.Equal(t, []string{ErrMissingPrice}, preview[2].Errors)
	assert.Equal(t, []string{ErrMissingTitle, ErrMissingPrice}, preview[3].Errors)
	assert.True(t, preview[4].Valid())
	assert.Equal(t, 3, InvalidCount(preview))
}

func TestCheckCommitBlocksUntilFixed(t *testing.T) {
	preview := Validate([]ImportRow{
		{Title: "A", Price: 1, OriginalIndex: 0},
		{Title: "", Price: 1, OriginalIndex: 1},
		{Title: "C", Price: 0, OriginalIndex: 7},
	})

	err := CheckCommit(preview)
	var perr *PreviewError
	require.True(t, errors.As(err, &perr))
	require.Len(t, perr.Invalid, 2)
	assert.Equal(t, 1, perr.Invalid[0].Index)
	assert.Equal(t, 2, perr.Invalid[1].Index)
	assert.Equal(t, 7, perr.Invalid[1].OriginalIndex)
	assert.Contains(t, err.Error(), "nothing imported")

	preview, err = RemoveRow(preview, 2)
	require.NoError(t, err)
	require.ErrorAs(t, CheckCommit(preview), &perr)
	assert.Len(t, perr.Invalid, 1)

	preview, err = RemoveRow(preview, 1)
	require.NoError(t, err)
	assert.NoError(t, CheckCommit(preview))
}

func TestRemoveRowReindexes(t *testing.T) {
	preview := Validate([]ImportRow{
		{Title: "A", Price: 1, OriginalIndex: 0},
		{Title: "B", Price: 1, OriginalIndex: 1},
		{Title: "C", Price: 1, OriginalIndex: 2},
	})

	out, err := RemoveRow(preview, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0].Title)
	assert.Equal(t, "C", out[1].Title)
	assert.Equal(t, 2, out[1].OriginalIndex)

	assert.Len(t, preview, 3, "input is not modified")
	assert.Equal(t, "A", preview[0].Title)

	_, err = RemoveRow(out, 2)
	assert.Error(t, err, "stale index")
	_, err = RemoveRow(out, -1)
	assert.Error(t, err)
}
