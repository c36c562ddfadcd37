package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, s.Load())
	return s
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, 0, s.Count())
}

func TestLoadRejectsOtherVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"2.0","products":{}}`), 0644))

	err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestEnsureExistsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Categories().EnsureExists(ctx, "CASES", "Cases")
	require.NoError(t, err)
	second, err := s.Categories().EnsureExists(ctx, "CASES", "cases again")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Cases", second.DisplayName)

	active, err := s.Categories().ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	missing, err := s.Categories().GetByName(ctx, "KEYBOARDS")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEntriesPersistAcrossLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := &database.CatalogEntry{SKU: "CX-1", Title: "Case X", Category: "CASES"}
	b := &database.CatalogEntry{Title: "No SKU", Category: "CASES"}
	require.NoError(t, s.Entries().Create(ctx, a))
	require.NoError(t, s.Entries().Create(ctx, b))
	assert.Equal(t, 1, a.DisplayOrder)
	assert.Equal(t, 2, b.DisplayOrder)

	err := s.Entries().Create(ctx, &database.CatalogEntry{SKU: "CX-1", Title: "dup"})
	assert.Error(t, err)

	reloaded := NewStore(s.Path())
	require.NoError(t, reloaded.Load())

	got, err := reloaded.Entries().GetBySKU(ctx, "CX-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Case X", got.Title)

	none, err := reloaded.Entries().GetBySKU(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := reloaded.Entries().List(ctx, database.QueryOptions{Category: "CASES"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Case X", list[0].Title)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entry := &database.CatalogEntry{SKU: "CX-1", Title: "Case X"}
	require.NoError(t, s.Entries().Create(ctx, entry))
	require.NoError(t, s.Prices().Create(ctx, &database.Price{EntryID: entry.ID, Amount: 10, Currency: "USD"}))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(c database.Catalog) error {
		if err := c.Prices().DeleteByEntry(ctx, entry.ID); err != nil {
			return err
		}
		if err := c.Prices().Create(ctx, &database.Price{EntryID: entry.ID, Amount: 99, Currency: "USD"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	prices, err := s.Prices().GetByEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 10.0, prices[0].Amount)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var id string
	err := s.InTx(ctx, func(c database.Catalog) error {
		e := &database.CatalogEntry{SKU: "KB-1", Title: "Keyboard"}
		if err := c.Entries().Create(ctx, e); err != nil {
			return err
		}
		id = e.ID.String()
		_, err := c.Specifications().BulkCreate(ctx, []*database.Specification{
			{EntryID: e.ID, Label: "Switch", Value: "Red", DisplayOrder: 0},
			{EntryID: e.ID, Label: "USB", Value: "Type-C", Group: specgroup.InputOutput, DisplayOrder: 1},
		})
		return err
	})
	require.NoError(t, err)

	reloaded := NewStore(s.Path())
	require.NoError(t, reloaded.Load())
	e, err := reloaded.Entries().GetBySKU(ctx, "KB-1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, id, e.ID.String())

	specs, err := reloaded.Specifications().GetByEntry(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, specgroup.Additional, specs[0].Group)
	assert.Equal(t, specgroup.InputOutput, specs[1].Group)
}

func TestDistinctValues(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, v := range []string{"ATX", "mATX", "ATX"} {
		e := &database.CatalogEntry{Title: "Case", SKU: string(rune('A' + i))}
		require.NoError(t, s.Entries().Create(ctx, e))
		_, err := s.Specifications().BulkCreate(ctx, []*database.Specification{
			{EntryID: e.ID, Label: "Form Factor", Value: v},
		})
		require.NoError(t, err)
	}

	values, err := s.Specifications().DistinctValues(ctx, "form factor")
	require.NoError(t, err)
	assert.Equal(t, []string{"ATX", "mATX"}, values)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.History().Add(ctx, &database.OperationHistory{Action: "import", Source: "a.xlsx", Count: 3}))
	require.NoError(t, s.History().Add(ctx, &database.OperationHistory{Action: "import", Source: "b.xlsx", Count: 5}))

	recent, err := s.History().GetRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b.xlsx", recent[0].Source)
	assert.Len(t, s.GetHistory(), 2)
}
