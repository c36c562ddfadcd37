package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"testing"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/images"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/esgaming/catalogops/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingUploader keeps uploads in memory
type recordingUploader struct {
	paths []string
	fail  bool
}

func (u *recordingUploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if u.fail {
		return "", errors.New("bucket unavailable")
	}
	u.paths = append(u.paths, path)
	return "https://cdn.test/" + path, nil
}

// recordingSink keeps import events in memory
type recordingSink struct {
	events []database.ImportEvent
}

func (s *recordingSink) RecordImports(ctx context.Context, events []database.ImportEvent) error {
	s.events = append(s.events, events...)
	return nil
}

// failingPrices rejects one amount
type failingPrices struct {
	database.PriceRepository
	amount float64
}

func (p failingPrices) Create(ctx context.Context, price *database.Price) error {
	if price.Amount == p.amount {
		return errors.New("price rejected")
	}
	return p.PriceRepository.Create(ctx, price)
}

// failingCatalog wraps a catalog without exposing its transactions
type failingCatalog struct {
	database.Catalog
	amount float64
}

func (c failingCatalog) Prices() database.PriceRepository {
	return failingPrices{PriceRepository: c.Catalog.Prices(), amount: c.amount}
}

// failingTxCatalog is failingCatalog with transactions
type failingTxCatalog struct {
	failingCatalog
	store *state.Store
}

func (c failingTxCatalog) InTx(ctx context.Context, fn func(database.Catalog) error) error {
	return c.store.InTx(ctx, func(tx database.Catalog) error {
		return fn(failingCatalog{Catalog: tx, amount: c.amount})
	})
}

// retiredCategories reports every category as switched off
type retiredCategories struct {
	database.CategoryRepository
}

func (r retiredCategories) GetByName(ctx context.Context, name string) (*database.Category, error) {
	return r.retire(r.CategoryRepository.GetByName(ctx, name))
}

func (r retiredCategories) EnsureExists(ctx context.Context, name, displayName string) (*database.Category, error) {
	return r.retire(r.CategoryRepository.EnsureExists(ctx, name, displayName))
}

func (r retiredCategories) retire(c *database.Category, err error) (*database.Category, error) {
	if c != nil {
		c.IsActive = false
	}
	return c, err
}

type retiredCatalog struct {
	database.Catalog
}

func (c retiredCatalog) Categories() database.CategoryRepository {
	return retiredCategories{c.Catalog.Categories()}
}

func newCatalog(t *testing.T) *state.Store {
	t.Helper()
	s := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, s.Load())
	_, err := s.Categories().EnsureExists(context.Background(), "CASES", "Cases")
	require.NoError(t, err)
	return s
}

func scenarioRows() []ImportRow {
	return []ImportRow{{
		Title:    "Case X",
		SKU:      "CX-1",
		Price:    45,
		Category: "CASES",
		Specs:    []specgroup.Spec{{Label: "Fan Support", Value: "3x120mm", Group: specgroup.Cooling}},
	}}
}

func TestCommitScenario(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	sink := &recordingSink{}

	r := NewReconciler(store, Options{Sink: sink, Source: "cases.xlsx"})
	result, err := r.Commit(ctx, CategoryChoice{Name: "cases"}, scenarioRows())
	require.NoError(t, err)

	assert.Equal(t, "CASES", result.Category)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Failed())

	entry, err := store.Entries().GetBySKU(ctx, "CX-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Case X", entry.Title)
	assert.Equal(t, "CASES", entry.Category)

	detail, err := database.LoadDetail(ctx, store, entry)
	require.NoError(t, err)
	require.Len(t, detail.Prices, 1)
	assert.Equal(t, 45.0, detail.Prices[0].Amount)
	assert.Equal(t, "USD", detail.Prices[0].Currency)
	require.Len(t, detail.Specs, 1)
	assert.Equal(t, specgroup.Cooling, detail.Specs[0].Group)
	assert.Empty(t, detail.Images)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "created", sink.events[0].Action)
	assert.Equal(t, "cases.xlsx", sink.events[0].Source)

	history, err := store.History().GetRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "import", history[0].Action)
	assert.Equal(t, 1, history[0].Count)
}

func TestCommitIsIdempotentBySKU(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	r := NewReconciler(store, Options{})

	first := []ImportRow{
		{Title: "Case X", SKU: "CX-1", Price: 45, ImageURL: "https://img.test/x1.png",
			Specs: []specgroup.Spec{{Label: "Fans", Value: "3", Group: specgroup.Cooling}, {Label: "Color", Value: "Black"}}},
		{Title: "Case Y", SKU: "CY-1", Price: 50},
	}
	_, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, first)
	require.NoError(t, err)

	second := []ImportRow{
		{Title: "Case X v2", SKU: "CX-1", Price: 39.9, ImageURL: "https://img.test/x2.png",
			Specs: []specgroup.Spec{{Label: "Fans", Value: "4", Group: specgroup.Cooling}}},
		{Title: "Case Y", SKU: "CY-1", Price: 50},
	}
	result, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, second)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 0, result.Created)

	count, err := store.Entries().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	entry, err := store.Entries().GetBySKU(ctx, "CX-1")
	require.NoError(t, err)
	assert.Equal(t, "Case X v2", entry.Title)
	assert.Equal(t, 1, entry.DisplayOrder, "position kept on update")

	detail, err := database.LoadDetail(ctx, store, entry)
	require.NoError(t, err)
	require.Len(t, detail.Prices, 1)
	assert.Equal(t, 39.9, detail.Prices[0].Amount)
	require.Len(t, detail.Images, 1)
	assert.Equal(t, "https://img.test/x2.png", detail.Images[0].URL)
	require.Len(t, detail.Specs, 1)
	assert.Equal(t, "4", detail.Specs[0].Value)
	assert.Equal(t, 0, detail.Specs[0].DisplayOrder)
}

func TestCommitKeepsImageWhenRowHasNone(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	r := NewReconciler(store, Options{})

	_, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "Case X", SKU: "CX-1", Price: 45, ImageURL: "https://img.test/x1.png"},
	})
	require.NoError(t, err)
	_, err = r.Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "Case X", SKU: "CX-1", Price: 46},
	})
	require.NoError(t, err)

	entry, _ := store.Entries().GetBySKU(ctx, "CX-1")
	imgs, err := store.Images().GetByEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, "https://img.test/x1.png", imgs[0].URL)
}

func TestCommitSkipsUnimportableRows(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)

	result, err := NewReconciler(store, Options{}).Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "Ok", Price: 1},
		{Title: "", Price: 5},
		{Title: "Free", Price: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, store.Count())
}

func TestCommitCreatesCustomCategory(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	r := NewReconciler(store, Options{})

	result, err := r.Commit(ctx, CategoryChoice{Name: " gaming  chairs ", Custom: true}, []ImportRow{{Title: "Chair", Price: 99}})
	require.NoError(t, err)
	assert.Equal(t, "GAMING CHAIRS", result.Category)

	_, err = r.Commit(ctx, CategoryChoice{Name: "Gaming Chairs", Custom: true}, []ImportRow{{Title: "Chair 2", Price: 99}})
	require.NoError(t, err)

	active, err := store.Categories().ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	cat, err := store.Categories().GetByName(ctx, "GAMING CHAIRS")
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "gaming chairs", cat.DisplayName)
}

func TestCommitUnknownCategory(t *testing.T) {
	store := newCatalog(t)
	_, err := NewReconciler(store, Options{}).Commit(context.Background(), CategoryChoice{Name: "MICE"}, scenarioRows())
	assert.Error(t, err)
	assert.Equal(t, 0, store.Count())

	_, err = NewReconciler(store, Options{}).Commit(context.Background(), CategoryChoice{Name: " "}, scenarioRows())
	assert.ErrorIs(t, err, ErrNoCategory)
}

func TestCommitInactiveCategory(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	r := NewReconciler(retiredCatalog{store}, Options{})

	_, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, scenarioRows())
	assert.ErrorIs(t, err, ErrInactiveCategory)

	_, err = r.Commit(ctx, CategoryChoice{Name: "Cases", Custom: true}, scenarioRows())
	assert.ErrorIs(t, err, ErrInactiveCategory)

	assert.Equal(t, 0, store.Count())
}

func TestCommitContinuesAfterRowFailure(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)

	var progress []int
	r := NewReconciler(failingCatalog{Catalog: store, amount: 13}, Options{
		Progress: func(done, total int) { progress = append(progress, done) },
	})
	result, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "A", SKU: "A", Price: 10, OriginalIndex: 0},
		{Title: "B", SKU: "B", Price: 13, OriginalIndex: 4},
		{Title: "C", SKU: "C", Price: 12, OriginalIndex: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Processed)
	require.Equal(t, 1, result.Failed())
	assert.Equal(t, 4, result.Failures[0].OriginalIndex)
	assert.Equal(t, "B", result.Failures[0].SKU)
	assert.Equal(t, []int{1, 2, 3}, progress)

	// Without transactions the entry of the failed row is left behind
	// without a price.
	b, err := store.Entries().GetBySKU(ctx, "B")
	require.NoError(t, err)
	require.NotNil(t, b)
	prices, _ := store.Prices().GetByEntry(ctx, b.ID)
	assert.Empty(t, prices)
}

func TestCommitRollsBackFailedRowInTransaction(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)

	catalog := failingTxCatalog{failingCatalog: failingCatalog{Catalog: store, amount: 13}, store: store}
	result, err := NewReconciler(catalog, Options{}).Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "A", SKU: "A", Price: 10},
		{Title: "B", SKU: "B", Price: 13},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed())

	b, err := store.Entries().GetBySKU(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Equal(t, 1, store.Count())
}

func TestCommitMaterializesEmbeddedImages(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	uploader := &recordingUploader{}

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not really a png"))
	r := NewReconciler(store, Options{Images: images.NewMaterializer(uploader, images.Config{}, nil)})

	result, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "Embedded", SKU: "E-1", Price: 5, ImageURL: dataURI},
		{Title: "Linked", SKU: "L-1", Price: 5, ImageURL: "https://img.test/l.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImagesUploaded)
	require.Len(t, uploader.paths, 1)

	entry, _ := store.Entries().GetBySKU(ctx, "E-1")
	imgs, err := store.Images().GetByEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, "https://cdn.test/"+uploader.paths[0], imgs[0].URL)
	assert.Regexp(t, `^`+entry.ID.String()+`/[0-9a-f-]{36}\.png$`, uploader.paths[0])

	linked, _ := store.Entries().GetBySKU(ctx, "L-1")
	imgs, _ = store.Images().GetByEntry(ctx, linked.ID)
	require.Len(t, imgs, 1)
	assert.Equal(t, "https://img.test/l.png", imgs[0].URL)
}

func TestCommitImageFailureKeepsRow(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)

	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	r := NewReconciler(store, Options{
		Images: images.NewMaterializer(&recordingUploader{fail: true}, images.Config{}, nil),
	})

	result, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "Embedded", SKU: "E-1", Price: 5, ImageURL: dataURI},
		{Title: "Broken", SKU: "E-2", Price: 5, ImageURL: "data:image/png;base64,@@@"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.ImagesSkipped)

	entry, _ := store.Entries().GetBySKU(ctx, "E-1")
	imgs, _ := store.Images().GetByEntry(ctx, entry.ID)
	assert.Empty(t, imgs)
}

func TestCommitWithoutImageStorage(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)

	result, err := NewReconciler(store, Options{}).Commit(ctx, CategoryChoice{Name: "CASES"}, []ImportRow{
		{Title: "Embedded", Price: 5, ImageURL: "data:image/png;base64,AAAA"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.ImagesSkipped)
}

func TestCommitRowsWithoutSKUAlwaysCreate(t *testing.T) {
	ctx := context.Background()
	store := newCatalog(t)
	r := NewReconciler(store, Options{})

	rows := []ImportRow{{Title: "Loose", Price: 3}}
	_, err := r.Commit(ctx, CategoryChoice{Name: "CASES"}, rows)
	require.NoError(t, err)
	_, err = r.Commit(ctx, CategoryChoice{Name: "CASES"}, rows)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Count())
}
