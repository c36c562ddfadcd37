package database

import (
	"context"
	"time"

	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/google/uuid"
)

// CategoryRepository defines the interface for catalog categories
type CategoryRepository interface {
	ListActive(ctx context.Context) ([]*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	// EnsureExists creates the category only if no record with that name exists
	EnsureExists(ctx context.Context, name, displayName string) (*Category, error)
}

// EntryRepository defines the interface for catalog entries
type EntryRepository interface {
	Create(ctx context.Context, entry *CatalogEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogEntry, error)
	GetBySKU(ctx context.Context, sku string) (*CatalogEntry, error)
	Update(ctx context.Context, entry *CatalogEntry) error
	List(ctx context.Context, opts QueryOptions) ([]*CatalogEntry, error)
	Count(ctx context.Context) (int64, error)
}

// PriceRepository defines the interface for entry prices
type PriceRepository interface {
	Create(ctx context.Context, price *Price) error
	GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*Price, error)
	DeleteByEntry(ctx context.Context, entryID uuid.UUID) error
}

// ImageRepository defines the interface for entry images
type ImageRepository interface {
	Create(ctx context.Context, image *Image) error
	GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*Image, error)
	DeleteByEntry(ctx context.Context, entryID uuid.UUID) error
}

// SpecificationRepository defines the interface for entry specifications
type SpecificationRepository interface {
	BulkCreate(ctx context.Context, specs []*Specification) (int, error)
	GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*Specification, error)
	DeleteByEntry(ctx context.Context, entryID uuid.UUID) error
	// DistinctValues lists values already stored under a label, for suggestions
	DistinctValues(ctx context.Context, label string) ([]string, error)
}

// HistoryRepository defines the interface for operation history
type HistoryRepository interface {
	Add(ctx context.Context, entry *OperationHistory) error
	GetRecent(ctx context.Context, limit int) ([]*OperationHistory, error)
}

// Catalog groups the repositories of one catalog backend
type Catalog interface {
	Categories() CategoryRepository
	Entries() EntryRepository
	Prices() PriceRepository
	Images() ImageRepository
	Specifications() SpecificationRepository
	History() HistoryRepository
}

// Transactor is implemented by backends that can apply several writes atomically.
// fn receives a Catalog bound to the transaction; returning an error rolls back.
type Transactor interface {
	InTx(ctx context.Context, fn func(Catalog) error) error
}

// QueryOptions represents options for list queries
type QueryOptions struct {
	Limit    int
	Offset   int
	Category string
}

// Category is a catalog section such as CASES or KEYBOARDS
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"` // canonical: trimmed, uppercase
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CatalogEntry is one product page of the catalog
type CatalogEntry struct {
	ID           uuid.UUID `json:"id"`
	SKU          string    `json:"sku,omitempty"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Price is the current price of an entry
type Price struct {
	ID        int64     `json:"id,omitempty"`
	EntryID   uuid.UUID `json:"entry_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Image is a stored image reference of an entry
type Image struct {
	ID           int64     `json:"id,omitempty"`
	EntryID      uuid.UUID `json:"entry_id"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Specification is one label/value line of an entry's spec sheet
type Specification struct {
	ID           int64           `json:"id,omitempty"`
	EntryID      uuid.UUID       `json:"entry_id"`
	Label        string          `json:"label"`
	Value        string          `json:"value"`
	Group        specgroup.Group `json:"spec_group"`
	DisplayOrder int             `json:"display_order"`
}

// Spec converts the record to its display form.
func (s *Specification) Spec() specgroup.Spec {
	return specgroup.Spec{Label: s.Label, Value: s.Value, Group: s.Group}
}

// EntryDetail is an entry together with its child records
type EntryDetail struct {
	Entry  *CatalogEntry
	Prices []*Price
	Images []*Image
	Specs  []*Specification
}

// LoadDetail fetches an entry's children from the catalog.
func LoadDetail(ctx context.Context, c Catalog, entry *CatalogEntry) (*EntryDetail, error) {
	prices, err := c.Prices().GetByEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	images, err := c.Images().GetByEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	specs, err := c.Specifications().GetByEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	return &EntryDetail{Entry: entry, Prices: prices, Images: images, Specs: specs}, nil
}

// OperationHistory represents an operation in the history log
type OperationHistory struct {
	ID          int64      `json:"id,omitempty"`
	Action      string     `json:"action"`
	Source      string     `json:"source"`
	Count       int        `json:"count"`
	Details     string     `json:"details,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ImportEvent records one committed import row for analytics
type ImportEvent struct {
	EntryID    uuid.UUID
	SKU        string
	Title      string
	Category   string
	Amount     float64
	Currency   string
	Action     string // created, updated
	SpecCount  int
	HasImage   bool
	Source     string
	ImportedAt time.Time
}
