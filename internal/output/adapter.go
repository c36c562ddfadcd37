package output

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/esgaming/catalogops/internal/database"
)

// Format specifies the output format
type Format string

const (
	FormatCSV   Format = "csv"   // One row per entry, specs grouped per column
	FormatJSON  Format = "json"  // One document with an entries array
	FormatJSONL Format = "jsonl" // JSON Lines format
	FormatXLSX  Format = "xlsx"  // Excel workbook, one sheet per category
)

// ExportOptions configures export behavior
type ExportOptions struct {
	Format     Format   // Output format
	OutputPath string   // File path or destination
	SKUs       []string // Specific SKUs to export
	DryRun     bool     // Preview without actually exporting
}

// ExportResult describes one export run
type ExportResult struct {
	Destination     string // Where data was exported
	EntriesExported int
	ImagesExported  int // entries carrying at least one image
	Success         bool
	Error           error
	StartedAt       time.Time
	CompletedAt     time.Time
	Details         string // Human-readable details
}

// Adapter defines the interface for output adapters
type Adapter interface {
	// Name returns the adapter's unique identifier
	Name() string

	// Connect prepares the destination
	Connect(ctx context.Context) error

	// Close cleans up any resources
	Close() error

	// ExportEntries writes catalog entries to the destination
	ExportEntries(ctx context.Context, entries []*database.EntryDetail, opts ExportOptions) (*ExportResult, error)

	// Test verifies the destination is usable
	Test(ctx context.Context) error

	// SupportsFormat checks if the adapter supports a specific format
	SupportsFormat(format Format) bool
}

// BaseAdapter carries the name, formats and connection flag of a destination
type BaseAdapter struct {
	name      string
	formats   []Format
	connected atomic.Bool
}

func NewBaseAdapter(name string, formats []Format) *BaseAdapter {
	return &BaseAdapter{name: name, formats: formats}
}

func (b *BaseAdapter) Name() string { return b.name }

func (b *BaseAdapter) IsConnected() bool { return b.connected.Load() }

func (b *BaseAdapter) SetConnected(connected bool) { b.connected.Store(connected) }

func (b *BaseAdapter) SupportsFormat(format Format) bool {
	return slices.Contains(b.formats, format)
}

// SupportedFormats returns a copy of the formats the destination writes
func (b *BaseAdapter) SupportedFormats() []Format {
	return slices.Clone(b.formats)
}

// FilterSKUs keeps the entries whose SKU is listed. An empty list keeps all.
func FilterSKUs(entries []*database.EntryDetail, skus []string) []*database.EntryDetail {
	if len(skus) == 0 {
		return entries
	}
	skuSet := make(map[string]bool, len(skus))
	for _, sku := range skus {
		skuSet[sku] = true
	}
	out := make([]*database.EntryDetail, 0, len(entries))
	for _, e := range entries {
		if skuSet[e.Entry.SKU] {
			out = append(out, e)
		}
	}
	return out
}
