package state

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/google/uuid"
)

var (
	_ database.Catalog    = (*Store)(nil)
	_ database.Transactor = (*Store)(nil)
	_ database.Catalog    = (*view)(nil)
)

type categoryRepo struct{ v *view }

func (r *categoryRepo) ListActive(ctx context.Context) ([]*database.Category, error) {
	var out []*database.Category
	err := r.v.read(func(f *StateFile) error {
		for _, c := range f.Categories {
			if c.IsActive {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *categoryRepo) GetByName(ctx context.Context, name string) (*database.Category, error) {
	var out *database.Category
	err := r.v.read(func(f *StateFile) error {
		if c := findCategory(f, name); c != nil {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *categoryRepo) EnsureExists(ctx context.Context, name, displayName string) (*database.Category, error) {
	var out database.Category
	err := r.v.write(func(f *StateFile) error {
		if c := findCategory(f, name); c != nil {
			out = *c
			return nil
		}
		out = database.Category{
			ID:          f.nextID(),
			Name:        name,
			DisplayName: displayName,
			IsActive:    true,
			CreatedAt:   time.Now(),
		}
		f.Categories = append(f.Categories, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findCategory(f *StateFile, name string) *database.Category {
	for i := range f.Categories {
		if f.Categories[i].Name == name {
			return &f.Categories[i]
		}
	}
	return nil
}

type entryRepo struct{ v *view }

func (r *entryRepo) Create(ctx context.Context, entry *database.CatalogEntry) error {
	return r.v.write(func(f *StateFile) error {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if _, exists := f.Entries[entry.ID.String()]; exists {
			return fmt.Errorf("entry %s already exists", entry.ID)
		}
		if entry.SKU != "" && findBySKU(f, entry.SKU) != nil {
			return fmt.Errorf("duplicate sku %q", entry.SKU)
		}

		now := time.Now()
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now

		if entry.DisplayOrder <= 0 {
			last := 0
			for _, rec := range f.Entries {
				if rec.Entry.DisplayOrder > last {
					last = rec.Entry.DisplayOrder
				}
			}
			entry.DisplayOrder = last + 1
		}

		f.Entries[entry.ID.String()] = &EntryRecord{Entry: *entry}
		return nil
	})
}

func (r *entryRepo) GetByID(ctx context.Context, id uuid.UUID) (*database.CatalogEntry, error) {
	var out *database.CatalogEntry
	err := r.v.read(func(f *StateFile) error {
		if rec, ok := f.Entries[id.String()]; ok {
			e := rec.Entry
			out = &e
		}
		return nil
	})
	return out, err
}

func (r *entryRepo) GetBySKU(ctx context.Context, sku string) (*database.CatalogEntry, error) {
	if sku == "" {
		return nil, nil
	}
	var out *database.CatalogEntry
	err := r.v.read(func(f *StateFile) error {
		if rec := findBySKU(f, sku); rec != nil {
			e := rec.Entry
			out = &e
		}
		return nil
	})
	return out, err
}

func findBySKU(f *StateFile, sku string) *EntryRecord {
	for _, rec := range f.Entries {
		if rec.Entry.SKU == sku {
			return rec
		}
	}
	return nil
}

func (r *entryRepo) Update(ctx context.Context, entry *database.CatalogEntry) error {
	return r.v.write(func(f *StateFile) error {
		rec, ok := f.Entries[entry.ID.String()]
		if !ok {
			return fmt.Errorf("entry %s not found", entry.ID)
		}
		entry.UpdatedAt = time.Now()
		rec.Entry.SKU = entry.SKU
		rec.Entry.Title = entry.Title
		rec.Entry.Category = entry.Category
		rec.Entry.UpdatedAt = entry.UpdatedAt
		return nil
	})
}

func (r *entryRepo) List(ctx context.Context, opts database.QueryOptions) ([]*database.CatalogEntry, error) {
	var out []*database.CatalogEntry
	err := r.v.read(func(f *StateFile) error {
		for _, rec := range f.Entries {
			if opts.Category != "" && rec.Entry.Category != opts.Category {
				continue
			}
			e := rec.Entry
			out = append(out, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *entryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.v.read(func(f *StateFile) error {
		n = int64(len(f.Entries))
		return nil
	})
	return n, err
}

func record(f *StateFile, id uuid.UUID) (*EntryRecord, error) {
	rec, ok := f.Entries[id.String()]
	if !ok {
		return nil, fmt.Errorf("entry %s not found", id)
	}
	return rec, nil
}

type priceRepo struct{ v *view }

func (r *priceRepo) Create(ctx context.Context, price *database.Price) error {
	return r.v.write(func(f *StateFile) error {
		rec, err := record(f, price.EntryID)
		if err != nil {
			return err
		}
		price.ID = f.nextID()
		if price.CreatedAt.IsZero() {
			price.CreatedAt = time.Now()
		}
		rec.Prices = append(rec.Prices, *price)
		return nil
	})
}

func (r *priceRepo) GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*database.Price, error) {
	var out []*database.Price
	err := r.v.read(func(f *StateFile) error {
		if rec, ok := f.Entries[entryID.String()]; ok {
			for _, p := range rec.Prices {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

func (r *priceRepo) DeleteByEntry(ctx context.Context, entryID uuid.UUID) error {
	return r.v.write(func(f *StateFile) error {
		if rec, ok := f.Entries[entryID.String()]; ok {
			rec.Prices = nil
		}
		return nil
	})
}

type imageRepo struct{ v *view }

func (r *imageRepo) Create(ctx context.Context, image *database.Image) error {
	return r.v.write(func(f *StateFile) error {
		rec, err := record(f, image.EntryID)
		if err != nil {
			return err
		}
		image.ID = f.nextID()
		if image.CreatedAt.IsZero() {
			image.CreatedAt = time.Now()
		}
		rec.Images = append(rec.Images, *image)
		return nil
	})
}

func (r *imageRepo) GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*database.Image, error) {
	var out []*database.Image
	err := r.v.read(func(f *StateFile) error {
		if rec, ok := f.Entries[entryID.String()]; ok {
			for _, img := range rec.Images {
				img := img
				out = append(out, &img)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, err
}

func (r *imageRepo) DeleteByEntry(ctx context.Context, entryID uuid.UUID) error {
	return r.v.write(func(f *StateFile) error {
		if rec, ok := f.Entries[entryID.String()]; ok {
			rec.Images = nil
		}
		return nil
	})
}

type specRepo struct{ v *view }

func (r *specRepo) BulkCreate(ctx context.Context, specs []*database.Specification) (int, error) {
	if len(specs) == 0 {
		return 0, nil
	}
	count := 0
	err := r.v.write(func(f *StateFile) error {
		for _, s := range specs {
			rec, err := record(f, s.EntryID)
			if err != nil {
				return err
			}
			if !s.Group.Valid() {
				s.Group = specgroup.Default
			}
			s.ID = f.nextID()
			rec.Specs = append(rec.Specs, *s)
			count++
		}
		return nil
	})
	return count, err
}

func (r *specRepo) GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*database.Specification, error) {
	var out []*database.Specification
	err := r.v.read(func(f *StateFile) error {
		if rec, ok := f.Entries[entryID.String()]; ok {
			for _, s := range rec.Specs {
				s := s
				out = append(out, &s)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, err
}

func (r *specRepo) DeleteByEntry(ctx context.Context, entryID uuid.UUID) error {
	return r.v.write(func(f *StateFile) error {
		if rec, ok := f.Entries[entryID.String()]; ok {
			rec.Specs = nil
		}
		return nil
	})
}

func (r *specRepo) DistinctValues(ctx context.Context, label string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	err := r.v.read(func(f *StateFile) error {
		for _, rec := range f.Entries {
			for _, s := range rec.Specs {
				if !strings.EqualFold(s.Label, label) || s.Value == "" || seen[s.Value] {
					continue
				}
				seen[s.Value] = true
				out = append(out, s.Value)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

type historyRepo struct{ v *view }

func (r *historyRepo) Add(ctx context.Context, entry *database.OperationHistory) error {
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	return r.v.write(func(f *StateFile) error {
		f.History = append(f.History, HistoryEntry{
			Timestamp: entry.StartedAt,
			Action:    entry.Action,
			Source:    entry.Source,
			Count:     entry.Count,
			Details:   entry.Details,
		})
		entry.ID = int64(len(f.History))
		return nil
	})
}

func (r *historyRepo) GetRecent(ctx context.Context, limit int) ([]*database.OperationHistory, error) {
	var out []*database.OperationHistory
	err := r.v.read(func(f *StateFile) error {
		for i := len(f.History) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
			h := f.History[i]
			completed := h.Timestamp
			out = append(out, &database.OperationHistory{
				ID:          int64(i + 1),
				Action:      h.Action,
				Source:      h.Source,
				Count:       h.Count,
				Details:     h.Details,
				StartedAt:   h.Timestamp,
				CompletedAt: &completed,
			})
		}
		return nil
	})
	return out, err
}
