package postgres

import (
	"context"
	"fmt"

	"github.com/esgaming/catalogops/internal/database"
)

// Catalog implements database.Catalog on top of a connection pool or,
// inside InTx, a single transaction
type Catalog struct {
	client *Client
	q      querier
}

// NewCatalog creates a catalog bound to the client's pool. The client must
// already be connected.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client, q: client.pool}
}

func (c *Catalog) Categories() database.CategoryRepository {
	return &CategoryRepo{q: c.q}
}

func (c *Catalog) Entries() database.EntryRepository {
	return &EntryRepo{q: c.q}
}

func (c *Catalog) Prices() database.PriceRepository {
	return &PriceRepo{q: c.q}
}

func (c *Catalog) Images() database.ImageRepository {
	return &ImageRepo{q: c.q}
}

func (c *Catalog) Specifications() database.SpecificationRepository {
	return &SpecificationRepo{q: c.q}
}

func (c *Catalog) History() database.HistoryRepository {
	return &HistoryRepo{q: c.q}
}

// InTx runs fn inside one transaction. The transaction is committed only if
// fn returns nil.
func (c *Catalog) InTx(ctx context.Context, fn func(database.Catalog) error) error {
	if c.client == nil || c.client.pool == nil {
		return fmt.Errorf("database not connected")
	}

	tx, err := c.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Catalog{client: c.client, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
