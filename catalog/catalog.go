// Package catalog is the product side of the store: availability listings
// for buyers, CRUD for the owning seller. Products are hard-deleted; there
// is no soft delete or versioning.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"donutshop/faults"
	"donutshop/models"
	"donutshop/store"
)

type Catalog struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Catalog {
	return &Catalog{store: st, now: time.Now}
}

// Available returns every product flagged available for purchase.
func (c *Catalog) Available(ctx context.Context) ([]models.Product, error) {
	return c.query(ctx, "isAvailable", true)
}

// BySeller returns the seller's products, available or not.
func (c *Catalog) BySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	return c.query(ctx, "sellerId", sellerID)
}

func (c *Catalog) query(ctx context.Context, field string, value any) ([]models.Product, error) {
	docs, err := c.store.Query(ctx, store.Products, field, value)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		var p models.Product
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, faults.Wrap(faults.Transport, "catalog.query", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *Catalog) ByID(ctx context.Context, productID string) (models.Product, error) {
	var p models.Product
	if err := c.store.Get(ctx, store.Products, productID, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// Add validates and stores a new product for the seller. The created-at
// stamp is assigned here.
func (c *Catalog) Add(ctx context.Context, p models.Product) (string, error) {
	const op = "catalog.add"
	if err := validate(op, p); err != nil {
		return "", err
	}
	p.CreatedAt = c.now()
	return c.store.Add(ctx, store.Products, p)
}

// Update replaces the product record. Only the owning seller may edit.
func (c *Catalog) Update(ctx context.Context, p models.Product) error {
	const op = "catalog.update"
	if err := validate(op, p); err != nil {
		return err
	}

	existing, err := c.ByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing.SellerID != p.SellerID {
		return faults.New(faults.Validation, op, "product belongs to another seller")
	}

	// Identity fields stay put across edits.
	p.SellerID = existing.SellerID
	p.CreatedAt = existing.CreatedAt
	return c.store.Set(ctx, store.Products, p.ID, p)
}

// Delete hard-deletes the product after an ownership check.
func (c *Catalog) Delete(ctx context.Context, productID, sellerID string) error {
	const op = "catalog.delete"
	existing, err := c.ByID(ctx, productID)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return faults.New(faults.Validation, op, "product belongs to another seller")
	}
	return c.store.Delete(ctx, store.Products, productID)
}

func validate(op string, p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return faults.New(faults.Validation, op, "name is required")
	}
	if p.Price < 0 {
		return faults.New(faults.Validation, op, "price must not be negative")
	}
	if p.SellerID == "" {
		return faults.New(faults.Validation, op, "sellerId is required")
	}
	return nil
}
