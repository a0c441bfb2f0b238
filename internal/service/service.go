// Package service holds the marketplace use cases: identity, catalog, cart
// and order placement.  Services depend on the repository contracts only
// and return errors wrapping the kinds in package model.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/repository"
)

// casAttempts bounds the read-modify-write loop on a single product.
const casAttempts = 5

// mutateProduct loads the product, applies fn and writes it back only if no
// other writer bumped the version in between.  fn must be a pure transition
// on p; it runs again on every retry against a fresh copy.
func mutateProduct(ctx context.Context, store repository.ProductStore, id string, fn func(p *model.Product) error) (*model.Product, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		p, err := store.ProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := p.Version
		if err := fn(p); err != nil {
			return nil, err
		}
		err = store.SaveProduct(ctx, p, expected)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrStale) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: product %s kept changing, try again", model.ErrConflict, id)
}

// LineItem is a product projected for one reservation entry of a buyer.
// It is what cart and order listings return.
type LineItem struct {
	ProductID    string
	Title        string
	Price        float64
	Images       []model.Image
	Quantity     int
	PurchaseDate time.Time
	Purchased    bool // false for the open cart line
}

func lineItem(p *model.Product, r model.Reservation) LineItem {
	return LineItem{
		ProductID:    p.ID,
		Title:        p.Title,
		Price:        p.Price,
		Images:       p.Images,
		Quantity:     r.Quantity,
		PurchaseDate: r.PurchaseDate,
		Purchased:    r.Purchased,
	}
}

func nowUTC() time.Time { return time.Now().UTC() }
