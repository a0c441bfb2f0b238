package service

import (
	"context"
	"time"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/repository"
)

// CartService moves units between a product's stock and a buyer's cart
// line.  Every transition is a compare-and-swap on the product version.
type CartService struct {
	Products repository.ProductStore
	Now      func() time.Time
}

// NewCartService wires a CartService.
func NewCartService(products repository.ProductStore) *CartService {
	return &CartService{Products: products, Now: nowUTC}
}

// Increase reserves one more unit for the buyer.
func (s *CartService) Increase(ctx context.Context, buyerID, productID string) (*model.Product, error) {
	now := s.Now()
	return mutateProduct(ctx, s.Products, productID, func(p *model.Product) error {
		return p.IncreaseCart(buyerID, now)
	})
}

// Decrease releases one reserved unit back to stock.
func (s *CartService) Decrease(ctx context.Context, buyerID, productID string) (*model.Product, error) {
	now := s.Now()
	return mutateProduct(ctx, s.Products, productID, func(p *model.Product) error {
		return p.DecreaseCart(buyerID, now)
	})
}

// Reset releases the whole cart line and reports how many units returned
// to stock.
func (s *CartService) Reset(ctx context.Context, buyerID, productID string) (*model.Product, int, error) {
	var released int
	p, err := mutateProduct(ctx, s.Products, productID, func(p *model.Product) error {
		n, err := p.ResetCart(buyerID)
		released = n
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return p, released, nil
}

// FetchCart lists the open cart line of every product the buyer holds
// units of.  Purchased entries are left to GetOrders.  An empty cart is an
// empty slice, not an error.
func (s *CartService) FetchCart(ctx context.Context, buyerID string) ([]LineItem, error) {
	products, err := s.Products.ListProducts(ctx, repository.ProductQuery{BuyerID: buyerID})
	if err != nil {
		return nil, err
	}
	items := make([]LineItem, 0, len(products))
	for i := range products {
		line, ok := products[i].CartLine(buyerID)
		if !ok { // only purchases on this product
			continue
		}
		items = append(items, lineItem(&products[i], line))
	}
	return items, nil
}
