package repository

import (
	"context"

	"github.com/iliyamo/ekharid/internal/model"
)

// UserStore persists accounts.  Email and username are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
}

// ProductQuery narrows ListProducts.  Zero fields do not filter; set fields
// are combined with AND.
type ProductQuery struct {
	SellerID string // owner of the product
	BuyerID  string // products holding at least one reservation of this buyer
	Text     string // exact equality against title, description or category
}

// ProductStore persists products together with their embedded images and
// reservations.
//
// SaveProduct is the only write path for existing products: it replaces
// every mutable field of p when the stored version still equals
// expectedVersion, bumps the version and copies the new version into p.
// A version mismatch yields ErrStale; a missing product yields
// ErrProductNotFound.
type ProductStore interface {
	InsertProduct(ctx context.Context, p *model.Product) error
	ProductByID(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error)
	SaveProduct(ctx context.Context, p *model.Product, expectedVersion int64) error
	DeleteProduct(ctx context.Context, id string) error
}

// Store bundles both contracts; every backend implements it.
type Store interface {
	UserStore
	ProductStore
}
