package model

import (
	"fmt"
	"math"
	"time"
)

// Product status values.  Status is derived from stock and the hidden flag
// by Status(); it is never written on its own.
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusHidden    = "hidden"
)

// MaxImagesPerUpload bounds how many files a single create or update
// request may carry.
const MaxImagesPerUpload = 5

// Image describes one stored picture of a product.
type Image struct {
	URL       string // public URL returned by the uploader
	AltText   string // optional caption
	IsPrimary bool   // exactly one image is primary once stored
}

// Product is a listing owned by exactly one seller.  Buyers holds the
// embedded reservations: a buyer has at most one open cart line, and every
// order placement appends a purchased entry that forms the buyer's
// purchase history.
//
// Version is bumped by the store on every successful write and is the
// compare-and-swap token for all stock mutations.
type Product struct {
	ID          string        // store-assigned, hex ObjectID or decimal
	SellerID    string        // owning seller
	Title       string        // required
	Description string        // required
	Price       float64       // finite and non-negative
	Category    string        // required, matched exactly by search
	Stock       int           // units not held by any reservation
	Hidden      bool          // withdrawn by the seller
	Images      []Image       // stored URLs only
	Buyers      []Reservation // cart lines and purchase records
	Version     int64         // compare-and-swap token
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status derives the listing status: sold at zero stock, hidden when the
// seller withdrew it, available otherwise.
func (p *Product) Status() string {
	switch {
	case p.Stock <= 0:
		return StatusSold
	case p.Hidden:
		return StatusHidden
	default:
		return StatusAvailable
	}
}

// Validate checks the field-level invariants every stored product must
// satisfy.
func (p *Product) Validate() error {
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case p.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case p.Category == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0): // NaN/Inf cannot be encoded as JSON
		return fmt.Errorf("%w: price must be a finite number", ErrValidation)
	case p.Price < 0:
		return fmt.Errorf("%w: price must be non-negative", ErrValidation)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return nil
}

// EnsurePrimaryImage flags the first image as primary when none is.
func (p *Product) EnsurePrimaryImage() {
	for _, img := range p.Images {
		if img.IsPrimary {
			return
		}
	}
	if len(p.Images) > 0 {
		p.Images[0].IsPrimary = true
	}
}

// Clone returns a deep copy so callers can mutate slices without touching
// the original.
func (p *Product) Clone() *Product {
	cp := *p
	cp.Images = append([]Image(nil), p.Images...)
	cp.Buyers = append([]Reservation(nil), p.Buyers...)
	return &cp
}
