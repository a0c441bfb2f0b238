package model

import (
	"fmt"
	"time"
)

// Reservation is a buyer's hold on units of a product, embedded in the
// product document.  An entry is either the buyer's open cart line or,
// with Purchased set, the record of a placed order.  Cart operations never
// touch purchased entries.
type Reservation struct {
	BuyerID      string    // owning buyer
	Quantity     int       // units held, always >= 1
	PurchaseDate time.Time // last change of a cart line, order time of a purchase
	Purchased    bool      // set by Purchase; cart lines leave it false
}

// cartIndex returns the position of the buyer's cart line, or -1.
func (p *Product) cartIndex(buyerID string) int {
	for i, r := range p.Buyers {
		if r.BuyerID == buyerID && !r.Purchased { // purchase records are not cart lines
			return i
		}
	}
	return -1
}

// CartLine returns the buyer's open cart line, if any.
func (p *Product) CartLine(buyerID string) (Reservation, bool) {
	if i := p.cartIndex(buyerID); i >= 0 {
		return p.Buyers[i], true
	}
	return Reservation{}, false
}

// CartQuantity returns how many units the buyer holds in the cart line.
func (p *Product) CartQuantity(buyerID string) int {
	if i := p.cartIndex(buyerID); i >= 0 {
		return p.Buyers[i].Quantity
	}
	return 0
}

// ReservationsOf returns every reservation entry of the buyer, cart line
// and purchases alike, in stored order.
func (p *Product) ReservationsOf(buyerID string) []Reservation {
	var out []Reservation
	for _, r := range p.Buyers {
		if r.BuyerID == buyerID {
			out = append(out, r)
		}
	}
	return out
}

// IncreaseCart moves one unit from stock into the buyer's cart line,
// creating the line when absent.
func (p *Product) IncreaseCart(buyerID string, now time.Time) error {
	if p.Stock <= 0 {
		return fmt.Errorf("%w: product %s", ErrOutOfStock, p.ID)
	}
	p.Stock--
	if i := p.cartIndex(buyerID); i >= 0 {
		p.Buyers[i].Quantity++
		p.Buyers[i].PurchaseDate = now
		return nil
	}
	p.Buyers = append(p.Buyers, Reservation{BuyerID: buyerID, Quantity: 1, PurchaseDate: now})
	return nil
}

// DecreaseCart returns one unit from the buyer's cart line to stock and
// drops the line when it reaches zero.
func (p *Product) DecreaseCart(buyerID string, now time.Time) error {
	i := p.cartIndex(buyerID)
	if i < 0 || p.Buyers[i].Quantity <= 0 {
		return fmt.Errorf("%w: no reservation for buyer %s on product %s", ErrInvalidOperation, buyerID, p.ID)
	}
	p.Stock++
	p.Buyers[i].Quantity--
	if p.Buyers[i].Quantity == 0 {
		p.removeAt(i)
		return nil
	}
	p.Buyers[i].PurchaseDate = now
	return nil
}

// ResetCart returns the whole cart line to stock and removes it.  It
// reports how many units were released.
func (p *Product) ResetCart(buyerID string) (int, error) {
	i := p.cartIndex(buyerID)
	if i < 0 {
		return 0, fmt.Errorf("%w: no reservation for buyer %s on product %s", ErrInvalidOperation, buyerID, p.ID)
	}
	qty := p.Buyers[i].Quantity
	p.Stock += qty
	p.removeAt(i)
	return qty, nil
}

// Purchase takes qty units out of stock and appends a purchased entry for
// the buyer.  Existing entries, the cart line included, are left untouched.
func (p *Product) Purchase(buyerID string, qty int, now time.Time) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if qty > p.Stock {
		return fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, p.ID, p.Stock, qty)
	}
	p.Stock -= qty
	p.Buyers = append(p.Buyers, Reservation{BuyerID: buyerID, Quantity: qty, PurchaseDate: now, Purchased: true})
	return nil
}

func (p *Product) removeAt(i int) {
	p.Buyers = append(p.Buyers[:i], p.Buyers[i+1:]...)
}
