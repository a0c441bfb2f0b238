package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newProduct(stock int) *Product {
	return &Product{ID: "p1", SellerID: "s1", Title: "Lamp", Description: "Desk lamp", Category: "home", Price: 20, Stock: stock}
}

func reservedTotal(p *Product) int {
	n := 0
	for _, r := range p.Buyers {
		n += r.Quantity
	}
	return n
}

func TestStatus(t *testing.T) {
	p := newProduct(2)
	assert.Equal(t, StatusAvailable, p.Status())

	p.Hidden = true
	assert.Equal(t, StatusHidden, p.Status())

	p.Stock = 0
	assert.Equal(t, StatusSold, p.Status(), "zero stock wins over hidden")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Product)
		ok     bool
	}{
		{"valid", func(*Product) {}, true},
		{"missing title", func(p *Product) { p.Title = "" }, false},
		{"missing description", func(p *Product) { p.Description = "" }, false},
		{"missing category", func(p *Product) { p.Category = "" }, false},
		{"negative price", func(p *Product) { p.Price = -1 }, false},
		{"negative stock", func(p *Product) { p.Stock = -1 }, false},
		{"zero price", func(p *Product) { p.Price = 0 }, true},
		{"NaN price", func(p *Product) { p.Price = math.NaN() }, false},
		{"+Inf price", func(p *Product) { p.Price = math.Inf(1) }, false},
		{"-Inf price", func(p *Product) { p.Price = math.Inf(-1) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProduct(1)
			tt.mutate(p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestIncreaseUntilOutOfStock(t *testing.T) {
	p := newProduct(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.IncreaseCart("a", testNow))
	}
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 3, p.CartQuantity("a"))
	assert.Len(t, p.Buyers, 1, "one cart line per buyer")

	before := p.Clone()
	err := p.IncreaseCart("a", testNow)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, before, p, "failed increase leaves state unchanged")
}

func TestIncreaseRefreshesTimestamp(t *testing.T) {
	p := newProduct(5)
	require.NoError(t, p.IncreaseCart("a", testNow))
	later := testNow.Add(time.Hour)
	require.NoError(t, p.IncreaseCart("a", later))
	assert.Equal(t, later, p.Buyers[0].PurchaseDate)
}

func TestIncreaseDecreaseRoundTrip(t *testing.T) {
	p := newProduct(4)
	require.NoError(t, p.IncreaseCart("b", testNow))
	before := p.Clone()

	require.NoError(t, p.IncreaseCart("a", testNow))
	require.NoError(t, p.DecreaseCart("a", testNow))

	assert.Equal(t, before.Stock, p.Stock)
	assert.Equal(t, before.Buyers, p.Buyers)
}

func TestDecreaseWithoutReservation(t *testing.T) {
	p := newProduct(2)
	before := p.Clone()
	err := p.DecreaseCart("a", testNow)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, before, p)
}

func TestDecreaseKeepsLineAboveZero(t *testing.T) {
	p := newProduct(5)
	require.NoError(t, p.IncreaseCart("a", testNow))
	require.NoError(t, p.IncreaseCart("a", testNow))
	require.NoError(t, p.DecreaseCart("a", testNow))
	assert.Equal(t, 1, p.CartQuantity("a"))
	assert.Equal(t, 4, p.Stock)
}

func TestResetReleasesEverything(t *testing.T) {
	p := newProduct(5)
	require.NoError(t, p.IncreaseCart("a", testNow))
	require.NoError(t, p.IncreaseCart("a", testNow))
	require.NoError(t, p.IncreaseCart("b", testNow))

	n, err := p.ResetCart("a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, p.Stock)
	assert.Equal(t, 0, p.CartQuantity("a"))
	assert.Equal(t, 1, p.CartQuantity("b"))

	_, err = p.ResetCart("a")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCartTransitionsKeepInventoryConstant(t *testing.T) {
	p := newProduct(6)
	total := p.Stock
	steps := []func() error{
		func() error { return p.IncreaseCart("a", testNow) },
		func() error { return p.IncreaseCart("b", testNow) },
		func() error { return p.IncreaseCart("a", testNow) },
		func() error { return p.DecreaseCart("b", testNow) },
		func() error { _, err := p.ResetCart("a"); return err },
		func() error { return p.DecreaseCart("a", testNow) },
		func() error { return p.IncreaseCart("c", testNow) },
	}
	for _, step := range steps {
		_ = step()
		assert.GreaterOrEqual(t, p.Stock, 0)
		assert.Equal(t, total, p.Stock+reservedTotal(p))
		for _, r := range p.Buyers {
			assert.Positive(t, r.Quantity)
		}
	}
}

func TestPurchaseAppendsEntry(t *testing.T) {
	p := newProduct(5)
	require.NoError(t, p.IncreaseCart("a", testNow))
	require.NoError(t, p.Purchase("a", 2, testNow))

	assert.Equal(t, 2, p.Stock)
	assert.Len(t, p.ReservationsOf("a"), 2, "purchase does not merge into the cart line")
	assert.Equal(t, 1, p.CartQuantity("a"))
	assert.False(t, p.Buyers[0].Purchased)
	assert.True(t, p.Buyers[1].Purchased)
}

func TestCartOpsSkipPurchasedEntries(t *testing.T) {
	p := newProduct(5)
	require.NoError(t, p.Purchase("a", 2, testNow))
	assert.Equal(t, 3, p.Stock)
	_, ok := p.CartLine("a")
	assert.False(t, ok, "a purchase is not a cart line")

	_, err := p.ResetCart("a")
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.ErrorIs(t, p.DecreaseCart("a", testNow), ErrInvalidOperation)
	assert.Equal(t, 3, p.Stock, "purchased units stay sold")

	require.NoError(t, p.IncreaseCart("a", testNow))
	require.Len(t, p.Buyers, 2)
	assert.Equal(t, 2, p.Buyers[0].Quantity, "purchase record untouched")
	assert.True(t, p.Buyers[0].Purchased)
	line, ok := p.CartLine("a")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
	assert.False(t, line.Purchased)

	n, err := p.ResetCart("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, p.Stock)
	assert.Len(t, p.ReservationsOf("a"), 1)
}

func TestPurchaseInsufficientStock(t *testing.T) {
	p := newProduct(1)
	before := p.Clone()
	err := p.Purchase("a", 2, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, before, p)

	assert.ErrorIs(t, p.Purchase("a", 0, testNow), ErrValidation)
}

func TestEnsurePrimaryImage(t *testing.T) {
	p := newProduct(1)
	p.Images = []Image{{URL: "/a.png"}, {URL: "/b.png"}}
	p.EnsurePrimaryImage()
	assert.True(t, p.Images[0].IsPrimary)
	assert.False(t, p.Images[1].IsPrimary)

	p.Images = []Image{{URL: "/a.png"}, {URL: "/b.png", IsPrimary: true}}
	p.EnsurePrimaryImage()
	assert.False(t, p.Images[0].IsPrimary)
}
