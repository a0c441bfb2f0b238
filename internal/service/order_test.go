package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/repository"
)

func TestPlaceOrderCommitsLines(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a := seedProduct(t, store, "s", 5)
	b := seedProduct(t, store, "s", 2)
	pub := &fakePublisher{}
	svc := NewOrderService(store, pub)

	lines, err := svc.PlaceOrder(ctx, "b1", []OrderItem{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: "missing", Quantity: 1},
		{ProductID: b.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2, "unknown products are skipped")
	assert.Equal(t, PlacedLine{ProductID: a.ID, Title: "Lamp", Quantity: 3, Price: 12.5, RemainingStock: 2}, lines[0])
	assert.Equal(t, 0, lines[1].RemainingStock)

	stored, err := store.ProductByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, stored.Status())

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "b1", ev.BuyerID)
	assert.Len(t, ev.Lines, 2)
	assert.InDelta(t, 62.5, ev.Total, 0.001)
}

func TestPlaceOrderAppendsNewEntries(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	p := seedProduct(t, store, "s", 10)
	_, err := NewCartService(store).Increase(ctx, "b1", p.ID)
	require.NoError(t, err)

	svc := NewOrderService(store, nil)
	_, err = svc.PlaceOrder(ctx, "b1", []OrderItem{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)

	stored, err := store.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Buyers, 2)
	assert.Equal(t, 1, stored.Buyers[0].Quantity, "cart line untouched")
	assert.Equal(t, 2, stored.Buyers[1].Quantity)
	assert.Equal(t, 7, stored.Stock)
}

func TestPlaceOrderInsufficientStockKeepsEarlierLines(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a := seedProduct(t, store, "s", 5)
	b := seedProduct(t, store, "s", 1)
	c := seedProduct(t, store, "s", 5)
	pub := &fakePublisher{}
	svc := NewOrderService(store, pub)

	lines, err := svc.PlaceOrder(ctx, "b1", []OrderItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
		{ProductID: c.ID, Quantity: 1},
	})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	require.Len(t, lines, 1)

	got, err := store.ProductByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock, "earlier line stays committed")
	got, err = store.ProductByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
	assert.Empty(t, got.Buyers)
	got, err = store.ProductByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock, "later lines are not attempted")

	require.Len(t, pub.events, 1)
	assert.Len(t, pub.events[0].Lines, 1)
}

func TestPlaceOrderValidation(t *testing.T) {
	svc := NewOrderService(repository.NewMemoryStore(), nil)
	ctx := context.Background()
	for _, items := range [][]OrderItem{
		nil,
		{{ProductID: "1", Quantity: 0}},
		{{ProductID: "", Quantity: 1}},
	} {
		_, err := svc.PlaceOrder(ctx, "b1", items)
		assert.ErrorIs(t, err, model.ErrValidation)
	}
}

func TestPlaceOrderIgnoresPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	p := seedProduct(t, store, "s", 1)
	svc := NewOrderService(store, &fakePublisher{err: errors.New("broker down")})

	lines, err := svc.PlaceOrder(ctx, "b1", []OrderItem{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestPlaceOrderWithNothingCommittedPublishesNothing(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewOrderService(repository.NewMemoryStore(), pub)
	lines, err := svc.PlaceOrder(context.Background(), "b1", []OrderItem{{ProductID: "missing", Quantity: 1}})
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, pub.events)
}

func TestGetOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a := seedProduct(t, store, "s", 10)
	b := seedProduct(t, store, "s", 10)
	t1 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	svc := &OrderService{Products: store, Now: fixedClock(t1, t2)}

	_, err := svc.PlaceOrder(ctx, "b1", []OrderItem{{ProductID: a.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "b1", []OrderItem{{ProductID: b.ID, Quantity: 2}, {ProductID: a.ID, Quantity: 3}})
	require.NoError(t, err)

	rows, err := svc.GetOrders(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, t2, rows[0].PurchaseDate)
	assert.Equal(t, t1, rows[2].PurchaseDate)
	assert.Equal(t, a.ID, rows[2].ProductID)
	assert.Equal(t, 1, rows[2].Quantity)

	empty, err := svc.GetOrders(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
