package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/queue"
	"github.com/iliyamo/ekharid/internal/repository"
)

// OrderItem is one requested line of an order.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// PlacedLine is one committed line of an order.
type PlacedLine struct {
	ProductID      string
	Title          string
	Quantity       int
	Price          float64
	RemainingStock int
}

// EventPublisher delivers order events to the message broker.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// OrderService places orders and rebuilds order history from the
// reservations embedded in products.
type OrderService struct {
	Products repository.ProductStore
	Events   EventPublisher // optional
	Now      func() time.Time
}

// NewOrderService wires an OrderService.  events may be nil.
func NewOrderService(products repository.ProductStore, events EventPublisher) *OrderService {
	return &OrderService{Products: products, Events: events, Now: nowUTC}
}

// PlaceOrder commits items in order.  Unknown product ids are skipped.  A
// line asking for more than the stock aborts the call with
// model.ErrInsufficientStock; lines committed before it stay committed and
// are returned alongside the error.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID string, items []OrderItem) ([]PlacedLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items are required", model.ErrValidation)
	}
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, fmt.Errorf("%w: productId is required", model.ErrValidation)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", model.ErrValidation)
		}
	}

	now := s.Now()
	var placed []PlacedLine
	var failure error
	for _, it := range items {
		p, err := mutateProduct(ctx, s.Products, it.ProductID, func(p *model.Product) error {
			return p.Purchase(buyerID, it.Quantity, now)
		})
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			failure = err
			break
		}
		placed = append(placed, PlacedLine{
			ProductID:      p.ID,
			Title:          p.Title,
			Quantity:       it.Quantity,
			Price:          p.Price,
			RemainingStock: p.Stock,
		})
	}

	if len(placed) > 0 {
		s.publish(ctx, buyerID, placed, now)
	}
	return placed, failure
}

func (s *OrderService) publish(ctx context.Context, buyerID string, placed []PlacedLine, at time.Time) {
	if s.Events == nil {
		return
	}
	ev := queue.OrderPlacedEvent{BuyerID: buyerID, PlacedAt: at.Format(time.RFC3339)}
	for _, l := range placed {
		ev.Lines = append(ev.Lines, queue.OrderLine{
			ProductID:      l.ProductID,
			Title:          l.Title,
			Quantity:       l.Quantity,
			Price:          l.Price,
			RemainingStock: l.RemainingStock,
		})
		ev.Total += l.Price * float64(l.Quantity)
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Events.PublishOrderPlaced(pctx, ev); err != nil {
		log.Printf("order: publish order.placed for buyer %s: %v", buyerID, err)
	}
}

// GetOrders lists every reservation entry of the buyer, newest first.
func (s *OrderService) GetOrders(ctx context.Context, buyerID string) ([]LineItem, error) {
	products, err := s.Products.ListProducts(ctx, repository.ProductQuery{BuyerID: buyerID})
	if err != nil {
		return nil, err
	}
	var rows []LineItem
	for i := range products {
		for _, r := range products[i].ReservationsOf(buyerID) {
			rows = append(rows, lineItem(&products[i], r))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PurchaseDate.After(rows[j].PurchaseDate)
	})
	if rows == nil {
		rows = []LineItem{}
	}
	return rows, nil
}
