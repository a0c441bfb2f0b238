// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedQueue is the durable queue order events are routed to.
const OrderPlacedQueue = "order.placed"

// OrderLine is one committed line of an order.
type OrderLine struct {
	ProductID      string  `json:"product_id"`
	Title          string  `json:"title"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	RemainingStock int     `json:"remaining_stock"`
}

// OrderPlacedEvent is published when an order call committed at least one
// line.  It carries enough for downstream consumers to log, notify or run
// analytics without querying the primary store.
type OrderPlacedEvent struct {
	BuyerID  string      `json:"buyer_id"`
	Lines    []OrderLine `json:"lines"`
	Total    float64     `json:"total"`
	PlacedAt string      `json:"placed_at"`
}
