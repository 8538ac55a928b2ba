package gateway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"flashmatch/domain/orderbook"
	"flashmatch/infra/memory"
	"flashmatch/infra/queue"
	"flashmatch/infra/sequence"
)

// ErrQueueFull is the backpressure signal: the ring rejected the order and
// the caller decides whether to retry, drop, or report upstream.
var ErrQueueFull = errors.New("gateway: order queue full")

// Request is the wire-level order representation shared by the REST and
// Kafka ingress paths.
type Request struct {
	ID       uint64          `json:"id"`
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity uint64          `json:"quantity"`
	Type     string          `json:"type"`
}

// Gateway owns the producer side of the order ring. The ring itself is
// strictly single-producer; the gateway serializes the HTTP handlers and
// the Kafka ingress loop onto that role with a mutex, keeping the ring's
// contract intact. The consumer side belongs to the order service.
type Gateway struct {
	ring *queue.Ring[*orderbook.Order]
	pool *memory.Pool[orderbook.Order]
	seq  *sequence.Sequencer

	mu sync.Mutex
}

func New(
	ring *queue.Ring[*orderbook.Order],
	pool *memory.Pool[orderbook.Order],
	seq *sequence.Sequencer,
) *Gateway {
	return &Gateway{ring: ring, pool: pool, seq: seq}
}

// Build validates a request and materializes it as a domain order drawn
// from the pool, stamped with the next sequence ID.
func (g *Gateway) Build(req Request) (*orderbook.Order, error) {
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	otype, err := ParseOrderType(req.Type)
	if err != nil {
		return nil, err
	}
	if req.Symbol == "" {
		return nil, errors.New("gateway: symbol is required")
	}
	if req.Price.Sign() < 0 {
		return nil, fmt.Errorf("gateway: negative price %s", req.Price)
	}

	o := g.pool.Get()
	*o = orderbook.Order{
		ID:     req.ID,
		Symbol: req.Symbol,
		Side:   side,
		Price:  req.Price,
		Qty:    req.Quantity,
		Type:   otype,
		SeqID:  g.seq.Next(),
	}
	return o, nil
}

// Enqueue hands the order to the matching thread. False means the ring is
// full; the order is untouched and still owned by the caller.
func (g *Gateway) Enqueue(o *orderbook.Order) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ring.Push(o)
}

// Release returns an order that never entered the ring to the pool.
func (g *Gateway) Release(o *orderbook.Order) {
	g.pool.Put(o)
}

// Accept is the single-attempt path used by the REST handler: build,
// enqueue once, surface ErrQueueFull on backpressure.
func (g *Gateway) Accept(req Request) (uint64, error) {
	o, err := g.Build(req)
	if err != nil {
		return 0, err
	}
	seq := o.SeqID
	if !g.Enqueue(o) {
		g.Release(o)
		return 0, ErrQueueFull
	}
	return seq, nil
}

func ParseSide(s string) (orderbook.Side, error) {
	switch s {
	case "BUY", "BID":
		return orderbook.Bid, nil
	case "SELL", "ASK":
		return orderbook.Ask, nil
	default:
		return 0, fmt.Errorf("gateway: unknown side %q", s)
	}
}

func ParseOrderType(s string) (orderbook.OrderType, error) {
	switch s {
	case "LIMIT":
		return orderbook.Limit, nil
	case "IOC":
		return orderbook.IOC, nil
	default:
		return 0, fmt.Errorf("gateway: unknown order type %q", s)
	}
}
