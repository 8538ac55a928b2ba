package engine

import "flashmatch/domain/orderbook"

// MatchingEngine routes orders to per-symbol books and offers two
// submission modes: immediate (Submit) and batched (Add/Run).
//
// It is not internally synchronized. The intended deployment has exactly
// one goroutine draining the ingest ring and making all calls; sharding
// symbols across goroutines with disjoint engines is a valid extension.
type MatchingEngine struct {
	books   map[string]*orderbook.OrderBook
	pending []*orderbook.Order
}

func New() *MatchingEngine {
	return &MatchingEngine{
		books: make(map[string]*orderbook.OrderBook),
	}
}

// Book returns the order book for symbol, creating it on first reference.
// Books live for the engine's lifetime and are never removed.
func (e *MatchingEngine) Book(symbol string) *orderbook.OrderBook {
	b, ok := e.books[symbol]
	if !ok {
		b = orderbook.NewOrderBook()
		e.books[symbol] = b
	}
	return b
}

// Insert preloads passive liquidity without triggering matching.
func (e *MatchingEngine) Insert(o *orderbook.Order) {
	e.Book(o.Symbol).InsertOrder(o)
}

// Submit immediately processes an order and returns the trades executed.
// Synchronous; runs to completion with no internal suspension.
func (e *MatchingEngine) Submit(o *orderbook.Order) []orderbook.Trade {
	return e.Book(o.Symbol).Match(o)
}

// Add queues an order for later processing. Constant time, touches no book.
func (e *MatchingEngine) Add(o *orderbook.Order) {
	e.pending = append(e.pending, o)
}

// Run drains the pending queue strictly in FIFO order and concatenates the
// trades in the order they were produced.
func (e *MatchingEngine) Run() []orderbook.Trade {
	var trades []orderbook.Trade
	for _, o := range e.pending {
		trades = append(trades, e.Submit(o)...)
	}
	e.pending = e.pending[:0]
	return trades
}

// PendingLen reports how many orders are queued for the next Run.
func (e *MatchingEngine) PendingLen() int {
	return len(e.pending)
}

// ForEachBook visits every book. Same single-writer contract as the rest
// of the engine; used by the depth read-model builder.
func (e *MatchingEngine) ForEachBook(fn func(symbol string, b *orderbook.OrderBook)) {
	for sym, b := range e.books {
		fn(sym, b)
	}
}
