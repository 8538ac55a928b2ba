package orderbook

import "sync/atomic"

// OrderBook holds resting liquidity for one symbol. It is single-writer
// and deterministic: callers must serialize all access externally.
type OrderBook struct {
	Bids    *RBTree
	Asks    *RBTree
	LastSeq atomic.Uint64
}

// NewOrderBook creates a new empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids: NewRBTree(),
		Asks: NewRBTree(),
	}
}

// InsertOrder appends the order to the back of its price level without
// attempting any matching. Used to preload passive liquidity.
func (b *OrderBook) InsertOrder(o *Order) {
	if o.Side == Bid {
		b.Bids.UpsertLevel(o.Price).Enqueue(o)
	} else {
		b.Asks.UpsertLevel(o.Price).Enqueue(o)
	}
}

// Match executes the incoming order against resting liquidity and returns
// the trades in the order they happened. The incoming order's Qty is
// consumed in place. A LIMIT remainder rests in the book; an IOC remainder
// is discarded and never enters the book.
//
// Each inner step strictly reduces either the incoming quantity or the
// resting population, so the loop is bounded.
func (b *OrderBook) Match(o *Order) []Trade {
	var trades []Trade

	b.LastSeq.Store(o.SeqID)

	if o.Side == Bid {
		for o.Qty > 0 {
			best := b.Asks.MinLevel()
			if best == nil || best.Price.Cmp(o.Price) > 0 {
				break
			}
			trades = b.consumeLevel(o, best, trades)
			if best.Empty() {
				b.Asks.DeleteLevel(best.Price)
			}
		}
	} else {
		for o.Qty > 0 {
			best := b.Bids.MaxLevel()
			if best == nil || best.Price.Cmp(o.Price) < 0 {
				break
			}
			trades = b.consumeLevel(o, best, trades)
			if best.Empty() {
				b.Bids.DeleteLevel(best.Price)
			}
		}
	}

	if o.Qty > 0 && o.Type == Limit {
		b.InsertOrder(o)
	}
	return trades
}

// consumeLevel fills the incoming order against the level's FIFO until one
// of them is exhausted. The maker always sets the execution price.
func (b *OrderBook) consumeLevel(o *Order, lvl *PriceLevel, trades []Trade) []Trade {
	for o.Qty > 0 && !lvl.Empty() {
		maker := lvl.Head()
		traded := min(o.Qty, maker.Qty)

		trades = append(trades, Trade{
			MakerID: maker.ID,
			TakerID: o.ID,
			Price:   maker.Price,
			Qty:     traded,
		})

		o.Qty -= traded
		maker.Qty -= traded
		lvl.TotalQty -= traded

		if maker.Qty == 0 {
			lvl.PopHead()
		}
	}
	return trades
}
