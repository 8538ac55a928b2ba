package orderbook

import "github.com/shopspring/decimal"

type Side int
type OrderType int

const (
	Bid Side = iota
	Ask
)

const (
	Limit OrderType = iota
	IOC
)

func (s Side) String() string {
	if s == Ask {
		return "SELL"
	}
	return "BUY"
}

func (t OrderType) String() string {
	if t == IOC {
		return "IOC"
	}
	return "LIMIT"
}

// Order is a pure domain entity. Identity fields are immutable once the
// order enters the engine; Qty is decremented in place as fills consume it.
type Order struct {
	ID     uint64
	Symbol string
	Price  decimal.Decimal
	Qty    uint64
	SeqID  uint64

	Side Side
	Type OrderType

	next *Order
	prev *Order
}

// Next returns the order behind this one at the same price level.
// Read-only traversal helper.
func (o *Order) Next() *Order {
	return o.next
}

// Trade records one execution. Price is always the resting (maker)
// order's price.
type Trade struct {
	MakerID uint64
	TakerID uint64
	Price   decimal.Decimal
	Qty     uint64
}
