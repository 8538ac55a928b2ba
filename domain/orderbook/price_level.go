package orderbook

import "github.com/shopspring/decimal"

// PriceLevel is a FIFO queue of resting orders at a single price.
// Arrival order is execution order.
type PriceLevel struct {
	Price decimal.Decimal

	head *Order
	tail *Order

	TotalQty   uint64
	OrderCount int
}

func (p *PriceLevel) Enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.TotalQty += o.Qty
	p.OrderCount++
}

func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}

	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}

	o.next = nil
	o.prev = nil

	p.TotalQty -= o.Qty
	p.OrderCount--

	return o
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Head returns the oldest resting order without removing it.
func (p *PriceLevel) Head() *Order {
	return p.head
}
