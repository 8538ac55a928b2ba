package service

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Execution is the published form of a trade, stamped with the execution
// sequence and the taker's symbol.
type Execution struct {
	Seq     uint64          `json:"seq"`
	Symbol  string          `json:"symbol"`
	MakerID uint64          `json:"maker_id"`
	TakerID uint64          `json:"taker_id"`
	Price   decimal.Decimal `json:"price"`
	Qty     uint64          `json:"quantity"`
	At      int64           `json:"ts"`
}

// Subscription receives executions on C until unsubscribed.
type Subscription struct {
	C  <-chan Execution
	ch chan Execution
}

// hub fans executions out to subscribers. Broadcast never blocks the
// matching thread: a subscriber that cannot keep up misses events.
type hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*Subscription]struct{})}
}

func (h *hub) subscribe(buffer int) *Subscription {
	ch := make(chan Execution, buffer)
	sub := &Subscription{C: ch, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

func (h *hub) broadcast(ev Execution) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
