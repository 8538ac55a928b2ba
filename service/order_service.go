package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flashmatch/domain/orderbook"
	"flashmatch/engine"
	"flashmatch/infra/journal"
	"flashmatch/infra/memory"
	"flashmatch/infra/queue"
	"flashmatch/infra/sequence"
)

// Level is one aggregated price level in a depth view.
type Level struct {
	Price  decimal.Decimal `json:"price"`
	Qty    uint64          `json:"quantity"`
	Orders int             `json:"orders"`
}

// Depth is the read-model snapshot of one book, best prices first.
type Depth struct {
	Symbol  string  `json:"symbol"`
	Bids    []Level `json:"bids"`
	Asks    []Level `json:"asks"`
	LastSeq uint64  `json:"last_seq"`
}

// OrderService is the only write entry point into the engine. It owns the
// consumer side of the ingest ring: one goroutine pops orders, matches
// them, and publishes the resulting executions. Nothing else may touch the
// engine while Start is running.
type OrderService struct {
	engine  *engine.MatchingEngine
	ring    *queue.Ring[*orderbook.Order]
	pool    *memory.Pool[orderbook.Order]
	execSeq *sequence.Sequencer
	journal *journal.Journal // nil disables journaling
	hub     *hub
	log     *zap.Logger

	depthLevels  int
	snapInterval time.Duration
	depth        atomic.Value // map[string]Depth

	done chan struct{}
}

func New(
	eng *engine.MatchingEngine,
	ring *queue.Ring[*orderbook.Order],
	pool *memory.Pool[orderbook.Order],
	execSeq *sequence.Sequencer,
	j *journal.Journal,
	log *zap.Logger,
	depthLevels int,
	snapInterval time.Duration,
) *OrderService {
	s := &OrderService{
		engine:       eng,
		ring:         ring,
		pool:         pool,
		execSeq:      execSeq,
		journal:      j,
		hub:          newHub(),
		log:          log,
		depthLevels:  depthLevels,
		snapInterval: snapInterval,
		done:         make(chan struct{}),
	}
	s.depth.Store(map[string]Depth{})
	return s
}

// Preload inserts passive liquidity without matching. Must only be called
// before Start, or from the consumer goroutine.
func (s *OrderService) Preload(o *orderbook.Order) {
	s.engine.Insert(o)
}

// SubmitSync bypasses the ring for callers that own serialization
// themselves (benchmarks, tests). Never call it while Start is running.
func (s *OrderService) SubmitSync(o *orderbook.Order) []orderbook.Trade {
	return s.engine.Submit(o)
}

// Subscribe registers an execution feed subscriber.
func (s *OrderService) Subscribe(buffer int) *Subscription {
	return s.hub.subscribe(buffer)
}

func (s *OrderService) Unsubscribe(sub *Subscription) {
	s.hub.unsubscribe(sub)
}

// Start launches the consumer goroutine and returns immediately.
func (s *OrderService) Start(ctx context.Context) {
	go s.drain(ctx)
}

// Done is closed once the consumer goroutine has exited.
func (s *OrderService) Done() <-chan struct{} {
	return s.done
}

// drain is the matching thread. The ring pop never blocks, so an empty
// ring is handled with a short sleep; the depth read-model is refreshed
// here as well so every book access stays on this goroutine.
func (s *OrderService) drain(ctx context.Context) {
	defer close(s.done)
	s.log.Info("order consumer started")

	lastSnap := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.refreshDepth()
			return
		default:
		}

		o, ok := s.ring.Pop()
		if ok {
			s.process(o)
		} else {
			time.Sleep(20 * time.Microsecond)
		}

		if time.Since(lastSnap) >= s.snapInterval {
			s.refreshDepth()
			lastSnap = time.Now()
		}
	}
}

func (s *OrderService) process(o *orderbook.Order) {
	taken := o.Qty
	trades := s.engine.Submit(o)
	for _, t := range trades {
		s.publish(o.Symbol, t)
	}

	// A LIMIT remainder is now owned by the book; everything else can be
	// recycled immediately on this goroutine.
	rested := o.Type == orderbook.Limit && o.Qty > 0
	if !rested {
		s.pool.Put(o)
	}

	if len(trades) > 0 {
		s.log.Debug("order matched",
			zap.Uint64("taker", trades[0].TakerID),
			zap.Int("fills", len(trades)),
			zap.Uint64("qty_in", taken))
	}
}

func (s *OrderService) publish(symbol string, t orderbook.Trade) {
	ev := Execution{
		Seq:     s.execSeq.Next(),
		Symbol:  symbol,
		MakerID: t.MakerID,
		TakerID: t.TakerID,
		Price:   t.Price,
		Qty:     t.Qty,
		At:      time.Now().UnixNano(),
	}

	if s.journal != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			err = s.journal.Append(ev.Seq, payload)
		}
		if err != nil {
			s.log.Error("journal append failed", zap.Uint64("seq", ev.Seq), zap.Error(err))
		}
	}

	s.hub.broadcast(ev)
}

// Depth returns the latest read-model snapshot for symbol. Safe to call
// from any goroutine; the snapshot may lag the book by one refresh tick.
func (s *OrderService) Depth(symbol string) (Depth, bool) {
	m := s.depth.Load().(map[string]Depth)
	d, ok := m[symbol]
	return d, ok
}

// Symbols lists the symbols with a published depth snapshot.
func (s *OrderService) Symbols() []string {
	m := s.depth.Load().(map[string]Depth)
	out := make([]string, 0, len(m))
	for sym := range m {
		out = append(out, sym)
	}
	return out
}

// refreshDepth rebuilds the read-model. Runs on the consumer goroutine
// only; readers get the previous map until the swap.
func (s *OrderService) refreshDepth() {
	next := make(map[string]Depth)
	s.engine.ForEachBook(func(symbol string, b *orderbook.OrderBook) {
		d := Depth{Symbol: symbol, LastSeq: b.LastSeq.Load()}
		b.Bids.ForEachDescending(func(lvl *orderbook.PriceLevel) bool {
			d.Bids = append(d.Bids, Level{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount})
			return len(d.Bids) < s.depthLevels
		})
		b.Asks.ForEachAscending(func(lvl *orderbook.PriceLevel) bool {
			d.Asks = append(d.Asks, Level{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount})
			return len(d.Asks) < s.depthLevels
		})
		next[symbol] = d
	})
	s.depth.Store(next)
}
