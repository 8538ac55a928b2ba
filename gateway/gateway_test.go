package gateway

import (
	"testing"

	"github.com/shopspring/decimal"

	"flashmatch/domain/orderbook"
	"flashmatch/infra/memory"
	"flashmatch/infra/queue"
	"flashmatch/infra/sequence"
)

func newTestGateway(t *testing.T, ringCap int) *Gateway {
	t.Helper()
	ring, err := queue.New[*orderbook.Order](ringCap)
	if err != nil {
		t.Fatal(err)
	}
	pool := memory.NewPool(func() *orderbook.Order { return &orderbook.Order{} })
	return New(ring, pool, sequence.New(0))
}

func validRequest() Request {
	return Request{
		ID:       42,
		Symbol:   "AAPL",
		Side:     "BUY",
		Price:    decimal.RequireFromString("10.25"),
		Quantity: 100,
		Type:     "LIMIT",
	}
}

func TestBuildStampsSequence(t *testing.T) {
	gw := newTestGateway(t, 8)

	o1, err := gw.Build(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	o2, err := gw.Build(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if o1.SeqID != 1 || o2.SeqID != 2 {
		t.Errorf("expected sequence 1,2 got %d,%d", o1.SeqID, o2.SeqID)
	}
	if o1.Side != orderbook.Bid || o1.Type != orderbook.Limit {
		t.Errorf("side/type not mapped: %+v", o1)
	}
	if !o1.Price.Equal(decimal.RequireFromString("10.25")) || o1.Qty != 100 {
		t.Errorf("price/qty not carried over: %+v", o1)
	}
}

func TestBuildRejectsBadRequests(t *testing.T) {
	gw := newTestGateway(t, 8)

	cases := []struct {
		name string
		mut  func(*Request)
	}{
		{"bad side", func(r *Request) { r.Side = "HOLD" }},
		{"bad type", func(r *Request) { r.Type = "STOP" }},
		{"empty symbol", func(r *Request) { r.Symbol = "" }},
		{"negative price", func(r *Request) { r.Price = decimal.RequireFromString("-1") }},
	}
	for _, tc := range cases {
		req := validRequest()
		tc.mut(&req)
		if _, err := gw.Build(req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestAcceptBackpressure(t *testing.T) {
	gw := newTestGateway(t, 2)

	if _, err := gw.Accept(validRequest()); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Accept(validRequest()); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Accept(validRequest()); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	// Draining one slot clears the backpressure.
	if _, ok := gw.ring.Pop(); !ok {
		t.Fatal("expected a queued order")
	}
	if _, err := gw.Accept(validRequest()); err != nil {
		t.Fatalf("expected accept after drain, got %v", err)
	}
}

func TestParseSideAliases(t *testing.T) {
	for _, s := range []string{"BUY", "BID"} {
		side, err := ParseSide(s)
		if err != nil || side != orderbook.Bid {
			t.Errorf("ParseSide(%q) = %v, %v", s, side, err)
		}
	}
	for _, s := range []string{"SELL", "ASK"} {
		side, err := ParseSide(s)
		if err != nil || side != orderbook.Ask {
			t.Errorf("ParseSide(%q) = %v, %v", s, side, err)
		}
	}
	if _, err := ParseSide("buy"); err == nil {
		t.Error("sides are case sensitive")
	}
}
