package api

// Ack is the response to an order submission. OK false with a queue-full
// reason is the backpressure signal surfaced to clients.
type Ack struct {
	OK     bool   `json:"ok"`
	SeqID  uint64 `json:"seq_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
