package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaIngress consumes a JSON order feed from Kafka and moves it onto the
// ring. Malformed messages are rejected at this boundary and never reach
// the engine.
type KafkaIngress struct {
	reader *kafka.Reader
	gw     *Gateway
	log    *zap.Logger
}

func NewKafkaIngress(
	brokers []string,
	topic string,
	groupID string,
	gw *Gateway,
	log *zap.Logger,
) *KafkaIngress {
	return &KafkaIngress{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10 << 20,
		}),
		gw:  gw,
		log: log,
	}
}

// Run blocks until ctx is cancelled. When the ring is full it spins on a
// short sleep rather than dropping: the Kafka offset is the upstream
// buffer, so holding back consumption is the correct backpressure.
func (k *KafkaIngress) Run(ctx context.Context) error {
	k.log.Info("kafka ingress started")

	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var req Request
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			k.log.Warn("bad order message", zap.Error(err))
			continue
		}

		o, err := k.gw.Build(req)
		if err != nil {
			k.log.Warn("rejected order", zap.Error(err))
			continue
		}

		for !k.gw.Enqueue(o) {
			select {
			case <-ctx.Done():
				k.gw.Release(o)
				return nil
			case <-time.After(50 * time.Microsecond):
			}
		}
	}
}

func (k *KafkaIngress) Close() error {
	return k.reader.Close()
}
