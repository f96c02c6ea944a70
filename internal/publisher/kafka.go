package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"GarchSentinel/internal/metrics"
	"GarchSentinel/internal/model"
)

const DefaultTopic = "volatility-signals"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes predictions as JSON, keyed by asset so one asset stays
// on one partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a synchronous writer for brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Gzip,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w, topic: topic}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, p *model.Prediction) error {
	v, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.Asset),
		Value: v,
		Time:  p.Timestamp,
		Headers: []kafka.Header{
			{Key: "signal", Value: []byte(p.Signal)},
			{Key: "prediction_id", Value: []byte(p.ID)},
		},
	})
	metrics.PublishTotal.WithLabelValues(k.topic, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.writer != nil {
		return k.writer.Close()
	}
	return nil
}
