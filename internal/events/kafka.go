package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"botfleet/internal/core"
)

const kafkaRecordTimeout = 10 * time.Second

// Writer is the subset of kafka.Writer the recorder uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON to a topic, keyed by bot id so per-bot
// ordering survives partitioning. Best effort, like the Redis recorder.
type Kafka struct {
	writer Writer
}

// NewKafka creates a recorder writing to topic on the given brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}}
}

// NewKafkaWithWriter injects a writer, for tests.
func NewKafkaWithWriter(w Writer) *Kafka {
	return &Kafka{writer: w}
}

func (k *Kafka) Record(e core.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("events: kafka marshal: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkaRecordTimeout)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.BotID),
		Value: payload,
	})
	if err != nil {
		log.Printf("events: kafka write: %v", err)
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
