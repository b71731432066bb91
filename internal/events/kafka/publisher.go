package kafka

import (
	"context"
	"encoding/json"

	"wallet/internal/events"

	"github.com/segmentio/kafka-go"
)

const topic = "transfer_completed"

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Publish(event events.TransferCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Reference),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
