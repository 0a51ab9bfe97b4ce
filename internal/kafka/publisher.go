package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"sellwatch/internal/models"
)

// SaleMessage is the payload written to the sales topic.
type SaleMessage struct {
	Collection string            `json:"collection"`
	Record     models.SaleRecord `json:"record"`
}

// Publisher writes sale records and tracker events to Kafka.
// Either writer may be nil, in which case that stream is skipped.
type Publisher struct {
	sales  MessageWriter
	events MessageWriter
}

// NewPublisher creates writers for the sales and events topics. An empty
// topic disables that stream.
func NewPublisher(broker, salesTopic, eventsTopic string) *Publisher {
	p := &Publisher{}
	if salesTopic != "" {
		p.sales = NewWriter(broker, salesTopic)
	}
	if eventsTopic != "" {
		p.events = NewWriter(broker, eventsTopic)
	}
	return p
}

// NewPublisherWithWriters builds a publisher using custom writers (tests).
func NewPublisherWithWriters(sales, events MessageWriter) *Publisher {
	return &Publisher{sales: sales, events: events}
}

// Close shuts down the underlying writers.
func (p *Publisher) Close() error {
	var errs []error
	if p.sales != nil {
		errs = append(errs, p.sales.Close())
	}
	if p.events != nil {
		errs = append(errs, p.events.Close())
	}
	return errors.Join(errs...)
}

// Append publishes a sale record keyed by listing id.
func (p *Publisher) Append(ctx context.Context, collection string, record models.SaleRecord) error {
	if p.sales == nil {
		return nil
	}
	payload, err := json.Marshal(SaleMessage{Collection: collection, Record: record})
	if err != nil {
		return err
	}
	return p.sales.WriteMessages(ctx, kafka.Message{
		Key:     []byte(record.ListingID),
		Value:   payload,
		Time:    time.Now().UTC(),
		Headers: messageHeaders(),
	})
}

// Notify publishes a tracker event keyed by category.
func (p *Publisher) Notify(ctx context.Context, event models.Event) error {
	if p.events == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.events.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.Category),
		Value:   payload,
		Time:    time.Now().UTC(),
		Headers: messageHeaders(),
	})
}

// MessageIDHeader carries a random id per published message.
const MessageIDHeader = "message-id"

func messageHeaders() []kafka.Header {
	return []kafka.Header{{Key: MessageIDHeader, Value: []byte(uuid.NewString())}}
}

// MessageID returns the message-id header of msg, if any.
func MessageID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == MessageIDHeader {
			return string(h.Value)
		}
	}
	return ""
}
