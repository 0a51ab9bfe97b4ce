package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	kgo "github.com/segmentio/kafka-go"

	skafka "sellwatch/internal/kafka"
	"sellwatch/internal/models"
	"sellwatch/mocks"
)

func TestPublisherAppend(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	pub := skafka.NewPublisherWithWriters(writer, nil)

	started := time.Unix(1000, 0).UTC()
	record := models.SaleRecord{
		ListingID:    "4242",
		Category:     "mens",
		Name:         "Denim jacket",
		Price:        "£12.00",
		Link:         "https://www.vinted.co.uk/items/4242-denim-jacket",
		StartedAt:    started,
		SoldAt:       started.Add(2 * time.Minute),
		TimeToSellMs: 120000,
	}

	writer.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kgo.Message) error {
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			if string(msgs[0].Key) != record.ListingID {
				t.Fatalf("unexpected message key: %s", string(msgs[0].Key))
			}
			if _, err := uuid.Parse(skafka.MessageID(msgs[0])); err != nil {
				t.Fatalf("expected uuid message id: %v", err)
			}
			var got skafka.SaleMessage
			if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
				t.Fatalf("failed to decode message: %v", err)
			}
			if got.Collection != "mens_sales" || got.Record.ListingID != record.ListingID || got.Record.TimeToSellMs != 120000 {
				t.Fatalf("unexpected payload: %+v", got)
			}
			return nil
		})

	if err := pub.Append(context.Background(), "mens_sales", record); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	// Events stream is disabled; Notify is a no-op.
	if err := pub.Notify(context.Background(), models.Event{Kind: models.EventScanStart}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
}

func TestPublisherNotifyError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	pub := skafka.NewPublisherWithWriters(nil, writer)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("write failed"))
	if err := pub.Notify(context.Background(), models.Event{Kind: models.EventItemSold, Category: "mens"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestMessageIDMissing(t *testing.T) {
	if id := skafka.MessageID(kgo.Message{}); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}

func TestPublisherClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	sales := mocks.NewMockMessageWriter(ctrl)
	events := mocks.NewMockMessageWriter(ctrl)
	sales.EXPECT().Close().Return(nil)
	events.EXPECT().Close().Return(errors.New("close failed"))

	pub := skafka.NewPublisherWithWriters(sales, events)
	if err := pub.Close(); err == nil {
		t.Fatal("expected close error")
	}
}
