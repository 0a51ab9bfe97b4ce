package main

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap/zaptest"

	"sellwatch/internal/config"
	"sellwatch/internal/models"
	"sellwatch/internal/notify"
	"sellwatch/internal/sale"
	"sellwatch/mocks"
)

func TestSendTestSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	saleStore := mocks.NewMockSaleStore(ctrl)
	saleStore.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e models.Event) error {
			if e.Kind != models.EventItemSold || e.Source != models.SourceTest {
				t.Fatalf("unexpected event: %+v", e)
			}
			if e.Sale.TimeToSellMs != 120000 {
				t.Fatalf("unexpected time to sell: %d", e.Sale.TimeToSellMs)
			}
			if e.Sale.ColorHex == nil || *e.Sale.ColorHex != "#000000" {
				t.Fatalf("unexpected color hex: %v", e.Sale.ColorHex)
			}
			return nil
		})

	builder := sale.NewBuilder(saleStore, notifier, zaptest.NewLogger(t), nil)
	sendTest(context.Background(), builder, models.Category{Name: "mens", CatalogURL: "https://shop.test/catalog"}, time.Now())
}

func TestBuildProxyPoolDirectFallback(t *testing.T) {
	pool, err := buildProxyPool(&config.Tracker{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Len() != 1 || pool.Pick().Host != "" {
		t.Fatalf("expected a single direct endpoint, got %d", pool.Len())
	}
}

func TestBuildProxyPoolParsesList(t *testing.T) {
	pool, err := buildProxyPool(&config.Tracker{Proxies: "a:1:u:p,b:2:u:p"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Len() != 2 {
		t.Fatalf("expected 2 proxies, got %d", pool.Len())
	}
	if _, err := buildProxyPool(&config.Tracker{Proxies: "broken"}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for malformed proxy")
	}
}

func TestBuildNotifier(t *testing.T) {
	n := buildNotifier(&config.Tracker{WebhookURL: "http://hooks.test"}, nil, zaptest.NewLogger(t))
	multi, ok := n.(notify.Multi)
	if !ok || len(multi) != 1 {
		t.Fatalf("expected one notifier, got %#v", n)
	}
}

func TestStartHistoryCronRejectsBadSchedule(t *testing.T) {
	if _, err := startHistoryCron(context.Background(), "not a schedule", func(context.Context) {}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected schedule error")
	}
}
