package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellwatch/internal/models"
)

func TestWebhookSoldEmbed(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	image := "https://images.example.com/1.jpg"
	event := models.Event{
		Kind:     models.EventItemSold,
		Category: "mens",
		At:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Sale: &models.SaleRecord{
			Name:  "Denim jacket",
			Price: "£12.00",
			Link:  "https://www.vinted.co.uk/items/1",
			Image: &image,
		},
	}
	require.NoError(t, NewWebhook(srv.URL, nil).Notify(context.Background(), event))

	require.Len(t, got.Embeds, 1)
	e := got.Embeds[0]
	assert.Equal(t, colorSold, e.Color)
	assert.Contains(t, e.Title, "[mens] Item SOLD")
	require.Len(t, e.Fields, 4)
	assert.Equal(t, "N/A", e.Fields[2].Value)
	require.NotNil(t, e.Image)
	assert.Equal(t, image, e.Image.URL)
	assert.Equal(t, "2026-01-02T03:04:05Z", e.Timestamp)
}

func TestWebhookScanStartEmbed(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	event := models.Event{
		Kind:     models.EventScanStart,
		Category: "womens",
		Scan:     &models.ScanStart{Names: []string{"Skirt", "Coat"}},
	}
	require.NoError(t, NewWebhook(srv.URL, nil).Notify(context.Background(), event))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, colorScan, got.Embeds[0].Color)
	assert.Equal(t, "Skirt, Coat", got.Embeds[0].Description)
}

func TestWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, nil).Notify(context.Background(), models.Event{Kind: models.EventScanStart})
	assert.Error(t, err)
}

type recordingNotifier struct {
	events []models.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, e models.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMultiDeliversToAll(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("down")}
	ok := &recordingNotifier{}
	err := Multi{failing, nil, ok, Nop{}}.Notify(context.Background(), models.Event{Kind: models.EventScanStart})
	assert.Error(t, err)
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)
}

func TestBuildEmbedHistoric(t *testing.T) {
	e, ok := buildEmbed(models.Event{
		Kind:     models.EventItemSold,
		Category: "shoes",
		Source:   models.SourceHistory,
		Sale:     &models.SaleRecord{Name: "Boots", Price: "£40.00"},
	})
	require.True(t, ok)
	assert.Equal(t, "🛑 [shoes] Historic Item SOLD", e.Title)
	assert.Equal(t, colorHist, e.Color)
	assert.Nil(t, e.Image)
}
