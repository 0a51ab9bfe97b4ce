package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap/zaptest"

	"sellwatch/internal/config"
	"sellwatch/internal/models"
	"sellwatch/mocks"
)

const categoriesYAML = `
threshold: 10
categories:
  - name: mens
    catalog_url: https://shop.test/catalog?catalog[]=5
  - name: womens
    catalog_url: https://shop.test/catalog?catalog[]=1904
    collection: women
`

func newTestServer(t *testing.T) (*server, *mocks.MockStatusStore, *mocks.MockSaleLister) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	categories, err := config.ParseCategories([]byte(categoriesYAML))
	if err != nil {
		t.Fatalf("failed to parse categories: %v", err)
	}

	statusStore := mocks.NewMockStatusStore(ctrl)
	saleLister := mocks.NewMockSaleLister(ctrl)
	return newServer(statusStore, saleLister, categories, zaptest.NewLogger(t)), statusStore, saleLister
}

func TestHandleBatchStatus(t *testing.T) {
	srv, statusStore, _ := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), "mens").Return(models.BatchStatus{
		Category: "mens",
		BatchID:  "mens-20260101120000.000",
		State:    models.BatchStateTracking,
		Size:     30,
		Sold:     4,
	}, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/batches/mens", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var payload models.BatchStatus
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.State != models.BatchStateTracking || payload.Sold != 4 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleBatches(t *testing.T) {
	srv, statusStore, _ := newTestServer(t)
	statusStore.EXPECT().ListStatuses(gomock.Any(), []string{"mens", "womens"}).Return([]models.BatchStatus{
		{Category: "womens", State: models.BatchStateCollecting},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var payload []models.BatchStatus
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload) != 1 || payload[0].Category != "womens" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleBatchesStoreError(t *testing.T) {
	srv, statusStore, _ := newTestServer(t)
	statusStore.EXPECT().ListStatuses(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	rec := httptest.NewRecorder()
	srv.handleBatches(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestHandleBatchStatusNotFound(t *testing.T) {
	srv, statusStore, _ := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), "kids").Return(models.BatchStatus{}, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/batches/kids", nil)
	rec := httptest.NewRecorder()
	srv.handleBatchStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleBatchStatusStoreError(t *testing.T) {
	srv, statusStore, _ := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), "mens").Return(models.BatchStatus{}, false, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodGet, "/batches/mens/", nil)
	rec := httptest.NewRecorder()
	srv.handleBatchStatus(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestHandleBatchStatusMissingCategory(t *testing.T) {
	srv, statusStore, _ := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodGet, "/batches/", nil)
	rec := httptest.NewRecorder()
	srv.handleBatchStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleSales(t *testing.T) {
	srv, _, saleLister := newTestServer(t)
	soldAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	saleLister.EXPECT().List(gomock.Any(), "women", 20).Return([]models.SaleRecord{
		{ListingID: "7", Category: "womens", Name: "Skirt", SoldAt: soldAt, TimeToSellMs: 60000},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sales/womens?limit=20", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var payload []models.SaleRecord
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload) != 1 || payload[0].ListingID != "7" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleSalesEmptyIsArray(t *testing.T) {
	srv, _, saleLister := newTestServer(t)
	saleLister.EXPECT().List(gomock.Any(), "mens_sales", 100).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/sales/mens", nil)
	rec := httptest.NewRecorder()
	srv.handleSales(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestHandleSalesUnknownCategory(t *testing.T) {
	srv, _, saleLister := newTestServer(t)
	saleLister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodGet, "/sales/kids", nil)
	rec := httptest.NewRecorder()
	srv.handleSales(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleSalesInvalidLimit(t *testing.T) {
	srv, _, saleLister := newTestServer(t)
	saleLister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodGet, "/sales/mens?limit=5000", nil)
	rec := httptest.NewRecorder()
	srv.handleSales(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleSalesMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/sales/mens", nil)
	rec := httptest.NewRecorder()
	srv.handleSales(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestHandleCategories(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	rec := httptest.NewRecorder()
	srv.handleCategories(rec, req)

	var payload []models.Category
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload) != 2 || payload[0].Name != "mens" {
		t.Fatalf("unexpected categories: %+v", payload)
	}
}

func TestHandleMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.routes()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sales/kids", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"sellwatch_api_up 1",
		`sellwatch_api_requests_total{code="200",route="/categories"} 1`,
		`sellwatch_api_requests_total{code="404",route="/sales/{category}"} 1`,
		`sellwatch_api_request_duration_seconds_count{route="/categories"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestHandleMetricsMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleMetrics(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.writeJSON(rec, map[string]any{"bad": make(chan int)}, http.StatusOK)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "{") {
		t.Fatalf("expected no partial JSON, got %q", rec.Body.String())
	}
}
