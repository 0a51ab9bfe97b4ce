package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"sellwatch/common"
	"sellwatch/internal/config"
	"sellwatch/internal/logging"
	"sellwatch/internal/models"
	"sellwatch/internal/store"
)

const maxSalesLimit = 1000

type server struct {
	status     store.StatusStore
	sales      store.SaleLister
	categories *config.Categories
	logger     *zap.Logger
	metrics    *apiMetrics
}

func newServer(status store.StatusStore, sales store.SaleLister, categories *config.Categories, logger *zap.Logger) *server {
	return &server{
		status:     status,
		sales:      sales,
		categories: categories,
		logger:     logger,
		metrics:    newAPIMetrics(),
	}
}

func main() {
	addr := common.GetEnv("API_ADDR", ":8080")
	redisAddr := common.GetEnv("REDIS_ADDR", "localhost:6379")
	redisPrefix := common.GetEnv("REDIS_PREFIX", "sellwatch:")
	sqlitePath := common.GetEnv("SQLITE_PATH", "sales.db")
	categoriesFile := common.GetEnv("CATEGORIES_FILE", "categories.yaml")

	logger, err := logging.New(common.GetEnv("LOG_LEVEL", "info"), false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	categories, err := config.LoadCategories(categoriesFile)
	if err != nil {
		logger.Fatal("failed to load categories", zap.Error(err))
	}

	redisClient := store.NewRedisClient(redisAddr)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()
	statusStore := store.NewRedisStatusStore(redisClient, redisPrefix+"status:", 0)

	saleStore, err := store.OpenSQLiteSaleStore(sqlitePath)
	if err != nil {
		logger.Fatal("failed to open sale store", zap.Error(err))
	}
	defer func() {
		if err := saleStore.Close(); err != nil {
			logger.Warn("failed to close sale store", zap.Error(err))
		}
	}()

	srv := newServer(statusStore, saleStore, categories, logger)

	logger.Info("api listening", zap.String("addr", addr))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/categories", s.metrics.instrument("/categories", s.handleCategories))
	mux.HandleFunc("/batches", s.metrics.instrument("/batches", s.handleBatches))
	mux.HandleFunc("/batches/", s.metrics.instrument("/batches/{category}", s.handleBatchStatus))
	mux.HandleFunc("/sales/", s.metrics.instrument("/sales/{category}", s.handleSales))
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// handleCategories lists the configured categories in priority order.
//
// Method: GET
// Path:   /categories
func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.categories.Categories, http.StatusOK)
}

// handleBatches returns the statuses of every configured category that has one.
//
// Method: GET
// Path:   /batches
func (s *server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := make([]string, 0, len(s.categories.Categories))
	for _, c := range s.categories.Categories {
		names = append(names, c.Name)
	}
	statuses, err := s.status.ListStatuses(r.Context(), names)
	if err != nil {
		s.logger.Warn("status list failed", zap.Error(err))
		http.Error(w, "failed to load statuses", http.StatusBadGateway)
		return
	}
	if statuses == nil {
		statuses = []models.BatchStatus{}
	}

	s.writeJSON(w, statuses, http.StatusOK)
}

// handleBatchStatus returns the current batch status of a category.
//
// Method: GET
// Path:   /batches/{category}
// Example:
//
//	curl "http://localhost:8080/batches/mens"
func (s *server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := pathParam(r.URL.Path, "/batches/")
	if name == "" {
		http.Error(w, "missing category", http.StatusBadRequest)
		return
	}

	status, ok, err := s.status.GetStatus(r.Context(), name)
	if err != nil {
		s.logger.Warn("status lookup failed", zap.String("category", name), zap.Error(err))
		http.Error(w, "failed to load status", http.StatusBadGateway)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, status, http.StatusOK)
}

// handleSales returns stored sale records of a category, newest first.
//
// Method: GET
// Path:   /sales/{category}?limit=N
// Example:
//
//	curl "http://localhost:8080/sales/mens?limit=20"
func (s *server) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := pathParam(r.URL.Path, "/sales/")
	category, ok := s.categories.Find(name)
	if !ok {
		http.Error(w, "unknown category", http.StatusNotFound)
		return
	}

	limit := common.ParseInt(r.URL.Query().Get("limit"), 100)
	if limit < 1 || limit > maxSalesLimit {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}

	records, err := s.sales.List(r.Context(), category.StoreCollection(), limit)
	if err != nil {
		s.logger.Warn("sales lookup failed", zap.String("category", name), zap.Error(err))
		http.Error(w, "failed to load sales", http.StatusBadGateway)
		return
	}
	if records == nil {
		records = []models.SaleRecord{}
	}

	s.writeJSON(w, records, http.StatusOK)
}

// handleMetrics exposes the API's Prometheus registry.
//
// Method: GET
// Path:   /metrics
func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.handler().ServeHTTP(w, r)
}

// writeJSON encodes payload before writing headers so an encoding failure
// can still answer 500.
func (s *server) writeJSON(w http.ResponseWriter, payload any, status int) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

func pathParam(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
