package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sellwatch/internal/models"
)

// mockTransport answers batch status requests from a fixed map.
type mockTransport struct {
	mu       sync.Mutex
	statuses map[string]models.BatchStatus
	paths    []string
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.paths = append(m.paths, req.URL.Path)
	m.mu.Unlock()

	name := strings.TrimPrefix(req.URL.Path, "/batches/")
	status, ok := m.statuses[name]
	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody, Header: make(http.Header)}, nil
	}
	body, err := json.Marshal(status)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func writeCategories(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.yaml")
	data := "categories:\n" +
		"  - name: womens\n    catalog_url: https://shop.test/catalog?c=1\n" +
		"  - name: mens\n    catalog_url: https://shop.test/catalog?c=2\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// rowFor returns the table row whose first cell is category.
func rowFor(table, category string) string {
	for _, line := range strings.Split(table, "\n") {
		if strings.HasPrefix(line, "│ "+category+" ") {
			return line
		}
	}
	return ""
}

func TestRun(t *testing.T) {
	deadline := time.Date(2026, 6, 1, 12, 10, 0, 0, time.UTC)
	transport := &mockTransport{statuses: map[string]models.BatchStatus{
		"mens": {Category: "mens", State: models.BatchStateTracking, Size: 30, Sold: 3, Passes: 4, Deadline: deadline},
	}}
	client := &http.Client{Transport: transport}

	var out bytes.Buffer
	opts := options{Categories: writeCategories(t), API: "http://api.test"}
	if err := run(context.Background(), opts, client, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	mens := rowFor(out.String(), "mens")
	if mens == "" || !strings.Contains(mens, "3/30") || !strings.Contains(mens, "2026-06-01T12:10:00Z") {
		t.Fatalf("unexpected mens row: %q", out.String())
	}
	womens := rowFor(out.String(), "womens")
	if womens == "" || !strings.Contains(womens, "no batch") {
		t.Fatalf("unexpected womens row: %q", out.String())
	}
	if strings.Index(out.String(), mens) > strings.Index(out.String(), womens) {
		t.Fatalf("expected rows sorted by category: %q", out.String())
	}
	if len(transport.paths) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(transport.paths))
	}
}

func TestRun_badCategoriesPath(t *testing.T) {
	opts := options{Categories: filepath.Join(t.TempDir(), "missing.yaml"), API: "http://api.test"}
	if err := run(context.Background(), opts, nil, io.Discard); err == nil {
		t.Fatal("expected error for missing categories file")
	}
}

func TestRun_invalidAPIBase(t *testing.T) {
	opts := options{Categories: writeCategories(t), API: "not a url"}
	if err := run(context.Background(), opts, nil, io.Discard); err == nil {
		t.Fatal("expected error for invalid api base")
	}
}

func TestWriteReportError(t *testing.T) {
	var out bytes.Buffer
	writeReport(&out, []report{{Category: "kids", Err: io.ErrUnexpectedEOF}})
	if !strings.Contains(rowFor(out.String(), "kids"), "error: unexpected EOF") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
