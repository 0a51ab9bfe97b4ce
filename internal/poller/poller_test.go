package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sellwatch/internal/extract"
	"sellwatch/internal/extract/extracttest"
	"sellwatch/internal/models"
	"sellwatch/internal/proxy"
	"sellwatch/internal/sale"
	"sellwatch/mocks"
)

var category = models.Category{Name: "mens", Collection: "mens_sales"}

var (
	soldPage      = &extracttest.Page{PageTitle: "item", Detail: &extract.DetailFields{IsSold: true}}
	availablePage = &extracttest.Page{PageTitle: "item", Detail: &extract.DetailFields{}}
)

type recordingHandler struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{calls: map[string]int{}}
}

func (h *recordingHandler) OnSold(_ context.Context, cat models.Category, item *models.TrackedItem, _ extract.DetailFields) models.SaleRecord {
	h.mu.Lock()
	h.calls[item.ID]++
	h.mu.Unlock()
	return sale.NewRecord(cat.Name, item.Snapshot())
}

func (h *recordingHandler) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		n += c
	}
	return n
}

func newItems(n int, startedAt time.Time) []*models.TrackedItem {
	items := make([]*models.TrackedItem, n)
	for i := range items {
		items[i] = models.NewTrackedItem(fmt.Sprint(i), fmt.Sprintf("item %d", i), "", "£10", fmt.Sprintf("https://shop.test/items/%d", i), startedAt)
	}
	return items
}

func newPoller(t *testing.T, site *extracttest.Site, h SoldHandler, cfg Config) *Poller {
	t.Helper()
	pool, err := proxy.NewPool([]proxy.Endpoint{{Host: "p1", Port: "1"}, {Host: "p2", Port: "1"}, {Host: "p3", Port: "1"}})
	require.NoError(t, err)
	return New(site, extracttest.Capability{}, pool, h, cfg, zaptest.NewLogger(t), nil)
}

func TestRunPassRecordsSoldItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	t0 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	items := []*models.TrackedItem{
		models.NewTrackedItem("a", "A", "", "£20", "https://shop.test/items/a", t0),
		models.NewTrackedItem("b", "B", "", "£30", "https://shop.test/items/b", t0),
		models.NewTrackedItem("c", "C", "", "£40", "https://shop.test/items/c", t0),
	}
	batch := models.NewBatch(category, items, t0, 10*time.Minute)

	site := extracttest.NewSite()
	site.Serve(items[0].Link, soldPage)
	site.Serve(items[1].Link, availablePage)
	site.Serve(items[2].Link, availablePage)

	saleStore := mocks.NewMockSaleStore(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	saleStore.EXPECT().Append(gomock.Any(), "mens_sales", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, r models.SaleRecord) error {
			if r.ListingID != "a" || r.TimeToSellMs != 120000 || r.Price != "£20" {
				t.Errorf("unexpected record: %+v", r)
			}
			return nil
		}).Times(1)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	builder := sale.NewBuilder(saleStore, notifier, zaptest.NewLogger(t), nil)

	p := newPoller(t, site, builder, Config{Concurrency: 2, CheckAttempts: 2, PerItemTimeout: time.Second})
	p.Now = func() time.Time { return t0.Add(120 * time.Second) }

	result := p.RunPass(context.Background(), batch)
	assert.Equal(t, PassResult{Queued: 3, Checked: 3, Sold: 1}, result)
	assert.True(t, items[0].IsSold())
	assert.False(t, items[1].IsSold())
	assert.False(t, items[2].IsSold())
	snap := items[0].Snapshot()
	require.NotNil(t, snap.SoldAt)
	assert.False(t, snap.SoldAt.Before(snap.StartedAt))
	assert.Equal(t, 0, site.OpenSessions())
}

func TestRunPassNeverDoubleFires(t *testing.T) {
	items := newItems(60, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	for _, item := range items {
		site.Serve(item.Link, soldPage)
	}
	h := newRecordingHandler()
	p := newPoller(t, site, h, Config{Concurrency: 8, CheckAttempts: 2, PerItemTimeout: time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.RunPass(context.Background(), batch)
		}()
	}
	wg.Wait()

	assert.Equal(t, len(items), h.total())
	for _, item := range items {
		assert.Equal(t, 1, h.calls[item.ID], "item %s", item.ID)
		assert.True(t, item.IsSold())
	}
	assert.True(t, batch.AllSold())
}

func TestRunPassQueueYieldsEachItemOnce(t *testing.T) {
	items := newItems(40, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	for _, item := range items {
		site.Serve(item.Link, availablePage)
	}
	p := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 6, CheckAttempts: 2, PerItemTimeout: time.Second})

	result := p.RunPass(context.Background(), batch)
	assert.Equal(t, 40, result.Checked)
	for _, item := range items {
		assert.Equal(t, 1, site.Opens(item.Link))
	}
}

func TestRunPassExhaustedRetriesLeaveItemAvailable(t *testing.T) {
	items := newItems(2, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	site.Handle(items[0].Link, func(context.Context, int, proxy.Endpoint) (*extracttest.Page, error) {
		return nil, errors.New("net::ERR_TIMED_OUT")
	})
	site.Serve(items[1].Link, availablePage)

	h := newRecordingHandler()
	p := newPoller(t, site, h, Config{Concurrency: 1, CheckAttempts: 2, CheckRetryDelay: time.Millisecond, PerItemTimeout: time.Second})

	result := p.RunPass(context.Background(), batch)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, site.Opens(items[0].Link))
	assert.False(t, items[0].IsSold())
	assert.Equal(t, 0, h.total())
}

func TestRunPassChallengeRotatesSession(t *testing.T) {
	items := newItems(1, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	site.Handle(items[0].Link, func(_ context.Context, n int, _ proxy.Endpoint) (*extracttest.Page, error) {
		if n == 1 {
			return &extracttest.Page{PageTitle: "Just a moment...", Detail: &extract.DetailFields{IsSold: true}}, nil
		}
		return soldPage, nil
	})
	h := newRecordingHandler()
	p := newPoller(t, site, h, Config{Concurrency: 1, CheckAttempts: 2, PerItemTimeout: time.Second})

	p.RunPass(context.Background(), batch)
	assert.Len(t, site.Sessions(), 2)
	assert.Equal(t, 0, site.OpenSessions())
	assert.True(t, items[0].IsSold())
	assert.Equal(t, 1, h.total())
}

func TestRunPassChallengeNeverMarksSold(t *testing.T) {
	items := newItems(1, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	site.Serve(items[0].Link, &extracttest.Page{PageText: "are you a human", Detail: &extract.DetailFields{IsSold: true}})
	h := newRecordingHandler()
	p := newPoller(t, site, h, Config{Concurrency: 1, CheckAttempts: 3, PerItemTimeout: time.Second})

	result := p.RunPass(context.Background(), batch)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, items[0].IsSold())
	assert.Equal(t, 0, h.total())
}

func TestRunPassRecoversPanics(t *testing.T) {
	items := newItems(3, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	site.Handle(items[0].Link, func(context.Context, int, proxy.Endpoint) (*extracttest.Page, error) {
		panic("renderer crashed")
	})
	site.Serve(items[1].Link, soldPage)
	site.Serve(items[2].Link, soldPage)
	h := newRecordingHandler()
	p := newPoller(t, site, h, Config{Concurrency: 1, CheckAttempts: 2, PerItemTimeout: time.Second})

	require.NotPanics(t, func() { p.RunPass(context.Background(), batch) })
	assert.False(t, items[0].IsSold())
	assert.True(t, items[1].IsSold())
	assert.True(t, items[2].IsSold())
}

func TestRunPassBoundsConcurrencyAndOpensSessionsLazily(t *testing.T) {
	items := newItems(12, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	var inFlight, peak atomic.Int64
	for _, item := range items {
		site.Handle(item.Link, func(context.Context, int, proxy.Endpoint) (*extracttest.Page, error) {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return availablePage, nil
		})
	}
	p := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 3, CheckAttempts: 2, PerItemTimeout: time.Second})
	p.RunPass(context.Background(), batch)
	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.LessOrEqual(t, len(site.Sessions()), 3)

	small := models.NewBatch(category, newItems(1, time.Now()), time.Now(), time.Minute)
	site.Serve(small.Items[0].Link, availablePage)
	before := len(site.Sessions())
	lazy := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 8, CheckAttempts: 2, PerItemTimeout: time.Second})
	lazy.RunPass(context.Background(), small)
	assert.Equal(t, before+1, len(site.Sessions()), "idle workers must not open sessions")
}

func TestPollBatchStopsWhenAllSold(t *testing.T) {
	items := newItems(2, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Minute)
	site := extracttest.NewSite()
	for _, item := range items {
		site.Handle(item.Link, func(_ context.Context, n int, _ proxy.Endpoint) (*extracttest.Page, error) {
			if n < 2 {
				return availablePage, nil
			}
			return soldPage, nil
		})
	}
	var passes []int
	p := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 2, CheckAttempts: 2, CheckInterval: 5 * time.Millisecond, PerItemTimeout: time.Second})
	p.AfterPass = func(_ *models.Batch, pass int, _ PassResult) { passes = append(passes, pass) }

	got := p.PollBatch(context.Background(), batch)
	assert.Equal(t, 2, got)
	assert.Equal(t, []int{1, 2}, passes)
	assert.True(t, batch.AllSold())
}

func TestPollBatchDeadlineMidPass(t *testing.T) {
	items := newItems(2, time.Now())
	batch := models.NewBatch(category, items, time.Now(), 60*time.Millisecond)
	site := extracttest.NewSite()
	for _, item := range items {
		site.Handle(item.Link, func(context.Context, int, proxy.Endpoint) (*extracttest.Page, error) {
			time.Sleep(50 * time.Millisecond)
			return availablePage, nil
		})
	}
	p := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 1, CheckAttempts: 2, CheckInterval: 5 * time.Millisecond, PerItemTimeout: time.Second})

	passes := p.PollBatch(context.Background(), batch)
	assert.Equal(t, 1, passes)
	for _, item := range items {
		assert.Equal(t, 1, site.Opens(item.Link), "in-flight pass must complete")
	}
	assert.True(t, batch.Expired(time.Now()))
}

func TestPollBatchDoesNotStartAfterDeadline(t *testing.T) {
	t0 := time.Now()
	batch := models.NewBatch(category, newItems(1, t0), t0, time.Minute)
	site := extracttest.NewSite()
	p := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 1})
	p.Now = func() time.Time { return t0.Add(time.Minute) }

	assert.Equal(t, 0, p.PollBatch(context.Background(), batch))
	assert.Empty(t, site.Sessions())
}

func TestPollBatchHonoursCancellation(t *testing.T) {
	items := newItems(1, time.Now())
	batch := models.NewBatch(category, items, time.Now(), time.Hour)
	site := extracttest.NewSite()
	site.Serve(items[0].Link, availablePage)
	p := newPoller(t, site, newRecordingHandler(), Config{Concurrency: 1, CheckInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	p.AfterPass = func(*models.Batch, int, PassResult) { cancel() }
	done := make(chan int, 1)
	go func() { done <- p.PollBatch(ctx, batch) }()
	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("PollBatch did not stop after cancellation")
	}
}

func TestQueuePopsEachItemOnce(t *testing.T) {
	q := newQueue(newItems(50, time.Now()))

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, ok := q.pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[item.Link]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	for link, n := range seen {
		assert.Equal(t, 1, n, link)
	}
	assert.Equal(t, 0, q.remaining())
}

func TestRunPassCancelledSkipsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	site := extracttest.NewSite()
	batch := &models.Batch{Category: category, Items: newItems(2, time.Now())}
	p := newPoller(t, site, nil, Config{Concurrency: 2})
	result := p.RunPass(ctx, batch)
	assert.Equal(t, PassResult{Queued: 2, Skipped: 2}, result)
	assert.Empty(t, site.Sessions())
}
