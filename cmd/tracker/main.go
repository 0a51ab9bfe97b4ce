package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sellwatch/internal/collector"
	"sellwatch/internal/config"
	"sellwatch/internal/extract/html"
	"sellwatch/internal/history"
	"sellwatch/internal/kafka"
	"sellwatch/internal/logging"
	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
	"sellwatch/internal/notify"
	"sellwatch/internal/orchestrator"
	"sellwatch/internal/poller"
	"sellwatch/internal/proxy"
	"sellwatch/internal/sale"
	"sellwatch/internal/store"
	"sellwatch/internal/tracker"
)

func main() {
	cfg, err := config.LoadTracker(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg == nil {
		return
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("tracker stopped", zap.Error(err))
	}
	logger.Info("tracker shut down")
}

func run(ctx context.Context, cfg *config.Tracker, logger *zap.Logger) error {
	cats, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return err
	}
	threshold := cats.Threshold
	if cfg.Threshold > 0 {
		threshold = cfg.Threshold
	}
	categories := cats.Categories
	if cfg.Category != "" {
		cat, ok := cats.Find(cfg.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", cfg.Category)
		}
		categories = []models.Category{cat}
	}

	pool, err := buildProxyPool(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, m.Handler(), logger)
	}

	sqliteStore, err := store.OpenSQLiteSaleStore(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqliteStore.Close(); err != nil {
			logger.Warn("failed to close sale store", zap.Error(err))
		}
	}()

	var publisher *kafka.Publisher
	if cfg.KafkaBroker != "" {
		publisher = kafka.NewPublisher(cfg.KafkaBroker, cfg.KafkaSalesTopic, cfg.KafkaEventsTopic)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("failed to close kafka publisher", zap.Error(err))
			}
		}()
	}

	notifier := buildNotifier(cfg, publisher, logger)
	saleStore := store.TeeSaleStore{sqliteStore}
	if publisher != nil {
		saleStore = append(saleStore, publisher)
	}
	builder := sale.NewBuilder(saleStore, notifier, logger, m)

	if cfg.SendTest {
		sendTest(ctx, builder, categories[0], time.Now())
		return nil
	}

	redisClient := store.NewRedisClient(cfg.RedisAddr)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()
	seen := store.NewRedisSeenHistory(redisClient, cfg.RedisPrefix+"seen:")
	status := store.NewRedisStatusStore(redisClient, cfg.RedisPrefix+"status:", cfg.StatusTTL)
	builder.Claims = seen

	browser := html.NewBrowser().WithRateLimit(cfg.RateLimit, cfg.RateBurst)
	capability := html.NewCapability(cats.Selectors)

	coll := collector.New(browser, capability, pool, logger, m)
	coll.ProxyRange = cfg.CollectProxyRange
	coll.NavTimeout = cfg.NavTimeout

	pl := poller.New(browser, capability, pool, builder, poller.Config{
		Concurrency:     cfg.Concurrency,
		CheckInterval:   cfg.CheckInterval,
		PerItemTimeout:  cfg.CheckTimeout,
		CheckAttempts:   cfg.CheckAttempts,
		CheckRetryDelay: cfg.CheckRetryDelay,
	}, logger, m)

	tr := tracker.New(coll, pl, seen, status, notifier, tracker.Config{
		BatchSize:       cfg.BatchSize,
		MaxPages:        cfg.MaxPages,
		CollectAttempts: cfg.CollectAttempts,
		BatchDuration:   cfg.BatchDuration,
		CollectBackoff:  cfg.CollectBackoff,
	}, logger, m)
	pl.AfterPass = tr.ObservePass

	scanner := history.NewScanner(browser, capability, pool, seen, builder, logger, m)
	scanner.Depth = cfg.HistoryDepth
	scanner.NavTimeout = cfg.CheckTimeout
	scanner.MinAge = cfg.BatchDuration
	rescan := func(ctx context.Context) { scanner.TryScanAll(ctx, categories) }

	if cfg.HistorySchedule != "" {
		c, err := startHistoryCron(ctx, cfg.HistorySchedule, rescan, logger)
		if err != nil {
			return err
		}
		defer func() { <-c.Stop().Done() }()
	}

	if cfg.Category != "" {
		logger.Info("tracking single category", zap.String("category", cfg.Category))
		tr.Run(ctx, categories[0], 0)
		return ctx.Err()
	}

	probe := &orchestrator.CatalogProbe{
		Browser:    browser,
		Capability: capability,
		Proxies:    pool,
		Seen:       seen,
		ProxyRange: cfg.CollectProxyRange,
		NavTimeout: cfg.NavTimeout,
	}
	orch := orchestrator.New(categories, threshold, probe, logger, m)
	sched := orchestrator.NewScheduler(orch, func(ctx context.Context, cat models.Category) {
		tr.Run(ctx, cat, cfg.LaunchInterval)
	}, rescan, logger)
	sched.LaunchInterval = cfg.LaunchInterval
	sched.RetryInterval = cfg.RetryInterval

	logger.Info("orchestrating categories",
		zap.Int("categories", len(categories)),
		zap.Int("threshold", threshold),
		zap.Int("proxies", pool.Len()),
	)
	return sched.Run(ctx)
}

// buildProxyPool falls back to a direct connection when no proxies are configured.
func buildProxyPool(cfg *config.Tracker, logger *zap.Logger) (*proxy.Pool, error) {
	list, err := cfg.ProxyList()
	if err != nil {
		return nil, err
	}
	pool, err := proxy.ParsePool(list)
	if errors.Is(err, proxy.ErrEmptyPool) {
		logger.Warn("no proxies configured, connecting directly")
		return proxy.NewPool([]proxy.Endpoint{{}})
	}
	return pool, err
}

func buildNotifier(cfg *config.Tracker, publisher *kafka.Publisher, logger *zap.Logger) notify.Notifier {
	var multi notify.Multi
	if cfg.WebhookURL != "" {
		multi = append(multi, notify.NewWebhook(cfg.WebhookURL, nil))
	} else {
		logger.Warn("no webhook configured, notifications go to kafka only")
	}
	if publisher != nil {
		multi = append(multi, publisher)
	}
	return multi
}

func startHistoryCron(ctx context.Context, schedule string, rescan func(context.Context), logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))))
	if _, err := c.AddFunc(schedule, func() { rescan(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid history schedule %q: %w", schedule, err)
	}
	c.Start()
	logger.Info("history rescan scheduled", zap.String("schedule", schedule))
	return c, nil
}

func sendTest(ctx context.Context, builder *sale.Builder, category models.Category, now time.Time) {
	builder.Emit(ctx, category, testRecord(category, now), models.SourceTest)
}

func testRecord(category models.Category, now time.Time) models.SaleRecord {
	color := "Black"
	return sale.NewRecord(category.Name, models.ItemSnapshot{
		ID:        "test",
		Name:      "Test item",
		Price:     "£10.00",
		Link:      category.CatalogURL,
		ColorName: &color,
		StartedAt: now.Add(-2 * time.Minute),
		SoldAt:    &now,
	})
}
