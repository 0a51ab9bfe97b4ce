package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sellwatch/common"
	"sellwatch/internal/graph"
	"sellwatch/internal/kafka"
	"sellwatch/internal/logging"
	"sellwatch/internal/metrics"
	"sellwatch/internal/retry"
	"sellwatch/internal/store"
)

// saleWriterMetrics counts consumed, written and failed sale messages.
type saleWriterMetrics struct {
	received prometheus.Counter
	written  prometheus.Counter
	failed   prometheus.Counter
}

func newSaleWriterMetrics(reg prometheus.Registerer) *saleWriterMetrics {
	f := promauto.With(reg)
	return &saleWriterMetrics{
		received: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sellwatch",
			Subsystem: "sale_writer",
			Name:      "received_total",
			Help:      "Sale messages fetched from Kafka.",
		}),
		written: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sellwatch",
			Subsystem: "sale_writer",
			Name:      "written_total",
			Help:      "Sale messages written to the graph.",
		}),
		failed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sellwatch",
			Subsystem: "sale_writer",
			Name:      "failed_total",
			Help:      "Sale messages that could not be decoded or written.",
		}),
	}
}

type consumer struct {
	reader  kafka.MessageReader
	writer  store.SaleStore
	metrics *saleWriterMetrics
	logger  *zap.Logger
	// writeRetry controls graph write retries before a message is skipped.
	writeRetry retry.Config
}

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	salesTopic := common.GetEnv("KAFKA_SALES_TOPIC", "sellwatch.sales")
	group := common.GetEnv("KAFKA_SALES_GROUP", "sellwatch-sale-writer")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9091")
	writeAttempts := common.GetEnvInt("WRITE_ATTEMPTS", 3)
	writeDelay := common.GetEnvDuration("WRITE_RETRY_DELAY", time.Second)

	neo4jURI := common.GetEnv("NEO4J_URI", "neo4j://localhost:7687")
	neo4jUser := common.GetEnv("NEO4J_USER", "neo4j")
	neo4jPassword := common.GetEnv("NEO4J_PASSWORD", "neo4j")

	logger, err := logging.New(common.GetEnv("LOG_LEVEL", "info"), false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	driver, err := graph.NewDriver(neo4jURI, neo4jUser, neo4jPassword)
	if err != nil {
		logger.Fatal("neo4j driver error", zap.Error(err))
	}
	defer func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Warn("neo4j close error", zap.Error(err))
		}
	}()

	reader := kafka.NewReader(broker, salesTopic, group)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("sales reader close error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	c := &consumer{
		reader:     reader,
		writer:     graph.NewSaleWriter(driver, logger),
		metrics:    newSaleWriterMetrics(reg),
		logger:     logger,
		writeRetry: retry.Exponential(writeAttempts, writeDelay, 30*time.Second),
	}
	if metricsAddr != "" {
		metrics.Serve(ctx, metricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)
	}

	logger.Info("sale writer consuming", zap.String("topic", salesTopic), zap.String("group", group), zap.String("broker", broker))
	c.run(ctx)
}

// run commits a message once it is written or found undecodable, so a poison
// message never blocks the partition.
func (c *consumer) run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("sales fetch error", zap.Error(err))
			if retry.Sleep(ctx, 500*time.Millisecond) != nil {
				return
			}
			continue
		}

		c.metrics.received.Inc()
		if err := c.handle(ctx, msg.Value); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.metrics.failed.Inc()
			c.logger.Error("sale write failed",
				zap.String("message_id", kafka.MessageID(msg)),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		} else {
			c.metrics.written.Inc()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("sales commit error", zap.Error(err))
		}
	}
}

func (c *consumer) handle(ctx context.Context, payload []byte) error {
	var msg kafka.SaleMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode sale message: %w", err)
	}
	return retry.Do(ctx, c.writeRetry, func(ctx context.Context, _ int) error {
		return c.writer.Append(ctx, msg.Collection, msg.Record)
	})
}
