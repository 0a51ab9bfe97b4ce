package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Tracker is the tracker binary's configuration.
type Tracker struct {
	CategoriesFile string `long:"categories" env:"CATEGORIES_FILE" default:"categories.yaml" description:"YAML file listing categories in priority order"`
	Category       string `long:"category" env:"CATEGORY" description:"Track only this category forever instead of orchestrating"`
	Threshold      int    `long:"threshold" env:"FRESHNESS_THRESHOLD" description:"Override the freshness threshold from the categories file"`

	Proxies           string  `long:"proxies" env:"PROXIES" description:"Comma separated host:port:user:pass proxies"`
	ProxiesFile       string  `long:"proxies-file" env:"PROXIES_FILE" description:"File with one host:port:user:pass proxy per line"`
	CollectProxyRange int     `long:"collect-proxy-range" env:"COLLECT_PROXY_RANGE" default:"50" description:"Collector draws proxies from the first N entries (0 = all)"`
	RateLimit         float64 `long:"rate-limit" env:"RATE_LIMIT" default:"0" description:"Page navigations per second across all sessions (0 = unlimited)"`
	RateBurst         int     `long:"rate-burst" env:"RATE_BURST" default:"10" description:"Navigation burst allowed by the rate limit"`

	BatchSize       int           `long:"batch-size" env:"BATCH_SIZE" default:"30" description:"Listings tracked per batch"`
	MaxPages        int           `long:"max-pages" env:"MAX_PAGES" default:"10" description:"Catalog pages scanned per collection attempt"`
	CollectAttempts int           `long:"collect-attempts" env:"COLLECT_ATTEMPTS" default:"5" description:"Collection attempts before giving up"`
	CollectBackoff  time.Duration `long:"collect-backoff" env:"COLLECT_BACKOFF" default:"1m" description:"Wait after a failed collection"`
	NavTimeout      time.Duration `long:"nav-timeout" env:"NAV_TIMEOUT" default:"30s" description:"Catalog page navigation timeout"`
	BatchDuration   time.Duration `long:"batch-duration" env:"BATCH_DURATION" default:"10m" description:"Time window a batch is tracked for"`

	CheckInterval   time.Duration `long:"check-interval" env:"CHECK_INTERVAL" default:"60s" description:"Cadence of status polling passes"`
	Concurrency     int           `long:"concurrency" env:"CONCURRENT_CHECKS" default:"10" description:"Status check workers per pass"`
	CheckTimeout    time.Duration `long:"check-timeout" env:"CHECK_TIMEOUT" default:"20s" description:"Per-item detail page timeout"`
	CheckAttempts   int           `long:"check-attempts" env:"CHECK_ATTEMPTS" default:"2" description:"Attempts per item check within a pass"`
	CheckRetryDelay time.Duration `long:"check-retry-delay" env:"CHECK_RETRY_DELAY" default:"2s" description:"Wait between item check attempts"`

	LaunchInterval time.Duration `long:"launch-interval" env:"LAUNCH_INTERVAL" default:"15m" description:"Delay before the next probe after a category launched"`
	RetryInterval  time.Duration `long:"retry-interval" env:"RETRY_INTERVAL" default:"5m" description:"Delay before re-probing when no category qualified"`

	HistorySchedule string `long:"history-schedule" env:"HISTORY_SCHEDULE" default:"@every 30m" description:"Cron schedule of the background history rescan (empty disables)"`
	HistoryDepth    int    `long:"history-depth" env:"HISTORY_DEPTH" default:"20" description:"Recent links rechecked per category by the history rescan"`

	WebhookURL       string        `long:"webhook-url" env:"DISCORD_WEBHOOK_URL" description:"Discord-compatible webhook for notifications"`
	KafkaBroker      string        `long:"kafka-broker" env:"KAFKA_BROKER" description:"Kafka broker for the sales and events streams (empty disables)"`
	KafkaSalesTopic  string        `long:"kafka-sales-topic" env:"KAFKA_SALES_TOPIC" default:"sellwatch.sales" description:"Topic for sale records"`
	KafkaEventsTopic string        `long:"kafka-events-topic" env:"KAFKA_EVENTS_TOPIC" default:"sellwatch.events" description:"Topic for tracker events"`
	RedisAddr        string        `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for seen history and batch status"`
	RedisPrefix      string        `long:"redis-prefix" env:"REDIS_PREFIX" default:"sellwatch:" description:"Key prefix for Redis entries"`
	StatusTTL        time.Duration `long:"status-ttl" env:"STATUS_TTL" default:"24h" description:"TTL of batch status records"`
	SQLitePath       string        `long:"sqlite-path" env:"SQLITE_PATH" default:"sales.db" description:"SQLite database for sale records"`

	MetricsAddr string `long:"metrics-addr" env:"METRICS_ADDR" default:":9090" description:"Prometheus metrics listen address (empty disables)"`
	LogLevel    string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	Debug       bool   `long:"debug" env:"DEBUG" description:"Disable log sampling"`

	SendTest bool `long:"send-test" description:"Send a test sold notification and exit"`
}

// LoadTracker parses args and the environment. It returns nil, nil when help was requested.
func LoadTracker(args []string) (*Tracker, error) {
	var cfg Tracker
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Tracker) validate() error {
	switch {
	case c.BatchSize < 1:
		return fmt.Errorf("batch-size must be at least 1")
	case c.MaxPages < 1:
		return fmt.Errorf("max-pages must be at least 1")
	case c.CollectAttempts < 1:
		return fmt.Errorf("collect-attempts must be at least 1")
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1")
	case c.CheckAttempts < 2:
		return fmt.Errorf("check-attempts must be at least 2")
	case c.BatchDuration <= 0 || c.CheckInterval <= 0:
		return fmt.Errorf("batch-duration and check-interval must be positive")
	case c.CheckTimeout <= 0 || c.NavTimeout <= 0:
		return fmt.Errorf("check-timeout and nav-timeout must be positive")
	}
	return nil
}

// ProxyList returns the configured proxies from the flag and the file, one per entry.
func (c *Tracker) ProxyList() (string, error) {
	list := c.Proxies
	if c.ProxiesFile != "" {
		data, err := os.ReadFile(c.ProxiesFile)
		if err != nil {
			return "", fmt.Errorf("failed to read proxies file: %w", err)
		}
		list = strings.Join([]string{list, string(data)}, "\n")
	}
	return list, nil
}
