package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"sellwatch/common"
)

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topics := []string{
		common.GetEnv("KAFKA_SALES_TOPIC", "sellwatch.sales"),
		common.GetEnv("KAFKA_EVENTS_TOPIC", "sellwatch.events"),
	}
	create := common.GetEnvBool("KAFKA_CREATE_TOPICS", false)
	partitions := common.GetEnvInt("KAFKA_TOPIC_PARTITIONS", 3)
	timeout := common.GetEnvDuration("KAFKA_CHECK_TIMEOUT", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Kafka at %s: %v\n", broker, err)
		os.Exit(1)
	}
	defer conn.Close()

	existing, err := conn.ReadPartitions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read metadata: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("connected to Kafka at %s (%d partitions)\n", broker, len(existing))

	missing := missingTopics(existing, topics)
	if len(missing) == 0 {
		fmt.Printf("topics present: %s\n", strings.Join(topics, ", "))
		return
	}
	if !create {
		fmt.Fprintf(os.Stderr, "missing topics: %s\n", strings.Join(missing, ", "))
		os.Exit(1)
	}
	if err := createTopics(ctx, conn, missing, partitions); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create topics: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created topics: %s\n", strings.Join(missing, ", "))
}

// missingTopics returns the wanted topics that have no partitions, in order.
func missingTopics(partitions []kafka.Partition, wanted []string) []string {
	present := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		present[p.Topic] = true
	}
	var missing []string
	for _, topic := range wanted {
		if topic != "" && !present[topic] {
			missing = append(missing, topic)
		}
	}
	return missing
}

// createTopics creates topics through the cluster controller.
func createTopics(ctx context.Context, conn *kafka.Conn, topics []string, partitions int) error {
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	var d kafka.Dialer
	ctrlConn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrlConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}
	return ctrlConn.CreateTopics(configs...)
}
