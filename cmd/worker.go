package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/core/events"
	"github.com/frahmantamala/employee-management/internal/metrics"
	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume entity events from Kafka.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification consumer",
	Long:  `Consume user, employee and department events and dispatch them to notification handlers`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startNotificationWorker()
	},
}

var (
	consumerGroup string
	metricsAddr   string
)

func startNotificationWorker() error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.LoggerWrapper().With("service", "notification")

	group := getStringFlag(consumerGroup, config.Kafka.ConsumerGroup)
	topics := topicsByName(config.Kafka.Topics)
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}

	var recorder notification.Recorder
	if config.Observability.Metrics.Enabled {
		m := metrics.NewMetrics(prometheus.NewRegistry())
		recorder = m
		go serveMetrics(m, config.Observability.Metrics.Path)
	}

	bus := events.NewEventBus(lg)
	notification.Register(bus, lg)

	reader := notification.NewKafkaReader(config.Kafka.Brokers, group, names)
	consumer := notification.NewConsumer(reader, topics, bus, lg, recorder)
	defer func() {
		if err := consumer.Close(); err != nil {
			lg.Error("failed to close consumer", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("starting notification worker",
		"brokers", config.Kafka.Brokers,
		"group", group,
		"topics", names)

	if err := consumer.Run(ctx); err != nil {
		return fmt.Errorf("notification consumer: %w", err)
	}

	lg.Info("notification worker shutdown complete")
	return nil
}

func serveMetrics(m *metrics.Metrics, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	server := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.LoggerWrapper().Error("metrics server failed", "error", err)
	}
}

func topicsByName(t internal.TopicsConfig) map[string]events.Aggregate {
	out := make(map[string]events.Aggregate, 3)
	for aggregate, topic := range topicsByAggregate(t) {
		out[topic] = aggregate
	}
	return out
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().StringVar(&consumerGroup, "group", "", "Kafka consumer group (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9102", "address for the metrics endpoint")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
