package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/employee-management/internal/core/events"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test entity events to Kafka for debugging the notification pipeline`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test entity event through the same publisher the services use`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventEntityID int64
	eventEmail    string
	eventName     string
)

func publishTestEvent(eventType string) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !config.Kafka.Enabled {
		return fmt.Errorf("kafka is disabled in config")
	}

	event, err := testEvent(eventType)
	if err != nil {
		return err
	}

	lg := logger.LoggerWrapper()
	deps := &Dependencies{Config: config, Logger: lg}
	publisher := newPublisher(deps)

	lg.Info("publishing test event", "event_type", eventType, "key", event.Key)
	publisher.Publish(context.Background(), event)

	// Close drains the queue before returning.
	deps.close()
	return nil
}

func testEvent(eventType string) (*events.EntityEvent, error) {
	switch eventType {
	case events.EventTypeUserCreated, events.EventTypeUserUpdated:
		return events.NewUserEvent(eventType, eventEntityID, eventEmail, eventName, "Test"), nil
	case events.EventTypeEmployeeCreated, events.EventTypeEmployeeUpdated:
		return events.NewEmployeeEvent(eventType, eventEntityID, eventEmail, eventName, "Test", "ACTIVE"), nil
	case events.EventTypeEmployeeDeleted:
		return events.NewEmployeeDeletedEvent(eventEntityID), nil
	case events.EventTypeDepartmentCreated, events.EventTypeDepartmentUpdated:
		return events.NewDepartmentEvent(eventType, eventEntityID, eventName, "published from cli"), nil
	case events.EventTypeDepartmentDeleted:
		return events.NewDepartmentDeletedEvent(eventEntityID), nil
	}
	return nil, fmt.Errorf("unknown event type %q, expected one of %v", eventType, events.AllEventTypes)
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventEntityID, "id", 1, "entity id used as the message key")
	publishEventCmd.Flags().StringVar(&eventEmail, "email", "test@company.com", "email field for user and employee events")
	publishEventCmd.Flags().StringVar(&eventName, "name", "Test", "first name or department name")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
