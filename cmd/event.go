package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Lap-DevOps/Organizational-Chart/internal/core/events"
	"github.com/Lap-DevOps/Organizational-Chart/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the in-process event bus: publish sample user events through the audit log handler.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample user event",
	Long:      `Publish a sample user.registered or user.logged_in event to the audit log handler for debugging`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.UserRegisteredEvent, events.UserLoggedInEvent},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(args[0])
	},
}

var (
	eventEmail string
	eventRole  string
)

func publishSampleEvent(eventType string) error {
	lg := logger.LoggerWrapper()

	var event events.BaseEvent
	switch eventType {
	case events.UserRegisteredEvent:
		event = events.NewUserRegisteredEvent("sample", eventEmail, eventRole)
	case events.UserLoggedInEvent:
		event = events.NewUserLoggedInEvent("sample", eventEmail)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	eventBus := events.NewEventBus(lg)
	eventBus.Subscribe(eventType, events.AuditLogHandler(lg))

	lg.Info("publishing sample event", "event_type", eventType, "event_id", event.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return eventBus.PublishSync(ctx, event)
}

func init() {
	publishEventCmd.Flags().StringVar(&eventEmail, "email", "sample@example.com", "email carried by the event")
	publishEventCmd.Flags().StringVar(&eventRole, "role", "Guest", "role carried by user.registered")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
