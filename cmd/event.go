package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the audit pipeline: publish sample events through the audit logger`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample event",
	Long:      `Publish a sample access control event through the audit logger for testing and debugging`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeUserCreated, events.EventTypeUserRolesReplaced, events.EventTypeRolePermissionsReplaced},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventSubjectID int64
	eventRefIDs    []int64
)

func publishTestEvent(eventType string) error {
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	events.NewAuditLogger(lg).Register(bus)

	var event events.Event
	switch eventType {
	case events.EventTypeUserCreated:
		event = events.NewUserCreatedEvent(eventSubjectID, "cli")
	case events.EventTypeUserRolesReplaced:
		event = events.NewUserRolesReplacedEvent(eventSubjectID, eventRefIDs, 0)
	case events.EventTypeRolePermissionsReplaced:
		event = events.NewRolePermissionsReplacedEvent(eventSubjectID, eventRefIDs, 0)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.Publish(context.Background(), event); err != nil {
		return err
	}
	bus.Wait()
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventSubjectID, "id", 1, "user or role id the event is about")
	publishEventCmd.Flags().Int64SliceVar(&eventRefIDs, "refs", nil, "role or permission ids of the new set")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
