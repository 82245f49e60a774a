package event

import (
	"context"

	"github.com/edudesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingEventHandler writes a structured log line for every published event.
// Subscribed as a wildcard handler so the server has an activity trail even
// with no other subscribers wired.
type LoggingEventHandler struct {
	logger *zap.Logger
}

// NewLoggingEventHandler creates a new LoggingEventHandler
func NewLoggingEventHandler(logger *zap.Logger) *LoggingEventHandler {
	return &LoggingEventHandler{logger: logger}
}

// Handle implements shared.EventHandler
func (h *LoggingEventHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.logger.Info("Domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

// EventTypes implements shared.EventHandler; empty means all events
func (h *LoggingEventHandler) EventTypes() []string {
	return nil
}
