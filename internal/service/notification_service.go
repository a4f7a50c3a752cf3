package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/events"
)

// NotificationService fans parking events out to logs and, when configured,
// to an external publisher such as Redis.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	publisher  events.EventHandler
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, publisher events.EventHandler) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		publisher:  publisher,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventVehicleParked,
		events.EventVehicleReleased,
		events.EventTierFull,
	} {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Debug("parking event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("token", event.Token),
		zap.Any("payload", event.Payload))

	if n.publisher == nil {
		return nil
	}
	return n.publisher(ctx, event)
}
