package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-chat/internal/config"
	"github.com/spec-kit/helpdesk-chat/internal/events"
)

// NotificationService handles emitting notifications for chat events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketRaised, n.handleTicketRaised)
	n.dispatcher.Subscribe(events.EventTurnFailed, n.handleTurnFailed)
}

func (n *NotificationService) handleTicketRaised(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("session_id", event.SessionID), zap.String("event_id", event.ID)}
	if payload, ok := event.Payload.(events.TicketRaisedPayload); ok {
		fields = append(fields,
			zap.String("title", payload.Ticket.Title),
			zap.String("priority", string(payload.Ticket.Priority)),
			zap.String("category", string(payload.Ticket.Category)))
	}
	n.logger.Info("TicketRaised", fields...)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTurnFailed(ctx context.Context, event events.Event) error {
	n.logger.Info("TurnFailed", zap.String("session_id", event.SessionID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("session_id", event.SessionID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("session_id", event.SessionID),
		zap.String("event_type", string(event.Type)))
}
