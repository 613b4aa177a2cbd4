package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/taskflow-service/internal/config"
	"github.com/spec-kit/taskflow-service/internal/events"
)

// NotificationService turns domain events into outbound notifications.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// EventTypes lists the events the service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTaskCreated,
		events.EventTaskUpdated,
		events.EventTaskCompleted,
		events.EventCommentAdded,
		events.EventUserSignedUp,
	}
}

// Handle routes a single event to its notification channels.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventTaskCreated:
		n.logger.Info("TaskCreated", zap.String("task_id", event.SubjectID), zap.Any("payload", event.Payload))
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTaskUpdated:
		n.logger.Info("TaskUpdated", zap.String("task_id", event.SubjectID), zap.Any("payload", event.Payload))
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTaskCompleted:
		n.logger.Info("TaskCompleted", zap.String("task_id", event.SubjectID), zap.Any("payload", event.Payload))
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventCommentAdded:
		n.logger.Info("CommentAdded", zap.String("task_id", event.SubjectID), zap.Any("payload", event.Payload))
		n.sendEmailNotificationStub(ctx, event)
	case events.EventUserSignedUp:
		n.logger.Info("UserSignedUp", zap.String("user_id", event.SubjectID))
		n.sendEmailNotificationStub(ctx, event)
	default:
		n.logger.Debug("ignoring event", zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
