package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/config"
	"github.com/spec-kit/hostres/internal/events"
	"github.com/spec-kit/hostres/internal/observability"
)

// Submitter schedules background work.
type Submitter interface {
	Submit(name string, run func(context.Context) error) bool
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	metrics    *observability.Metrics
	submitter  Submitter
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		metrics:    metrics,
	}
}

// UseSubmitter moves deliveries off the request path.
func (n *NotificationService) UseSubmitter(s Submitter) {
	n.submitter = s
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllIssueEvents {
		n.dispatcher.Subscribe(eventType, n.countEvent)
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.handleIssueCreated)
	n.dispatcher.Subscribe(events.EventIssueStatusChanged, n.handleIssueStatusChanged)
	n.dispatcher.Subscribe(events.EventIssueUpvoted, n.handleIssueUpvoted)
	n.dispatcher.Subscribe(events.EventIssueDeleted, n.handleIssueDeleted)
}

func (n *NotificationService) countEvent(_ context.Context, event events.Event) error {
	n.metrics.RecordIssueEvent(string(event.Type))
	return nil
}

func (n *NotificationService) handleIssueCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueCreated", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	n.deliver(ctx, "email", event, n.sendEmailNotificationStub)
	n.deliver(ctx, "webhook", event, n.sendWebhookNotificationStub)
	return nil
}

func (n *NotificationService) handleIssueStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueStatusChanged", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	n.deliver(ctx, "email", event, n.sendEmailNotificationStub)
	n.deliver(ctx, "webhook", event, n.sendWebhookNotificationStub)
	return nil
}

func (n *NotificationService) handleIssueUpvoted(ctx context.Context, event events.Event) error {
	n.logger.Debug("IssueUpvoted", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleIssueDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueDeleted", zap.String("issue_id", event.IssueID))
	n.deliver(ctx, "webhook", event, n.sendWebhookNotificationStub)
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, channel string, event events.Event, send func(context.Context, events.Event) error) {
	run := func(ctx context.Context) error {
		err := send(ctx, event)
		n.metrics.RecordNotification(channel, err)
		return err
	}
	if n.submitter != nil && n.submitter.Submit(channel+":"+string(event.Type), run) {
		return
	}
	if err := run(ctx); err != nil {
		n.logger.Warn("notification failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return nil
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
	return nil
}
