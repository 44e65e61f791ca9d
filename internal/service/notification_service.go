package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/config"
	"github.com/northwind-commerce/storefront-service/internal/events"
)

// NotificationService tells customers and the security webhook about
// impersonation sessions on their accounts.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes to the impersonation lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, et := range []events.EventType{
		events.EventImpersonationStarted,
		events.EventImpersonationStopped,
		events.EventImpersonationExpired,
	} {
		n.dispatcher.Subscribe(et, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("impersonation event",
		zap.String("event_type", string(event.Type)),
		zap.String("customer_id", event.CustomerID),
		zap.String("admin_user_id", event.Actor.AdminUserID),
		zap.Any("payload", event.Payload))

	// customers hear about a session once it is over
	if event.Type != events.EventImpersonationStarted {
		n.sendCustomerEmailStub(ctx, event)
	}
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendCustomerEmailStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	payload, ok := event.Payload.(events.ImpersonationEndedPayload)
	if !ok || payload.CustomerEmail == "" {
		n.logger.Debug("no customer email on event", zap.String("event_type", string(event.Type)))
		return
	}
	n.logger.Debug("email notice queued",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", payload.CustomerEmail),
		zap.String("subject", accessNoticeSubject(payload.DurationSeconds)))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notice queued",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}

func accessNoticeSubject(durationSeconds int) string {
	if durationSeconds < 60 {
		return "Our support team accessed your account"
	}
	return fmt.Sprintf("Our support team accessed your account for %d min", durationSeconds/60)
}
