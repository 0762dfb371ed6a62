package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/events"
)

// AuditService records directory events in the log and, when configured,
// forwards them to a webhook.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
	client     *resty.Client
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     resty.New().SetTimeout(5 * time.Second),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handleEvent)
	}
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	if event.Type == events.EventPersistFailed {
		a.logger.Warn(string(event.Type), zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	} else {
		a.logger.Info(string(event.Type), zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	}
	return a.sendWebhook(ctx, event)
}

func (a *AuditService) sendWebhook(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return nil
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(a.cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("audit webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("audit webhook: unexpected status %d", resp.StatusCode())
	}
	a.logger.Debug("audit webhook delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}
