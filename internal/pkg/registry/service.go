// Package registry manages user-owned outbound webhook registrations and
// their append-only delivery logs. Ownership is enforced on every read and
// mutation: a registration owned by someone else is indistinguishable from
// one that does not exist.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultLogPageSize bounds one page of delivery log entries.
const DefaultLogPageSize = 50

// Service provides ownership-scoped registry and delivery log operations.
type Service struct {
	webhooks repository.WebhookRepository
	logs     repository.WebhookLogRepository
}

// NewService creates a registry service from injected repositories.
func NewService(webhooks repository.WebhookRepository, logs repository.WebhookLogRepository) *Service {
	return &Service{webhooks: webhooks, logs: logs}
}

// NewServiceFromDB creates a registry service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	repos := repository.NewRepositories(db)
	return NewService(repos.Webhook, repos.WebhookLog)
}

// Create registers a new outbound webhook for the owner. The signing secret
// is generated server-side and is only ever returned here; list responses
// never include it again.
func (s *Service) Create(ctx context.Context, ownerID uint, service, url string, events []string) (*models.Webhook, error) {
	_ = ctx
	service = strings.TrimSpace(service)
	url = strings.TrimSpace(url)
	if service == "" || url == "" || len(events) == 0 {
		return nil, fmt.Errorf("service, url and events are required: %w", apperr.ErrValidation)
	}

	secret, err := models.GenerateWebhookSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", apperr.ErrPersistence)
	}

	webhook := &models.Webhook{
		ID:      uuid.NewString(),
		UserID:  ownerID,
		Service: service,
		URL:     url,
		Secret:  secret,
		Events:  models.EventList(events),
		Active:  true,
	}
	if err := webhook.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook registration: %w", apperr.ErrValidation)
	}
	if err := s.webhooks.Create(webhook); err != nil {
		return nil, fmt.Errorf("create webhook: %w", apperr.ErrPersistence)
	}
	return webhook, nil
}

// List returns all registrations owned by the caller.
func (s *Service) List(ctx context.Context, ownerID uint) ([]models.Webhook, error) {
	_ = ctx
	webhooks, err := s.webhooks.ListByUser(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", apperr.ErrPersistence)
	}
	return webhooks, nil
}

// Get returns one owned registration.
func (s *Service) Get(ctx context.Context, ownerID uint, id string) (*models.Webhook, error) {
	_ = ctx
	webhook, err := s.webhooks.GetByIDAndUser(id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load webhook %s: %w", id, apperr.ErrPersistence)
	}
	return webhook, nil
}

// Update toggles the active flag, the only field mutable after creation.
func (s *Service) Update(ctx context.Context, ownerID uint, id string, active bool) (*models.Webhook, error) {
	_ = ctx
	matched, err := s.webhooks.UpdateActive(id, ownerID, active)
	if err != nil {
		return nil, fmt.Errorf("update webhook %s: %w", id, apperr.ErrPersistence)
	}
	if matched == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.Get(ctx, ownerID, id)
}

// Delete removes an owned registration and cascades its delivery logs.
func (s *Service) Delete(ctx context.Context, ownerID uint, id string) error {
	_ = ctx
	deleted, err := s.webhooks.DeleteWithLogs(id, ownerID)
	if err != nil {
		return fmt.Errorf("delete webhook %s: %w", id, apperr.ErrPersistence)
	}
	if deleted == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AppendLog records one dispatch attempt. Entries are append-only.
func (s *Service) AppendLog(ctx context.Context, webhookID, event string, payload []byte, status int, errMsg string) error {
	_ = ctx
	entry := &models.WebhookLog{
		ID:        uuid.NewString(),
		WebhookID: webhookID,
		Event:     event,
		Payload:   models.JSONPayload(payload),
		Status:    status,
		Error:     errMsg,
		Timestamp: time.Now(),
	}
	if err := s.logs.Create(entry); err != nil {
		return fmt.Errorf("append delivery log: %w", apperr.ErrPersistence)
	}
	return nil
}

// ListLogs returns up to limit most-recent entries for an owned webhook.
// Ownership is checked before any log row is touched so logs of another
// owner's webhook can never leak, not even their count.
func (s *Service) ListLogs(ctx context.Context, ownerID uint, webhookID string, limit int) ([]models.WebhookLog, error) {
	if _, err := s.Get(ctx, ownerID, webhookID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultLogPageSize {
		limit = DefaultLogPageSize
	}
	logs, err := s.logs.ListByWebhook(webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("list delivery logs: %w", apperr.ErrPersistence)
	}
	return logs, nil
}

// RecordTrigger updates last-delivery bookkeeping on the registration.
func (s *Service) RecordTrigger(ctx context.Context, webhookID string, at time.Time, status int) error {
	_ = ctx
	if err := s.webhooks.RecordTrigger(webhookID, at, status); err != nil {
		return fmt.Errorf("record trigger: %w", apperr.ErrPersistence)
	}
	return nil
}

// ActiveSubscribed returns the owner's active registrations subscribed to
// the given event name, for fan-out delivery.
func (s *Service) ActiveSubscribed(ctx context.Context, ownerID uint, event string) ([]models.Webhook, error) {
	_ = ctx
	webhooks, err := s.webhooks.ListActiveByUserAndEvent(ownerID, event)
	if err != nil {
		return nil, fmt.Errorf("list subscribed webhooks: %w", apperr.ErrPersistence)
	}
	return webhooks, nil
}
