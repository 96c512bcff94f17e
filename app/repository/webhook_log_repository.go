package repository

import (
	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"gorm.io/gorm"
)

// webhookLogRepository implements the WebhookLogRepository interface
type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new webhook log repository instance
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

// Create appends one delivery log entry. Entries are never updated.
func (r *webhookLogRepository) Create(log *models.WebhookLog) error {
	return r.db.Create(log).Error
}

// ListByWebhook returns up to limit entries most-recent-first.
func (r *webhookLogRepository) ListByWebhook(webhookID string, limit int) ([]models.WebhookLog, error) {
	var logs []models.WebhookLog
	err := r.db.Where("webhook_id = ?", webhookID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
