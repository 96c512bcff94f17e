package repository

import (
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"gorm.io/gorm"
)

// webhookRepository implements the WebhookRepository interface
type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new webhook repository instance
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

// Create creates a new webhook registration in the database
func (r *webhookRepository) Create(webhook *models.Webhook) error {
	return r.db.Create(webhook).Error
}

// GetByIDAndUser retrieves a registration only when it is owned by userID.
// A registration owned by someone else behaves exactly like a missing one.
func (r *webhookRepository) GetByIDAndUser(id string, userID uint) (*models.Webhook, error) {
	var webhook models.Webhook
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&webhook).Error
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

// ListByUser retrieves all registrations owned by the given user
func (r *webhookRepository) ListByUser(userID uint) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&webhooks).Error
	return webhooks, err
}

// UpdateActive toggles the active flag on an owned registration
func (r *webhookRepository) UpdateActive(id string, userID uint, active bool) (int64, error) {
	tx := r.db.Model(&models.Webhook{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("active", active)
	return tx.RowsAffected, tx.Error
}

// DeleteWithLogs removes the registration and its delivery logs atomically
func (r *webhookRepository) DeleteWithLogs(id string, userID uint) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Webhook{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		return tx.Where("webhook_id = ?", id).Delete(&models.WebhookLog{}).Error
	})
	return deleted, err
}

// ListActiveByUserAndEvent returns the user's active registrations whose
// event set contains the given event name. Matching happens in Go to keep
// the JSON decode at the model boundary.
func (r *webhookRepository) ListActiveByUserAndEvent(userID uint, event string) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("user_id = ? AND active = ?", userID, true).Find(&webhooks).Error
	if err != nil {
		return nil, err
	}
	matched := webhooks[:0]
	for _, w := range webhooks {
		if w.Events.Contains(event) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

// RecordTrigger updates last-triggered bookkeeping after a delivery attempt
func (r *webhookRepository) RecordTrigger(id string, at time.Time, status int) error {
	return r.db.Model(&models.Webhook{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_triggered_at": at,
			"last_status":       status,
		}).Error
}
