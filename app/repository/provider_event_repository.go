package repository

import (
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// providerEventRepository implements the ProviderEventRepository interface
type providerEventRepository struct {
	db *gorm.DB
}

// NewProviderEventRepository creates a new provider event repository instance
func NewProviderEventRepository(db *gorm.DB) ProviderEventRepository {
	return &providerEventRepository{db: db}
}

// CreateIfNotExists inserts the event unless the (provider, event id) pair
// was already recorded. Concurrent duplicate deliveries race on the unique
// index, not on an application-level existence check.
func (r *providerEventRepository) CreateIfNotExists(event *models.ProviderEvent) (bool, *models.ProviderEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.ProviderEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkProcessed stamps the event as handled and stores an optional error.
func (r *providerEventRepository) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	return r.db.Model(&models.ProviderEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}
