package repository

import (
	"strings"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"gorm.io/gorm"
)

// apiKeyRepository implements the APIKeyRepository interface
type apiKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new API key repository instance
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

// Create stores a new API key record
func (r *apiKeyRepository) Create(key *models.APIKey) error {
	return r.db.Create(key).Error
}

// GetActiveByHash resolves a key hash to its record, skipping revoked keys.
func (r *apiKeyRepository) GetActiveByHash(hash string) (*models.APIKey, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var key models.APIKey
	err := r.db.Where("key_hash = ? AND revoked_at IS NULL", trimmed).First(&key).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// ListByUser returns all keys of a user, newest first
func (r *apiKeyRepository) ListByUser(userID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// Revoke marks an owned key as revoked
func (r *apiKeyRepository) Revoke(id string, userID uint, at time.Time) (int64, error) {
	tx := r.db.Model(&models.APIKey{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", id, userID).
		Update("revoked_at", at)
	return tx.RowsAffected, tx.Error
}

// TouchLastUsed refreshes the last-used timestamp best-effort
func (r *apiKeyRepository) TouchLastUsed(id string, at time.Time) error {
	return r.db.Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
