package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// APIKey authenticates programmatic access to the user-facing API. Only the
// SHA-256 hash of the key is stored; the raw key is returned exactly once
// at creation time.
type APIKey struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Name       string     `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	KeyHash    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	Prefix     string     `gorm:"type:varchar(12);not null" json:"prefix"`
	LastUsedAt *time.Time `gorm:"type:timestamp;default:null" json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `gorm:"type:timestamp;default:null" json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (k *APIKey) Validate() error {
	v := validator.New()

	return v.Struct(k)
}

// IsRevoked reports whether the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// HashAPIKey returns the hex SHA-256 digest stored for key lookups.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey creates a new raw API key in the sk_ token format together
// with its storage hash and display prefix.
func GenerateAPIKey() (raw, hash, prefix string, err error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", errors.New("failed to generate api key")
	}
	raw = "sk_" + hex.EncodeToString(b)
	return raw, HashAPIKey(raw), raw[:10], nil
}
