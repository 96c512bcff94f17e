package models

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// EventList is the ordered set of event names a webhook subscribes to.
// It is persisted as a JSON column; encoding and decoding happen only
// here at the storage boundary, callers always see a plain []string.
type EventList []string

func (e EventList) Value() (driver.Value, error) {
	if e == nil {
		e = EventList{}
	}
	return json.Marshal(e)
}

func (e *EventList) Scan(value interface{}) error {
	if value == nil {
		*e = EventList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported event list column type %T", value)
	}
	return json.Unmarshal(raw, e)
}

// Contains reports whether the list subscribes to the given event name.
func (e EventList) Contains(event string) bool {
	for _, name := range e {
		if name == event {
			return true
		}
	}
	return false
}

// Webhook is a user-owned outbound webhook registration. The secret is
// generated server-side exactly once at creation; updates may only toggle
// the active flag.
type Webhook struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Service         string     `gorm:"type:varchar(100);not null" json:"service" validate:"required,max=100"`
	URL             string     `gorm:"type:varchar(500);not null" json:"url" validate:"required,url,max=500"`
	Secret          string     `gorm:"type:varchar(100);not null" json:"-"`
	Events          EventList  `gorm:"type:json;not null" json:"events" validate:"required,min=1"`
	Active          bool       `gorm:"not null;default:true" json:"active"`
	LastTriggeredAt *time.Time `gorm:"type:timestamp;default:null" json:"last_triggered_at,omitempty"`
	LastStatus      int        `gorm:"default:0" json:"last_status,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (w *Webhook) Validate() error {
	v := validator.New()

	return v.Struct(w)
}

// GenerateWebhookSecret returns a new signing secret in the prefixed token
// format delivered to webhook consumers (whsec_ + 24 random bytes hex).
func GenerateWebhookSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", errors.New("failed to generate webhook secret")
	}
	return "whsec_" + hex.EncodeToString(b), nil
}
