package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONPayload stores a payload snapshot exactly as it was dispatched.
// The column holds the original JSON bytes; no reformatting happens on
// write, and readers get the raw message back for structured decoding.
type JSONPayload json.RawMessage

func (p JSONPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return []byte(p), nil
}

func (p *JSONPayload) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*p = append((*p)[:0], v...)
	case string:
		*p = JSONPayload(v)
	default:
		return fmt.Errorf("unsupported payload column type %T", value)
	}
	return nil
}

func (p JSONPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *JSONPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// WebhookLog is one immutable record of a dispatch attempt against a
// registered webhook. Entries are append-only and never updated.
type WebhookLog struct {
	ID        string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	WebhookID string      `gorm:"type:varchar(36);not null;index:idx_webhook_logs_webhook_ts,priority:1" json:"webhook_id"`
	Event     string      `gorm:"type:varchar(100);not null" json:"event"`
	Payload   JSONPayload `gorm:"type:json" json:"payload"`
	Status    int         `gorm:"not null;default:0" json:"status"`
	Error     string      `gorm:"type:text" json:"error,omitempty"`
	Timestamp time.Time   `gorm:"autoCreateTime;index:idx_webhook_logs_webhook_ts,priority:2" json:"timestamp"`
}
