package models

import "time"

// Webhook provider identifiers used across inbound event models.
const (
	ProviderClerk  = "clerk"
	ProviderStripe = "stripe"
)

// ProviderEvent records every verified inbound webhook event with a unique
// (provider, provider_event_id) key. Providers deliver at-least-once, so a
// redelivered event hits the unique index and is acknowledged without being
// applied a second time.
type ProviderEvent struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Provider        string      `gorm:"type:varchar(20);not null;index:ux_provider_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string      `gorm:"type:varchar(191);not null;index:ux_provider_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string      `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload         JSONPayload `gorm:"type:json" json:"payload"`
	ProcessedAt     *time.Time  `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string      `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

// Processed reports whether the event was applied successfully. An event
// that was recorded but never stamped, or stamped with an error, must be
// applied again when the provider redelivers it.
func (e *ProviderEvent) Processed() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}
