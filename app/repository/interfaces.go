package repository

import (
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
)

// UserRepository defines the interface for identity-record database operations.
type UserRepository interface {
	// Upsert inserts a user keyed by the unique clerk_id, switching to an
	// update of email/name when the key already exists. Subscription
	// fields are never touched by Upsert.
	Upsert(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByClerkID(clerkID string) (*models.User, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
	// UpdateProfile updates email and name on the record matched by
	// clerk_id. Returns the number of matched rows.
	UpdateProfile(clerkID, email, name string) (int64, error)
	// SoftDeleteAndDeactivateWebhooks flags the record matched by clerk_id
	// as deleted and disables its outbound webhook registrations in one
	// transaction. Returns the number of matched user rows.
	SoftDeleteAndDeactivateWebhooks(clerkID string, at time.Time) (int64, error)
	Update(user *models.User) error
	// UpdateSubscriptionFields applies a partial subscription-state update
	// to one user row as a single atomic write.
	UpdateSubscriptionFields(userID uint, fields map[string]interface{}) (int64, error)
}

// WebhookRepository defines the interface for outbound webhook registrations.
// Every lookup and mutation is scoped to the owning user.
type WebhookRepository interface {
	Create(webhook *models.Webhook) error
	GetByIDAndUser(id string, userID uint) (*models.Webhook, error)
	ListByUser(userID uint) ([]models.Webhook, error)
	// UpdateActive toggles the active flag. Returns the number of rows
	// matched by (id, user_id).
	UpdateActive(id string, userID uint, active bool) (int64, error)
	// DeleteWithLogs removes the registration and all of its delivery logs
	// in one transaction. Returns the number of registrations removed.
	DeleteWithLogs(id string, userID uint) (int64, error)
	// ListActiveByUserAndEvent returns active registrations of the user
	// whose event set contains the given event name.
	ListActiveByUserAndEvent(userID uint, event string) ([]models.Webhook, error)
	// RecordTrigger updates last-triggered bookkeeping after a delivery.
	RecordTrigger(id string, at time.Time, status int) error
}

// WebhookLogRepository defines the interface for append-only delivery logs.
type WebhookLogRepository interface {
	Create(log *models.WebhookLog) error
	// ListByWebhook returns up to limit entries most-recent-first.
	ListByWebhook(webhookID string, limit int) ([]models.WebhookLog, error)
}

// APIKeyRepository defines the interface for API key storage.
type APIKeyRepository interface {
	Create(key *models.APIKey) error
	GetActiveByHash(hash string) (*models.APIKey, error)
	ListByUser(userID uint) ([]models.APIKey, error)
	Revoke(id string, userID uint, at time.Time) (int64, error)
	TouchLastUsed(id string, at time.Time) error
}

// ProviderEventRepository defines the interface for inbound event dedup records.
type ProviderEventRepository interface {
	// CreateIfNotExists inserts the event unless its (provider, event id)
	// pair was already recorded. Reports whether this call created it.
	CreateIfNotExists(event *models.ProviderEvent) (bool, *models.ProviderEvent, error)
	MarkProcessed(id uint, processingError string) error
}
