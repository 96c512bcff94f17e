package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Subscription status values mirrored from the billing provider.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
)

// User is the local identity record for an end user. Identity lifecycle is
// driven by the external identity provider (webhook events or authenticated
// self-service sync); subscription fields are driven by billing events.
// Users are never physically deleted, user.deleted only flips the
// soft-delete flag so billing history stays resolvable.
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ClerkID            string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"clerk_id" validate:"required"`
	Email              string     `gorm:"type:varchar(200);not null" json:"email" validate:"required,email,max=200"`
	Name               string     `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	StripeCustomerID   string     `gorm:"type:varchar(191);index" json:"stripe_customer_id,omitempty"`
	SubscriptionID     string     `gorm:"type:varchar(191)" json:"subscription_id,omitempty"`
	SubscriptionStatus string     `gorm:"type:varchar(32)" json:"subscription_status,omitempty"`
	PriceID            string     `gorm:"type:varchar(191)" json:"price_id,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`
	DeletedAt          *time.Time `gorm:"type:timestamp;default:null" json:"deleted_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// HasSubscription reports whether a billing subscription was ever attached.
func (u *User) HasSubscription() bool {
	return u.SubscriptionID != ""
}

// IsEntitled reports whether the current subscription status still grants
// access to paid features.
func (u *User) IsEntitled() bool {
	switch u.SubscriptionStatus {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}

// FullName joins provider-supplied name parts the way the identity provider
// delivers them (either part may be empty).
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
