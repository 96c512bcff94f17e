package subscription

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
)

// Billing event types we act on. Everything else is acknowledged untouched.
const (
	StripeEventCheckoutCompleted   = "checkout.session.completed"
	StripeEventSubscriptionCreated = "customer.subscription.created"
	StripeEventSubscriptionUpdated = "customer.subscription.updated"
	StripeEventSubscriptionDeleted = "customer.subscription.deleted"
)

// StripeEnvelope is the outer billing event structure.
type StripeEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSession is the slice of checkout.session.completed we consume.
// ClientReferenceID carries our internal user id set at session creation.
type CheckoutSession struct {
	Mode              string `json:"mode"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	ClientReferenceID string `json:"client_reference_id"`
}

// StripeSubscription is the slice of customer.subscription.* we consume.
type StripeSubscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID returns the price of the first subscription item, the only one a
// single-plan checkout produces.
func (s StripeSubscription) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// PeriodEnd converts the provider epoch into a timestamp, nil when absent.
func (s StripeSubscription) PeriodEnd() *time.Time {
	if s.CurrentPeriodEnd == 0 {
		return nil
	}
	t := time.Unix(s.CurrentPeriodEnd, 0)
	return &t
}

// ParseStripeEnvelope decodes the raw webhook body into the envelope.
func ParseStripeEnvelope(body []byte) (StripeEnvelope, error) {
	var env StripeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return StripeEnvelope{}, fmt.Errorf("decode billing event: %w", apperr.ErrValidation)
	}
	if strings.TrimSpace(env.Type) == "" {
		return StripeEnvelope{}, fmt.Errorf("billing event has no type: %w", apperr.ErrValidation)
	}
	return env, nil
}

// ParseCheckoutSession decodes the data object of a checkout event.
func ParseCheckoutSession(object json.RawMessage) (CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout session: %w", apperr.ErrValidation)
	}
	return session, nil
}

// ParseStripeSubscription decodes the data object of a subscription event.
func ParseStripeSubscription(object json.RawMessage) (StripeSubscription, error) {
	var sub StripeSubscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return StripeSubscription{}, fmt.Errorf("decode subscription object: %w", apperr.ErrValidation)
	}
	if strings.TrimSpace(sub.ID) == "" {
		return StripeSubscription{}, fmt.Errorf("subscription object has no id: %w", apperr.ErrValidation)
	}
	return sub, nil
}
