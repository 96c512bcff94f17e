// Package subscription owns the persisted subscription lifecycle fields on
// the user record. All mutations go through the narrow operations below;
// each one is a single atomic row update.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/cache"
	"gorm.io/gorm"
)

const tierCacheTTL = 10 * time.Minute

// Service provides reads and narrow updates of subscription state.
type Service struct {
	users repository.UserRepository
	tiers TierTable
}

// NewService creates a subscription service from an injected repository and
// static tier table.
func NewService(users repository.UserRepository, tiers TierTable) *Service {
	return &Service{users: users, tiers: tiers}
}

// NewServiceFromDB creates a subscription service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, tiers TierTable) *Service {
	return NewService(repository.NewUserRepository(db), tiers)
}

// GetByID loads a user by internal id.
func (s *Service) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	_ = ctx
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, apperr.ErrPersistence)
	}
	return user, nil
}

// GetByClerkID loads a user by external identity id.
func (s *Service) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	_ = ctx
	user, err := s.users.GetByClerkID(clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", clerkID, apperr.ErrPersistence)
	}
	return user, nil
}

// LinkStripeCustomer attaches the external billing customer id to an
// existing user record.
func (s *Service) LinkStripeCustomer(ctx context.Context, userID uint, customerID string) error {
	_ = ctx
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return fmt.Errorf("customer id is required: %w", apperr.ErrValidation)
	}
	matched, err := s.users.UpdateSubscriptionFields(userID, map[string]interface{}{
		"stripe_customer_id": customerID,
	})
	if err != nil {
		return fmt.Errorf("link customer for user %d: %w", userID, apperr.ErrPersistence)
	}
	if matched == 0 {
		return apperr.ErrNotFound
	}
	s.invalidateTier(userID)
	return nil
}

// SetSubscription records a subscription attach or update. This is the only
// operation allowed to change the subscription id: a new id from the
// provider means the old subscription is gone and this one replaces it in
// place, it never becomes a second record.
func (s *Service) SetSubscription(ctx context.Context, userID uint, subscriptionID, priceID, status string, periodEnd *time.Time) error {
	_ = ctx
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return fmt.Errorf("subscription id is required: %w", apperr.ErrValidation)
	}
	matched, err := s.users.UpdateSubscriptionFields(userID, map[string]interface{}{
		"subscription_id":     subscriptionID,
		"price_id":            strings.TrimSpace(priceID),
		"subscription_status": normalizeStatus(status),
		"current_period_end":  periodEnd,
	})
	if err != nil {
		return fmt.Errorf("set subscription for user %d: %w", userID, apperr.ErrPersistence)
	}
	if matched == 0 {
		return apperr.ErrNotFound
	}
	s.invalidateTier(userID)
	return nil
}

// SetStatus transitions only the subscription status. The subscription id
// is left untouched.
func (s *Service) SetStatus(ctx context.Context, userID uint, status string) error {
	_ = ctx
	matched, err := s.users.UpdateSubscriptionFields(userID, map[string]interface{}{
		"subscription_status": normalizeStatus(status),
	})
	if err != nil {
		return fmt.Errorf("set status for user %d: %w", userID, apperr.ErrPersistence)
	}
	if matched == 0 {
		return apperr.ErrNotFound
	}
	s.invalidateTier(userID)
	return nil
}

// ResolveUserByCustomer maps a billing customer id back to the linked user.
// Unlinked customers report apperr.ErrNotFound; webhook callers treat that
// as an ignorable event rather than a failure.
func (s *Service) ResolveUserByCustomer(ctx context.Context, customerID string) (*models.User, error) {
	_ = ctx
	user, err := s.users.GetByStripeCustomerID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("resolve customer %s: %w", customerID, apperr.ErrPersistence)
	}
	return user, nil
}

// TierForUser derives the user's plan from the static tier table, cached
// briefly in Redis. The cache is invalidated on every subscription write.
func (s *Service) TierForUser(ctx context.Context, user *models.User) Tier {
	_ = ctx
	if !user.IsEntitled() {
		return TierFree
	}
	key := tierCacheKey(user.ID)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		return Tier(cached)
	}
	tier := s.tiers.TierForPrice(user.PriceID)
	_ = cache.Set(key, string(tier), tierCacheTTL)
	return tier
}

func (s *Service) invalidateTier(userID uint) {
	_ = cache.Delete(tierCacheKey(userID))
}

func tierCacheKey(userID uint) string {
	return fmt.Sprintf("user_tier:%d", userID)
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusActive:
		return models.SubscriptionStatusActive
	case models.SubscriptionStatusTrialing:
		return models.SubscriptionStatusTrialing
	case models.SubscriptionStatusPastDue:
		return models.SubscriptionStatusPastDue
	case models.SubscriptionStatusCanceled:
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusIncomplete
	}
}
