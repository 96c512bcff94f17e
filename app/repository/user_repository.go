package repository

import (
	"strings"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert inserts the user or, when the unique clerk_id already exists,
// updates the profile fields of the existing row. The conflict path relies
// on the storage-level unique index rather than a racy existence check.
func (r *userRepository) Upsert(user *models.User) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clerk_id"}},
		DoUpdates: clause.AssignmentColumns(upsertAssignments(user)),
	}).Create(user).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("clerk_id = ?", user.ClerkID).First(user).Error
}

// upsertAssignments lists the profile columns refreshed when the unique
// clerk_id already exists. Callers without a name claim (self-service sync)
// send an empty name; the stored name is kept rather than overwritten.
func upsertAssignments(user *models.User) []string {
	cols := []string{"email", "updated_at"}
	if strings.TrimSpace(user.Name) != "" {
		cols = append(cols, "name")
	}
	return cols
}

// GetByID retrieves a user by internal ID. Soft-deleted records are still
// returned; callers decide how to present them.
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByClerkID retrieves a user by the external identity-provider ID.
func (r *userRepository) GetByClerkID(clerkID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("clerk_id = ?", strings.TrimSpace(clerkID)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByStripeCustomerID retrieves a user by the linked billing customer ID.
func (r *userRepository) GetByStripeCustomerID(customerID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("stripe_customer_id = ?", strings.TrimSpace(customerID)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates email and name on the record matched by clerk_id.
func (r *userRepository) UpdateProfile(clerkID, email, name string) (int64, error) {
	tx := r.db.Model(&models.User{}).
		Where("clerk_id = ?", clerkID).
		Updates(map[string]interface{}{
			"email": email,
			"name":  name,
		})
	return tx.RowsAffected, tx.Error
}

// SoftDeleteAndDeactivateWebhooks flags the record matched by clerk_id as
// deleted and disables its outbound registrations atomically. A deleted
// owner must stop receiving deliveries, but never in a half-applied state.
func (r *userRepository) SoftDeleteAndDeactivateWebhooks(clerkID string, at time.Time) (int64, error) {
	var matched int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("clerk_id = ?", clerkID).
			Updates(map[string]interface{}{
				"is_active":  false,
				"deleted_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		matched = res.RowsAffected
		if matched == 0 {
			return nil
		}

		var user models.User
		if err := tx.Where("clerk_id = ?", clerkID).First(&user).Error; err != nil {
			return err
		}
		return tx.Model(&models.Webhook{}).
			Where("user_id = ? AND active = ?", user.ID, true).
			Update("active", false).Error
	})
	return matched, err
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateSubscriptionFields applies a partial subscription-state update to
// one user row as a single atomic write.
func (r *userRepository) UpdateSubscriptionFields(userID uint, fields map[string]interface{}) (int64, error) {
	tx := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	return tx.RowsAffected, tx.Error
}
