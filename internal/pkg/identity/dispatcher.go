// Package identity applies verified identity-provider events to local user
// records. Every handler is idempotent: redelivering an event converges on
// the same state because writes are keyed upserts or conditional updates,
// never blind inserts.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Dispatcher routes verified event envelopes to their state handlers.
type Dispatcher struct {
	users repository.UserRepository
}

// NewDispatcher creates a dispatcher from an injected repository.
func NewDispatcher(users repository.UserRepository) *Dispatcher {
	return &Dispatcher{users: users}
}

// NewDispatcherFromDB creates a dispatcher from a GORM DB handle.
func NewDispatcherFromDB(db *gorm.DB) *Dispatcher {
	return NewDispatcher(repository.NewUserRepository(db))
}

// Dispatch applies one verified envelope. Unknown event kinds succeed as a
// no-op. Persistence failures wrap apperr.ErrPersistence so the transport
// layer can answer with a retryable status.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) error {
	_ = ctx
	switch ParseEventKind(env.Type) {
	case KindUserCreated:
		return d.handleUserCreated(env.Data)
	case KindUserUpdated:
		return d.handleUserUpdated(env.Data)
	case KindUserDeleted:
		return d.handleUserDeleted(env.Data)
	default:
		// Forward compatibility: the provider may ship event types we do
		// not know yet. Acknowledge so it stops redelivering.
		return nil
	}
}

func (d *Dispatcher) handleUserCreated(data json.RawMessage) error {
	payload, err := decodeUserData(data)
	if err != nil {
		return err
	}

	email := payload.PrimaryEmail()
	if email == "" {
		// A record without a primary email is unusable; skip without error
		// so the provider does not redeliver forever.
		log.Printf("identity: skipping user.created for %s: no primary email", payload.ID)
		return nil
	}

	user := &models.User{
		ClerkID:  payload.ID,
		Email:    email,
		Name:     models.FullName(payload.FirstName, payload.LastName),
		IsActive: true,
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user payload for %s: %w", payload.ID, apperr.ErrValidation)
	}
	if err := d.users.Upsert(user); err != nil {
		return fmt.Errorf("upsert user %s: %w", payload.ID, apperr.ErrPersistence)
	}
	return nil
}

func (d *Dispatcher) handleUserUpdated(data json.RawMessage) error {
	payload, err := decodeUserData(data)
	if err != nil {
		return err
	}

	email := payload.PrimaryEmail()
	if email == "" {
		log.Printf("identity: skipping user.updated for %s: no primary email", payload.ID)
		return nil
	}

	// Update never creates: an update arriving before its create (or for a
	// user we never stored) matches zero rows and is a no-op.
	if _, err := d.users.UpdateProfile(payload.ID, email, models.FullName(payload.FirstName, payload.LastName)); err != nil {
		return fmt.Errorf("update user %s: %w", payload.ID, apperr.ErrPersistence)
	}
	return nil
}

func (d *Dispatcher) handleUserDeleted(data json.RawMessage) error {
	payload, err := decodeUserData(data)
	if err != nil {
		return err
	}

	// Soft delete and registration deactivation happen in one transaction;
	// a deleted owner must stop receiving outbound deliveries, and the
	// registrations with their logs are kept for audit.
	if _, err := d.users.SoftDeleteAndDeactivateWebhooks(payload.ID, time.Now()); err != nil {
		return fmt.Errorf("soft-delete user %s: %w", payload.ID, apperr.ErrPersistence)
	}
	return nil
}

func decodeUserData(data json.RawMessage) (UserData, error) {
	var payload UserData
	if err := json.Unmarshal(data, &payload); err != nil {
		return UserData{}, fmt.Errorf("decode event data: %w", apperr.ErrValidation)
	}
	if strings.TrimSpace(payload.ID) == "" {
		return UserData{}, fmt.Errorf("event data has no user id: %w", apperr.ErrValidation)
	}
	return payload, nil
}
