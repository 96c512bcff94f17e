package identity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	nextID      uint
	users       map[string]*models.User
	deactivated []string
	upsertErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Upsert(user *models.User) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if existing, ok := r.users[user.ClerkID]; ok {
		existing.Email = user.Email
		if user.Name != "" {
			existing.Name = user.Name
		}
		user.ID = existing.ID
		return nil
	}
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ClerkID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByClerkID(clerkID string) (*models.User, error) {
	if u, ok := r.users[clerkID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByStripeCustomerID(customerID string) (*models.User, error) {
	for _, u := range r.users {
		if u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdateProfile(clerkID, email, name string) (int64, error) {
	u, ok := r.users[clerkID]
	if !ok {
		return 0, nil
	}
	u.Email = email
	u.Name = name
	return 1, nil
}

func (r *fakeUserRepo) SoftDeleteAndDeactivateWebhooks(clerkID string, at time.Time) (int64, error) {
	u, ok := r.users[clerkID]
	if !ok {
		return 0, nil
	}
	u.IsActive = false
	u.DeletedAt = &at
	r.deactivated = append(r.deactivated, clerkID)
	return 1, nil
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.users[user.ClerkID] = user
	return nil
}

func (r *fakeUserRepo) UpdateSubscriptionFields(userID uint, fields map[string]interface{}) (int64, error) {
	u, err := r.GetByID(userID)
	if err != nil {
		return 0, nil
	}
	if v, ok := fields["subscription_id"]; ok {
		u.SubscriptionID = v.(string)
	}
	if v, ok := fields["subscription_status"]; ok {
		u.SubscriptionStatus = v.(string)
	}
	if v, ok := fields["price_id"]; ok {
		u.PriceID = v.(string)
	}
	return 1, nil
}

func userEnvelope(t *testing.T, eventType, userID, email string) Envelope {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"id": userID,
		"email_addresses": []map[string]interface{}{
			{"email_address": "secondary@example.com", "primary": false},
			{"email_address": email, "primary": email != ""},
		},
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	return Envelope{Type: eventType, Data: data}
}

func TestDispatch_UserCreated(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	env := userEnvelope(t, "user.created", "user_abc", "ada@example.com")
	if err := d.Dispatch(context.Background(), env); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	u, err := users.GetByClerkID("user_abc")
	if err != nil {
		t.Fatalf("expected user to exist: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("expected primary email, got %q", u.Email)
	}
	if u.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", u.Name)
	}
	if !u.IsActive {
		t.Fatalf("expected new user to be active")
	}
}

func TestDispatch_UserCreated_Idempotent(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	env := userEnvelope(t, "user.created", "user_abc", "ada@example.com")
	for i := 0; i < 3; i++ {
		if err := d.Dispatch(context.Background(), env); err != nil {
			t.Fatalf("dispatch #%d: %v", i+1, err)
		}
	}
	if len(users.users) != 1 {
		t.Fatalf("expected one user after redelivery, got %d", len(users.users))
	}
}

func TestDispatch_UserCreated_NoPrimaryEmailIsSkipped(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	env := userEnvelope(t, "user.created", "user_abc", "")
	if err := d.Dispatch(context.Background(), env); err != nil {
		t.Fatalf("expected skip without error, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatalf("expected no user to be created")
	}
}

func TestDispatch_UserCreated_InvalidEmail(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	env := userEnvelope(t, "user.created", "user_abc", "not-an-email")
	if err := d.Dispatch(context.Background(), env); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed email, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatalf("expected no user to be created from invalid payload")
	}
}

func TestDispatch_UserCreated_PersistenceFailure(t *testing.T) {
	users := newFakeUserRepo()
	users.upsertErr = errors.New("connection refused")
	d := NewDispatcher(users)

	env := userEnvelope(t, "user.created", "user_abc", "ada@example.com")
	if err := d.Dispatch(context.Background(), env); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	// The retried delivery must succeed once storage recovers.
	users.upsertErr = nil
	if err := d.Dispatch(context.Background(), env); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if _, err := users.GetByClerkID("user_abc"); err != nil {
		t.Fatalf("expected user to exist after retry: %v", err)
	}
}

func TestDispatch_UserUpdated(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	if err := d.Dispatch(context.Background(), userEnvelope(t, "user.created", "user_abc", "old@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Dispatch(context.Background(), userEnvelope(t, "user.updated", "user_abc", "new@example.com")); err != nil {
		t.Fatalf("update: %v", err)
	}

	u, _ := users.GetByClerkID("user_abc")
	if u.Email != "new@example.com" {
		t.Fatalf("expected updated email, got %q", u.Email)
	}
}

func TestDispatch_UserUpdated_UnknownUserIsNoOp(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	// An update arriving before its create must not create a record.
	if err := d.Dispatch(context.Background(), userEnvelope(t, "user.updated", "user_ghost", "x@example.com")); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatalf("expected no user to be created by update")
	}
}

func TestDispatch_UserDeleted(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	if err := d.Dispatch(context.Background(), userEnvelope(t, "user.created", "user_abc", "ada@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := d.Dispatch(context.Background(), userEnvelope(t, "user.deleted", "user_abc", "")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	u, _ := users.GetByClerkID("user_abc")
	if u.IsActive || u.DeletedAt == nil {
		t.Fatalf("expected user to be soft-deleted")
	}
	if len(users.deactivated) != 1 || users.deactivated[0] != "user_abc" {
		t.Fatalf("expected webhooks of deleted user to be deactivated with the delete")
	}
}

func TestDispatch_UserDeleted_UnknownUserIsNoOp(t *testing.T) {
	users := newFakeUserRepo()
	d := NewDispatcher(users)

	if err := d.Dispatch(context.Background(), userEnvelope(t, "user.deleted", "user_ghost", "")); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(users.deactivated) != 0 {
		t.Fatalf("expected no deactivation for unknown user")
	}
}

func TestDispatch_UnknownEventIsAcknowledged(t *testing.T) {
	d := NewDispatcher(newFakeUserRepo())

	env := Envelope{Type: "organization.created", Data: json.RawMessage(`{"id":"org_1"}`)}
	if err := d.Dispatch(context.Background(), env); err != nil {
		t.Fatalf("expected unknown event to be acknowledged, got %v", err)
	}
}

func TestDispatch_MalformedData(t *testing.T) {
	d := NewDispatcher(newFakeUserRepo())

	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: `{"id":`},
		{name: "missing id", data: `{"email_addresses":[]}`},
	}
	for _, tt := range tests {
		env := Envelope{Type: "user.created", Data: json.RawMessage(tt.data)}
		if err := d.Dispatch(context.Background(), env); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}
