package registry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"gorm.io/gorm"
)

type memWebhookRepo struct {
	webhooks map[string]*models.Webhook
}

func newMemWebhookRepo() *memWebhookRepo {
	return &memWebhookRepo{webhooks: make(map[string]*models.Webhook)}
}

func (r *memWebhookRepo) Create(w *models.Webhook) error {
	clone := *w
	r.webhooks[w.ID] = &clone
	return nil
}

func (r *memWebhookRepo) GetByIDAndUser(id string, userID uint) (*models.Webhook, error) {
	w, ok := r.webhooks[id]
	if !ok || w.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return w, nil
}

func (r *memWebhookRepo) ListByUser(userID uint) ([]models.Webhook, error) {
	var out []models.Webhook
	for _, w := range r.webhooks {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWebhookRepo) UpdateActive(id string, userID uint, active bool) (int64, error) {
	w, ok := r.webhooks[id]
	if !ok || w.UserID != userID {
		return 0, nil
	}
	w.Active = active
	return 1, nil
}

func (r *memWebhookRepo) DeleteWithLogs(id string, userID uint) (int64, error) {
	w, ok := r.webhooks[id]
	if !ok || w.UserID != userID {
		return 0, nil
	}
	delete(r.webhooks, id)
	return 1, nil
}

func (r *memWebhookRepo) ListActiveByUserAndEvent(userID uint, event string) ([]models.Webhook, error) {
	var out []models.Webhook
	for _, w := range r.webhooks {
		if w.UserID == userID && w.Active && w.Events.Contains(event) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWebhookRepo) RecordTrigger(id string, at time.Time, status int) error {
	if w, ok := r.webhooks[id]; ok {
		w.LastTriggeredAt = &at
		w.LastStatus = status
	}
	return nil
}

type memLogRepo struct {
	entries        []models.WebhookLog
	requestedLimit int
}

func (r *memLogRepo) Create(entry *models.WebhookLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memLogRepo) ListByWebhook(webhookID string, limit int) ([]models.WebhookLog, error) {
	r.requestedLimit = limit
	var out []models.WebhookLog
	for _, e := range r.entries {
		if e.WebhookID == webhookID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService() (*Service, *memWebhookRepo, *memLogRepo) {
	webhooks := newMemWebhookRepo()
	logs := &memLogRepo{}
	return NewService(webhooks, logs), webhooks, logs
}

func TestCreate(t *testing.T) {
	svc, _, _ := newTestService()

	webhook, err := svc.Create(context.Background(), 1, "billing", "https://example.com/hook", []string{"subscription.updated"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if webhook.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !strings.HasPrefix(webhook.Secret, "whsec_") {
		t.Fatalf("expected whsec_ secret, got %q", webhook.Secret)
	}
	if !webhook.Active {
		t.Fatalf("expected new registration to be active")
	}
}

func TestCreate_SecretsAreUnique(t *testing.T) {
	svc, _, _ := newTestService()

	a, err := svc.Create(context.Background(), 1, "billing", "https://example.com/a", []string{"x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := svc.Create(context.Background(), 1, "billing", "https://example.com/b", []string{"x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Secret == b.Secret {
		t.Fatalf("expected distinct secrets per registration")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name    string
		service string
		url     string
		events  []string
	}{
		{name: "empty service", service: "", url: "https://example.com", events: []string{"x"}},
		{name: "empty url", service: "billing", url: " ", events: []string{"x"}},
		{name: "no events", service: "billing", url: "https://example.com", events: nil},
		{name: "malformed url", service: "billing", url: "not-a-url", events: []string{"x"}},
	}
	for _, tt := range tests {
		if _, err := svc.Create(context.Background(), 1, tt.service, tt.url, tt.events); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestGet_OwnershipScoped(t *testing.T) {
	svc, _, _ := newTestService()
	webhook, _ := svc.Create(context.Background(), 1, "billing", "https://example.com", []string{"x"})

	if _, err := svc.Get(context.Background(), 1, webhook.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	// Someone else's registration must look like it does not exist.
	if _, err := svc.Get(context.Background(), 2, webhook.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	webhook, _ := svc.Create(context.Background(), 1, "billing", "https://example.com", []string{"x"})

	updated, err := svc.Update(context.Background(), 1, webhook.ID, false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Active {
		t.Fatalf("expected registration to be disabled")
	}

	if _, err := svc.Update(context.Background(), 2, webhook.ID, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService()
	webhook, _ := svc.Create(context.Background(), 1, "billing", "https://example.com", []string{"x"})

	if err := svc.Delete(context.Background(), 2, webhook.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), 1, webhook.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.webhooks) != 0 {
		t.Fatalf("expected registration to be removed")
	}
	if err := svc.Delete(context.Background(), 1, webhook.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestListLogs(t *testing.T) {
	svc, _, logs := newTestService()
	webhook, _ := svc.Create(context.Background(), 1, "billing", "https://example.com", []string{"x"})

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		logs.entries = append(logs.entries, models.WebhookLog{
			WebhookID: webhook.ID,
			Event:     "subscription.updated",
			Status:    200,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	got, err := svc.ListLogs(context.Background(), 1, webhook.ID, 2)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Fatalf("expected most-recent-first ordering")
	}
}

func TestListLogs_LimitClamp(t *testing.T) {
	svc, _, logs := newTestService()
	webhook, _ := svc.Create(context.Background(), 1, "billing", "https://example.com", []string{"x"})

	if _, err := svc.ListLogs(context.Background(), 1, webhook.ID, 500); err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if logs.requestedLimit != DefaultLogPageSize {
		t.Fatalf("expected limit clamped to %d, got %d", DefaultLogPageSize, logs.requestedLimit)
	}

	if _, err := svc.ListLogs(context.Background(), 1, webhook.ID, 0); err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if logs.requestedLimit != DefaultLogPageSize {
		t.Fatalf("expected default limit for zero, got %d", logs.requestedLimit)
	}
}

func TestListLogs_OwnershipCheckedFirst(t *testing.T) {
	svc, _, logs := newTestService()
	webhook, _ := svc.Create(context.Background(), 1, "billing", "https://example.com", []string{"x"})
	logs.entries = append(logs.entries, models.WebhookLog{WebhookID: webhook.ID, Event: "x", Timestamp: time.Now()})

	logs.requestedLimit = -1
	if _, err := svc.ListLogs(context.Background(), 2, webhook.ID, 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if logs.requestedLimit != -1 {
		t.Fatalf("log store must not be queried before the ownership check passes")
	}
}

func TestActiveSubscribed(t *testing.T) {
	svc, _, _ := newTestService()
	a, _ := svc.Create(context.Background(), 1, "billing", "https://example.com/a", []string{"subscription.updated"})
	svc.Create(context.Background(), 1, "billing", "https://example.com/b", []string{"subscription.canceled"})
	inactive, _ := svc.Create(context.Background(), 1, "billing", "https://example.com/c", []string{"subscription.updated"})
	svc.Update(context.Background(), 1, inactive.ID, false)

	got, err := svc.ActiveSubscribed(context.Background(), 1, "subscription.updated")
	if err != nil {
		t.Fatalf("ActiveSubscribed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("expected only the active subscribed registration, got %d entries", len(got))
	}
}
