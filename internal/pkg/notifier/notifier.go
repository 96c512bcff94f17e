// Package notifier delivers signed event payloads to user-registered
// webhook endpoints and records every attempt in the delivery log.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/registry"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/webhookauth"
	"github.com/google/uuid"
)

const (
	deliveryTimeout = 10 * time.Second
	userAgent       = "SaaS-Webhook/1.0"
)

// Notifier posts event payloads to registered webhook targets.
type Notifier struct {
	registry *registry.Service
	client   *http.Client
}

// New creates a notifier around the registry service.
func New(reg *registry.Service) *Notifier {
	return &Notifier{
		registry: reg,
		client:   &http.Client{Timeout: deliveryTimeout},
	}
}

// Payload is the envelope delivered to webhook consumers.
type Payload struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Service   string      `json:"service"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Result reports the outcome of one delivery attempt.
type Result struct {
	Status int
	Error  string
}

// Ok reports whether the target answered with a 2xx status.
func (r Result) Ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// Deliver signs and posts one payload to a registration, then appends a
// delivery log entry and refreshes the last-triggered bookkeeping. Failures
// to reach the target are recorded in the log, not returned as errors;
// only log persistence itself can fail.
func (n *Notifier) Deliver(ctx context.Context, webhook *models.Webhook, eventType string, data interface{}) (Result, error) {
	payload := Payload{
		ID:        uuid.NewString(),
		Type:      eventType,
		Service:   webhook.Service,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	result := n.post(ctx, webhook, body)

	if err := n.registry.AppendLog(ctx, webhook.ID, eventType, body, result.Status, result.Error); err != nil {
		return result, err
	}
	if err := n.registry.RecordTrigger(ctx, webhook.ID, time.Now(), result.Status); err != nil {
		log.Printf("notifier: failed to record trigger for webhook %s: %v", webhook.ID, err)
	}
	return result, nil
}

// Fanout delivers an event to every active registration of the owner whose
// event set contains eventType. Individual delivery failures do not stop
// the rest of the fan-out.
func (n *Notifier) Fanout(ctx context.Context, ownerID uint, eventType string, data interface{}) {
	webhooks, err := n.registry.ActiveSubscribed(ctx, ownerID, eventType)
	if err != nil {
		log.Printf("notifier: fan-out lookup failed for user %d: %v", ownerID, err)
		return
	}
	for i := range webhooks {
		if _, err := n.Deliver(ctx, &webhooks[i], eventType, data); err != nil {
			log.Printf("notifier: delivery to webhook %s failed: %v", webhooks[i].ID, err)
		}
	}
}

func (n *Notifier) post(ctx context.Context, webhook *models.Webhook, body []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Status: 0, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Signature", webhookauth.SignOutboundPayload(webhook.Secret, body))

	resp, err := n.client.Do(req)
	if err != nil {
		return Result{Status: 0, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Result{Status: resp.StatusCode, Error: "HTTP " + resp.Status}
	}
	return Result{Status: resp.StatusCode}
}
