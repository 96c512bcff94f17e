package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/database"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/notifier"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/registry"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/usercontext"
)

type createWebhookRequest struct {
	Service string   `json:"service"`
	URL     string   `json:"url"`
	Events  []string `json:"events"`
}

type updateWebhookRequest struct {
	Active *bool `json:"active"`
}

// webhookResponse is the owner-facing view of a registration. The secret is
// only present on the create response.
type webhookResponse struct {
	ID              string      `json:"id"`
	Service         string      `json:"service"`
	URL             string      `json:"url"`
	Events          []string    `json:"events"`
	Active          bool        `json:"active"`
	Secret          string      `json:"secret,omitempty"`
	LastTriggeredAt interface{} `json:"last_triggered_at"`
	LastStatus      int         `json:"last_status,omitempty"`
	CreatedAt       string      `json:"created_at"`
}

func toWebhookResponse(w *models.Webhook, includeSecret bool) webhookResponse {
	resp := webhookResponse{
		ID:              w.ID,
		Service:         w.Service,
		URL:             w.URL,
		Events:          []string(w.Events),
		Active:          w.Active,
		LastTriggeredAt: formatTimePtr(w.LastTriggeredAt),
		LastStatus:      w.LastStatus,
		CreatedAt:       w.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includeSecret {
		resp.Secret = w.Secret
	}
	return resp
}

// HandleListWebhooks returns all registrations owned by the caller.
func HandleListWebhooks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := registry.NewServiceFromDB(database.GetDB())
	webhooks, err := svc.List(requestContext(c), userCtx.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	out := make([]webhookResponse, 0, len(webhooks))
	for i := range webhooks {
		out = append(out, toWebhookResponse(&webhooks[i], false))
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// HandleCreateWebhook registers a new outbound webhook. The generated
// secret is returned exactly once in this response.
func HandleCreateWebhook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createWebhookRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	svc := registry.NewServiceFromDB(database.GetDB())
	webhook, err := svc.Create(requestContext(c), userCtx.UserID, req.Service, req.URL, req.Events)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toWebhookResponse(webhook, true))
}

// HandleUpdateWebhook toggles the active flag of an owned registration.
func HandleUpdateWebhook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateWebhookRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Body must contain an active flag"})
	}

	svc := registry.NewServiceFromDB(database.GetDB())
	webhook, err := svc.Update(requestContext(c), userCtx.UserID, c.Params("id"), *req.Active)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(toWebhookResponse(webhook, false))
}

// HandleDeleteWebhook removes an owned registration and its delivery logs.
func HandleDeleteWebhook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := registry.NewServiceFromDB(database.GetDB())
	if err := svc.Delete(requestContext(c), userCtx.UserID, c.Params("id")); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// HandleListWebhookLogs returns the most recent delivery log entries of an
// owned registration, payloads decoded into structured form.
func HandleListWebhookLogs(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := registry.NewServiceFromDB(database.GetDB())
	logs, err := svc.ListLogs(requestContext(c), userCtx.UserID, c.Params("id"), c.QueryInt("limit", registry.DefaultLogPageSize))
	if err != nil {
		return respondServiceError(c, err)
	}

	type logResponse struct {
		ID        string      `json:"id"`
		Event     string      `json:"event"`
		Payload   interface{} `json:"payload"`
		Status    int         `json:"status"`
		Error     string      `json:"error,omitempty"`
		Timestamp string      `json:"timestamp"`
	}
	out := make([]logResponse, 0, len(logs))
	for _, entry := range logs {
		var payload interface{}
		if len(entry.Payload) > 0 {
			_ = json.Unmarshal(entry.Payload, &payload)
		}
		out = append(out, logResponse{
			ID:        entry.ID,
			Event:     entry.Event,
			Payload:   payload,
			Status:    entry.Status,
			Error:     entry.Error,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"logs": out})
}

// HandleTestWebhook sends a signed test payload to an owned registration
// and records the attempt in its delivery log.
func HandleTestWebhook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := registry.NewServiceFromDB(database.GetDB())
	webhook, err := svc.Get(requestContext(c), userCtx.UserID, c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	n := notifier.New(svc)
	result, err := n.Deliver(requestContext(c), webhook, "test", fiber.Map{
		"message":    "This is a test webhook from your SaaS application",
		"webhook_id": webhook.ID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	message := "Test webhook sent successfully"
	if !result.Ok() {
		message = "Webhook delivery failed"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": result.Ok(),
		"status":  result.Status,
		"message": message,
	})
}

func requestContext(c *fiber.Ctx) context.Context {
	return c.UserContext()
}
