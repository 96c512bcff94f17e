package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/database"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/identity"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/webhookauth"
)

// HandleClerkWebhook ingests identity-provider events. The body is read as
// raw bytes before any parsing so the signature covers the exact wire
// payload. Responses stay minimal: this endpoint is reachable by anyone and
// must not leak internals to a probing sender.
func HandleClerkWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	msgID := strings.TrimSpace(c.Get("svix-id"))
	timestamp := strings.TrimSpace(c.Get("svix-timestamp"))
	signature := strings.TrimSpace(c.Get("svix-signature"))

	if clerkVerifier == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "not_configured"})
	}
	if err := clerkVerifier.Verify(msgID, timestamp, signature, rawBody); err != nil {
		if errors.Is(err, webhookauth.ErrMissingMetadata) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_metadata"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var envelope identity.Envelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil || strings.TrimSpace(envelope.Type) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	events := repository.GetGlobalRepositories().ProviderEvent
	created, stored, err := events.CreateIfNotExists(&models.ProviderEvent{
		Provider:        models.ProviderClerk,
		ProviderEventID: msgID,
		EventType:       envelope.Type,
		Payload:         models.JSONPayload(rawBody),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created && stored.Processed() {
		// Redelivery of an event that was already applied: acknowledge
		// without running the handler again. Events whose handler failed
		// (or never ran) fall through so the retry can complete them.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	}

	dispatcher := identity.NewDispatcherFromDB(database.GetDB())
	dispatchErr := dispatcher.Dispatch(ctx, envelope)
	markProcessed(events, stored.ID, dispatchErr)

	if dispatchErr != nil {
		if errors.Is(dispatchErr, apperr.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		}
		// Retryable: the provider redelivers on 5xx.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "handler_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func markProcessed(events repository.ProviderEventRepository, eventID uint, processingErr error) {
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	_ = events.MarkProcessed(eventID, msg)
}
