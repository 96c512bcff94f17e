package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/apperr"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/database"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/notifier"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/registry"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/subscription"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/webhookauth"
)

// HandleStripeWebhook ingests billing-provider events and applies them to
// the persisted subscription state. Events for customers we never linked
// are acknowledged and ignored, the provider must not keep redelivering
// them.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))

	if stripeVerifier == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "not_configured"})
	}
	if err := stripeVerifier.Verify(signature, rawBody); err != nil {
		if errors.Is(err, webhookauth.ErrMissingMetadata) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_metadata"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	envelope, err := subscription.ParseStripeEnvelope(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	events := repository.GetGlobalRepositories().ProviderEvent
	created, stored, err := events.CreateIfNotExists(&models.ProviderEvent{
		Provider:        models.ProviderStripe,
		ProviderEventID: envelope.ID,
		EventType:       envelope.Type,
		Payload:         models.JSONPayload(rawBody),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created && stored.Processed() {
		// Only events whose handler completed are acknowledged as
		// duplicates; failed or unprocessed ones run again on retry.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	}

	handleErr := applyStripeEvent(ctx, envelope)
	markProcessed(events, stored.ID, handleErr)

	if handleErr != nil {
		if errors.Is(handleErr, apperr.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "handler_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func applyStripeEvent(ctx context.Context, envelope subscription.StripeEnvelope) error {
	svc := subscription.NewServiceFromDB(database.GetDB(), tierTable)

	switch envelope.Type {
	case subscription.StripeEventCheckoutCompleted:
		session, err := subscription.ParseCheckoutSession(envelope.Data.Object)
		if err != nil {
			return err
		}
		if session.Mode != "subscription" || session.ClientReferenceID == "" || session.Customer == "" {
			return nil
		}
		userID, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
		if err != nil {
			return nil
		}
		if err := svc.LinkStripeCustomer(ctx, uint(userID), session.Customer); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		}
		return nil

	case subscription.StripeEventSubscriptionCreated, subscription.StripeEventSubscriptionUpdated:
		sub, err := subscription.ParseStripeSubscription(envelope.Data.Object)
		if err != nil {
			return err
		}
		user, err := svc.ResolveUserByCustomer(ctx, sub.Customer)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := svc.SetSubscription(ctx, user.ID, sub.ID, sub.PriceID(), sub.Status, sub.PeriodEnd()); err != nil {
			return err
		}
		fanoutSubscriptionEvent(ctx, user.ID, "subscription.updated", fiber.Map{
			"subscription_id": sub.ID,
			"status":          sub.Status,
			"price_id":        sub.PriceID(),
		})
		return nil

	case subscription.StripeEventSubscriptionDeleted:
		sub, err := subscription.ParseStripeSubscription(envelope.Data.Object)
		if err != nil {
			return err
		}
		user, err := svc.ResolveUserByCustomer(ctx, sub.Customer)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := svc.SetStatus(ctx, user.ID, models.SubscriptionStatusCanceled); err != nil {
			return err
		}
		fanoutSubscriptionEvent(ctx, user.ID, "subscription.canceled", fiber.Map{
			"subscription_id": sub.ID,
		})
		return nil

	default:
		// Unknown billing event types are acknowledged untouched.
		return nil
	}
}

func fanoutSubscriptionEvent(ctx context.Context, userID uint, eventType string, data interface{}) {
	n := notifier.New(registry.NewServiceFromDB(database.GetDB()))
	n.Fanout(ctx, userID, eventType, data)
}
