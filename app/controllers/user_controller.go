package controllers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/database"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/subscription"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/usercontext"
)

// HandleGetProfile returns the caller's identity record. Soft-deleted
// records remain readable; the deleted flag is part of the response.
func HandleGetProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := subscription.NewServiceFromDB(database.GetDB(), tierTable)
	user, err := svc.GetByID(requestContext(c), userCtx.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(profileResponse(user))
}

// HandleUpdateProfile updates the caller's display name. Email and the
// external identity id are owned by the identity provider and cannot be
// edited here.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	repos := repository.GetGlobalRepositories()
	svc := subscription.NewServiceFromDB(database.GetDB(), tierTable)
	user, err := svc.GetByID(requestContext(c), userCtx.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	user.Name = strings.TrimSpace(req.Name)
	if err := repos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update profile"})
	}
	return c.Status(fiber.StatusOK).JSON(profileResponse(user))
}

// HandleGetSubscription returns the caller's subscription state and the
// plan derived from the static tier table.
func HandleGetSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := subscription.NewServiceFromDB(database.GetDB(), tierTable)
	user, err := svc.GetByID(requestContext(c), userCtx.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription_id":    user.SubscriptionID,
		"status":             user.SubscriptionStatus,
		"price_id":           user.PriceID,
		"current_period_end": formatTimePtr(user.CurrentPeriodEnd),
		"tier":               svc.TierForUser(requestContext(c), user),
		"entitled":           user.IsEntitled(),
	})
}

// HandleSyncUser upserts the caller's identity record from their own
// authenticated claims. It races safely with webhook-driven creation: both
// paths key the insert on the unique external identity id.
func HandleSyncUser(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repos := repository.GetGlobalRepositories()
	user := &models.User{
		ClerkID:  userCtx.ClerkID,
		Email:    userCtx.Email,
		IsActive: true,
	}
	if err := repos.User.Upsert(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to sync user"})
	}
	return c.Status(fiber.StatusOK).JSON(profileResponse(user))
}

func profileResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":         user.ID,
		"clerk_id":   user.ClerkID,
		"email":      user.Email,
		"name":       user.Name,
		"is_active":  user.IsActive,
		"deleted":    user.DeletedAt != nil,
		"deleted_at": formatTimePtr(user.DeletedAt),
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
