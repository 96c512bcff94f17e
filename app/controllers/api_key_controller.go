package controllers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/usercontext"
)

// HandleCreateAPIKey issues a new API key for the caller. The raw key
// appears only in this response; afterwards only its hash exists.
func HandleCreateAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Key name is required"})
	}

	raw, hash, prefix, err := models.GenerateAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate key"})
	}

	key := &models.APIKey{
		ID:      uuid.NewString(),
		UserID:  userCtx.UserID,
		Name:    strings.TrimSpace(req.Name),
		KeyHash: hash,
		Prefix:  prefix,
	}
	if err := key.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid key name"})
	}
	if err := repository.GetGlobalRepositories().APIKey.Create(key); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store key"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         key.ID,
		"name":       key.Name,
		"key":        raw,
		"created_at": key.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// HandleListAPIKeys lists the caller's keys, masked to their prefix.
func HandleListAPIKeys(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	keys, err := repository.GetGlobalRepositories().APIKey.ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list keys"})
	}

	type keyResponse struct {
		ID         string      `json:"id"`
		Name       string      `json:"name"`
		Prefix     string      `json:"prefix"`
		LastUsedAt interface{} `json:"last_used_at"`
		Revoked    bool        `json:"revoked"`
		CreatedAt  string      `json:"created_at"`
	}
	out := make([]keyResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyResponse{
			ID:         key.ID,
			Name:       key.Name,
			Prefix:     key.Prefix,
			LastUsedAt: formatTimePtr(key.LastUsedAt),
			Revoked:    key.IsRevoked(),
			CreatedAt:  key.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// HandleRevokeAPIKey revokes an owned key. Revoking a key of another user
// reports not found.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	matched, err := repository.GetGlobalRepositories().APIKey.Revoke(c.Params("id"), userCtx.UserID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to revoke key"})
	}
	if matched == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
