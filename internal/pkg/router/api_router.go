package router

import (
	"net"
	"strconv"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/controllers"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/cache"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/env"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"
)

// ApiRouter exposes the authenticated user-facing API.
type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Storage: newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	v1.Get("/ping", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
	})

	authed := v1.Group("", middleware.APIKeyAuthMiddleware())

	authed.Get("/webhooks", controllers.HandleListWebhooks)
	authed.Post("/webhooks", controllers.HandleCreateWebhook)
	authed.Patch("/webhooks/:id", controllers.HandleUpdateWebhook)
	authed.Delete("/webhooks/:id", controllers.HandleDeleteWebhook)
	authed.Get("/webhooks/:id/logs", controllers.HandleListWebhookLogs)
	authed.Post("/webhooks/:id/test", controllers.HandleTestWebhook)

	authed.Get("/user/profile", controllers.HandleGetProfile)
	authed.Patch("/user/profile", controllers.HandleUpdateProfile)
	authed.Get("/user/subscription", controllers.HandleGetSubscription)
	authed.Post("/user/sync", controllers.HandleSyncUser)

	authed.Post("/keys", controllers.HandleCreateAPIKey)
	authed.Get("/keys", controllers.HandleListAPIKeys)
	authed.Delete("/keys/:id", controllers.HandleRevokeAPIKey)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances. Connection parameters come from the shared cache client,
// using a separate database to keep limiter keys out of the cache.
func newLimiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
