package main

import (
	"fmt"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/controllers"
	"github.com/gmackie/clerk-stripe-starter-sub001/app/repository"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/cache"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/database"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/env"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/router"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/subscription"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/webhookauth"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	controllers.Setup(buildClerkVerifier(), buildStripeVerifier(), buildTierTable())

	app := fiber.New(fiber.Config{
		// Provider webhook bodies are small; a tight limit keeps the raw
		// body copy cheap.
		BodyLimit: 1 << 20, // 1 MiB
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// buildClerkVerifier resolves the identity-provider signing secret at the
// edge; the verifier itself never touches the environment.
func buildClerkVerifier() *webhookauth.ClerkVerifier {
	secret := env.GetEnv("CLERK_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Print("CLERK_WEBHOOK_SECRET not set, identity webhook endpoint disabled")
		return nil
	}
	verifier, err := webhookauth.NewClerkVerifier(secret)
	if err != nil {
		log.Fatalf("invalid CLERK_WEBHOOK_SECRET: %v", err)
	}
	return verifier
}

func buildStripeVerifier() *webhookauth.StripeVerifier {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Print("STRIPE_WEBHOOK_SECRET not set, billing webhook endpoint disabled")
		return nil
	}
	verifier, err := webhookauth.NewStripeVerifier(secret)
	if err != nil {
		log.Fatalf("invalid STRIPE_WEBHOOK_SECRET: %v", err)
	}
	return verifier
}

// buildTierTable maps configured billing price ids onto plan names.
func buildTierTable() subscription.TierTable {
	tiers := subscription.TierTable{}
	for priceEnv, tier := range map[string]subscription.Tier{
		"STRIPE_PRICE_ID_STARTER_MONTHLY":      subscription.TierStarter,
		"STRIPE_PRICE_ID_STARTER_YEARLY":       subscription.TierStarter,
		"STRIPE_PRICE_ID_PROFESSIONAL_MONTHLY": subscription.TierProfessional,
		"STRIPE_PRICE_ID_PROFESSIONAL_YEARLY":  subscription.TierProfessional,
		"STRIPE_PRICE_ID_ENTERPRISE_MONTHLY":   subscription.TierEnterprise,
		"STRIPE_PRICE_ID_ENTERPRISE_YEARLY":    subscription.TierEnterprise,
	} {
		if priceID := env.GetEnv(priceEnv, ""); priceID != "" {
			tiers[priceID] = tier
		}
	}
	return tiers
}
