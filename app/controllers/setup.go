package controllers

import (
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/subscription"
	"github.com/gmackie/clerk-stripe-starter-sub001/internal/pkg/webhookauth"
)

// Wiring installed once at startup. Provider secrets are resolved at the
// edge and injected here so verifiers stay pure and testable.
var (
	clerkVerifier  *webhookauth.ClerkVerifier
	stripeVerifier *webhookauth.StripeVerifier
	tierTable      subscription.TierTable
)

// Setup installs the verifier and tier configuration used by the webhook
// and subscription controllers.
func Setup(clerk *webhookauth.ClerkVerifier, stripe *webhookauth.StripeVerifier, tiers subscription.TierTable) {
	clerkVerifier = clerk
	stripeVerifier = stripe
	tierTable = tiers
}
