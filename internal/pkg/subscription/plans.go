package subscription

import "strings"

// Tier is a human-facing plan resolved from a billing price id.
type Tier string

const (
	TierFree         Tier = "free"
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// TierTable maps provider price ids onto plan names. The mapping is static
// configuration; the derived tier is never stored on the user record, it is
// recomputed on read so a price change in config takes effect immediately.
type TierTable map[string]Tier

// TierForPrice resolves a price id, defaulting to the free tier for an
// empty or unmapped id.
func (t TierTable) TierForPrice(priceID string) Tier {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return TierFree
	}
	if tier, ok := t[priceID]; ok {
		return tier
	}
	return TierFree
}
