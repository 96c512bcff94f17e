package webhookauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignOutboundPayload computes the hex HMAC-SHA256 signature we attach to
// deliveries against user-registered webhooks (X-Webhook-Signature).
func SignOutboundPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
