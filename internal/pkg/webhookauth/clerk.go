package webhookauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSkewWindow is the allowed clock drift between the sender's
// timestamp and our clock. Requests outside the window are rejected as
// replays. Five minutes matches common provider guidance.
const DefaultSkewWindow = 5 * time.Minute

// ClerkVerifier validates identity-provider webhooks signed with the
// timestamped HMAC scheme: HMAC-SHA256 over "{id}.{timestamp}.{body}" with
// a whsec_-prefixed base64 secret, delivered as space-separated
// "v1,<base64 signature>" entries.
//
// The secret is injected explicitly so tests can run with fixtures; the
// verifier never reads process environment itself.
type ClerkVerifier struct {
	key  []byte
	skew time.Duration
	// now is swappable for tests.
	now func() time.Time
}

// NewClerkVerifier creates a verifier from a whsec_-prefixed or raw base64
// secret, enforcing the default skew window.
func NewClerkVerifier(secret string) (*ClerkVerifier, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(secret), "whsec_")
	if trimmed == "" {
		return nil, fmt.Errorf("webhook signing secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("webhook signing secret is not valid base64: %w", err)
	}
	return &ClerkVerifier{key: key, skew: DefaultSkewWindow, now: time.Now}, nil
}

// WithSkewWindow overrides the replay skew window. A zero window disables
// the timestamp check.
func (v *ClerkVerifier) WithSkewWindow(window time.Duration) *ClerkVerifier {
	v.skew = window
	return v
}

// Verify checks the request signature over the exact raw body bytes. It is
// a pure function of its inputs plus the configured secret; no state is
// kept between calls.
func (v *ClerkVerifier) Verify(msgID, timestamp, signatures string, body []byte) error {
	msgID = strings.TrimSpace(msgID)
	timestamp = strings.TrimSpace(timestamp)
	signatures = strings.TrimSpace(signatures)
	if msgID == "" || timestamp == "" || signatures == "" {
		return ErrMissingMetadata
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrTimestampSkew
	}
	if v.skew > 0 {
		drift := v.now().Sub(time.Unix(ts, 0))
		if drift > v.skew || drift < -v.skew {
			return ErrTimestampSkew
		}
	}

	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(body)
	expected := mac.Sum(nil)

	// The signature header may carry several space-separated versioned
	// entries; any matching v1 entry authenticates the request.
	for _, entry := range strings.Fields(signatures) {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the v1 signature for the given message. Used by tests and
// by the local provider simulator.
func (v *ClerkVerifier) Sign(msgID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
