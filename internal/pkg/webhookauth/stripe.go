package webhookauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StripeVerifier validates billing-provider webhooks signed with the
// Stripe-Signature scheme: a header of the form "t=<unix>,v1=<hex>[,...]"
// where v1 is HMAC-SHA256 over "{t}.{body}".
type StripeVerifier struct {
	key  []byte
	skew time.Duration
	now  func() time.Time
}

// NewStripeVerifier creates a verifier for the given endpoint secret,
// enforcing the default skew window.
func NewStripeVerifier(secret string) (*StripeVerifier, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, fmt.Errorf("webhook signing secret is empty")
	}
	return &StripeVerifier{key: []byte(trimmed), skew: DefaultSkewWindow, now: time.Now}, nil
}

// WithSkewWindow overrides the replay skew window. A zero window disables
// the timestamp check.
func (v *StripeVerifier) WithSkewWindow(window time.Duration) *StripeVerifier {
	v.skew = window
	return v
}

// Verify checks the signature header over the exact raw body bytes.
func (v *StripeVerifier) Verify(header string, body []byte) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingMetadata
	}

	var timestamp string
	var sawSignature bool
	var candidates [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			sawSignature = true
			if decoded, err := hex.DecodeString(value); err == nil {
				candidates = append(candidates, decoded)
			}
		}
	}
	if timestamp == "" || !sawSignature {
		return ErrMissingMetadata
	}
	// A v1 entry that is present but not valid hex is a bad signature, not
	// a missing one.
	if len(candidates) == 0 {
		return ErrInvalidSignature
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
	fmt.Fprintf(mac, "%s.", timestamp)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		if hmac.Equal(expected, candidate) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign builds a complete Stripe-Signature header value for the body at the
// given timestamp. Used by tests.
func (v *StripeVerifier) Sign(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.", timestamp)
	mac.Write(body)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
