package identity

import (
	"encoding/json"
	"strings"
)

// EventKind is the closed set of identity lifecycle events we act on.
// Anything else parses to KindUnknown, which dispatch treats as a no-op so
// the provider can add event types without breaking the integration.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindUserCreated
	KindUserUpdated
	KindUserDeleted
)

// ParseEventKind maps the envelope type string onto the closed event set.
func ParseEventKind(eventType string) EventKind {
	switch strings.TrimSpace(eventType) {
	case "user.created":
		return KindUserCreated
	case "user.updated":
		return KindUserUpdated
	case "user.deleted":
		return KindUserDeleted
	default:
		return KindUnknown
	}
}

func (k EventKind) String() string {
	switch k {
	case KindUserCreated:
		return "user.created"
	case KindUserUpdated:
		return "user.updated"
	case KindUserDeleted:
		return "user.deleted"
	default:
		return "unknown"
	}
}

// Envelope is the {type, data} structure delivered by the identity
// provider. Data stays raw until the matched handler decodes it.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EmailAddress is one entry of the address set carried in user events.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
	Primary      bool   `json:"primary"`
}

// UserData is the payload of user.created / user.updated / user.deleted
// events. Deleted events only carry the id.
type UserData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
}

// PrimaryEmail returns the address flagged primary, or "" when the set has
// none. Records without a primary address are unusable and skipped.
func (d UserData) PrimaryEmail() string {
	for _, addr := range d.EmailAddresses {
		if addr.Primary {
			return strings.TrimSpace(addr.EmailAddress)
		}
	}
	return ""
}
