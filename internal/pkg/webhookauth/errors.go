package webhookauth

import "errors"

var (
	// ErrMissingMetadata reports that one of the id/timestamp/signature
	// values required for verification was not supplied with the request.
	ErrMissingMetadata = errors.New("missing webhook verification metadata")

	// ErrInvalidSignature reports that the supplied signature does not
	// match the one computed over the request body.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrTimestampSkew reports a timestamp outside the allowed skew
	// window. It wraps ErrInvalidSignature because the two are handled
	// identically at the HTTP layer (replayed and forged requests must be
	// indistinguishable to the sender).
	ErrTimestampSkew = errInvalidTimestamp{}
)

type errInvalidTimestamp struct{}

func (errInvalidTimestamp) Error() string { return "webhook timestamp outside allowed skew window" }
func (errInvalidTimestamp) Unwrap() error { return ErrInvalidSignature }
