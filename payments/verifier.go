package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Verification errors. All are permanent: the provider must not retry a
// delivery that failed verification.
var (
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrMalformedPayload = errors.New("webhook payload malformed")
	ErrMissingMetadata  = errors.New("webhook event missing correlation metadata")
)

// DefaultTolerance bounds the age of a signed timestamp before the
// signature is considered stale.
const DefaultTolerance = 5 * time.Minute

// Verifier validates that a webhook delivery genuinely originates from the
// payment provider. Verification is pure: it never touches persisted state,
// so a forged payload can never cause a store call.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	nowFunc   func() time.Time
}

// NewVerifier creates a Verifier for the given shared webhook secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		nowFunc:   time.Now,
	}
}

// Verify checks the signature header against the raw payload and parses the
// event. The header carries a timestamped HMAC in the form
// "t=<unix>,v1=<hex hmac-sha256 of '<unix>.<payload>'>".
func (v *Verifier) Verify(payload []byte, sigHeader string) (*PaymentEvent, error) {
	if len(v.secret) == 0 {
		return nil, ErrInvalidSignature
	}

	timestamp, signature, err := splitSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := v.nowFunc().Unix() - timestamp
	if age < 0 {
		age = -age
	}
	if time.Duration(age)*time.Second > v.tolerance {
		return nil, ErrInvalidSignature
	}

	expected := computeSignature(v.secret, timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	return parseEvent(payload)
}

func splitSignatureHeader(header string) (int64, string, error) {
	var timestamp int64
	var signature string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signature = value
		}
	}

	if timestamp == 0 || signature == "" {
		return 0, "", ErrInvalidSignature
	}
	return timestamp, signature, nil
}

func computeSignature(secret []byte, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload produces a signature header for the given payload. Used by the
// provider simulator and tests; the server side only ever verifies.
func SignPayload(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, computeSignature([]byte(secret), timestamp, payload))
}
