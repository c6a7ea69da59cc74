package payments

import (
	"encoding/json"
	"strconv"
)

// Event types delivered by the payment provider. Only checkout.completed is
// dispatched into reconciliation; everything else is acknowledged and ignored.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutExpired   = "checkout.expired"
	EventPaymentFailed     = "payment.failed"
)

// PaymentEvent is a verified provider event. It is transient input, never
// persisted by the reconciliation core. Redeliveries of the same logical
// event carry fresh event ids, so idempotency is keyed on SessionID.
type PaymentEvent struct {
	ID        string
	Type      string
	CreatedAt int64
	SessionID string
	UserID    uint
	CourseID  uint
	Raw       json.RawMessage
}

// eventEnvelope is the wire shape of a provider webhook body.
type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		SessionID string            `json:"session_id"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

func parseEvent(payload []byte) (*PaymentEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, ErrMalformedPayload
	}
	if env.ID == "" || env.Type == "" {
		return nil, ErrMalformedPayload
	}

	ev := &PaymentEvent{
		ID:        env.ID,
		Type:      env.Type,
		CreatedAt: env.Created,
		SessionID: env.Data.SessionID,
		Raw:       json.RawMessage(payload),
	}

	// Correlation fields are mandatory only on the event type that feeds
	// reconciliation.
	if env.Type == EventCheckoutCompleted {
		userID, okUser := parseUintField(env.Data.Metadata, "user_id")
		courseID, okCourse := parseUintField(env.Data.Metadata, "course_id")
		if env.Data.SessionID == "" || !okUser || !okCourse {
			return nil, ErrMissingMetadata
		}
		ev.UserID = userID
		ev.CourseID = courseID
	}

	return ev, nil
}

func parseUintField(metadata map[string]string, key string) (uint, bool) {
	raw, ok := metadata[key]
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
