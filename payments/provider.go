package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ProviderClient talks to the payment provider's REST API to open hosted
// checkout sessions. Webhook deliveries flow back through the Verifier and
// Reconciler; this client never mutates local state.
type ProviderClient struct {
	http *resty.Client
}

// NewProviderClient configures a client for the provider API.
func NewProviderClient(baseURL, apiKey string) *ProviderClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second).
		SetRetryCount(2)

	return &ProviderClient{http: client}
}

// CheckoutSessionRequest describes a hosted checkout to open.
type CheckoutSessionRequest struct {
	AmountCents     int64             `json:"amount_cents"`
	Currency        string            `json:"currency"`
	Description     string            `json:"description"`
	ClientReference string            `json:"client_reference"`
	Metadata        map[string]string `json:"metadata"`
	SuccessURL      string            `json:"success_url"`
	CancelURL       string            `json:"cancel_url"`
}

// CheckoutSession is the provider's handle for a hosted checkout. SessionID
// is the correlation key webhook events are reconciled against.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

// CreateCheckoutSession opens a hosted checkout session with the provider.
func (c *ProviderClient) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	var session CheckoutSession

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&session).
		Post("/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create checkout session: provider returned %s", resp.Status())
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("create checkout session: provider response missing session_id")
	}

	return &session, nil
}
