package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	var received CheckoutSessionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CheckoutSession{
			SessionID:   "cs_srv_1",
			CheckoutURL: "https://pay.example.com/cs_srv_1",
		})
	}))
	defer server.Close()

	client := NewProviderClient(server.URL, "sk_test_123")
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{
		AmountCents: 4999,
		Currency:    "USD",
		Metadata:    map[string]string{"user_id": "7", "course_id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_srv_1", session.SessionID)
	assert.Equal(t, "https://pay.example.com/cs_srv_1", session.CheckoutURL)
	assert.Equal(t, int64(4999), received.AmountCents)
	assert.Equal(t, "7", received.Metadata["user_id"])
}

func TestCreateCheckoutSessionProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewProviderClient(server.URL, "bad-key")
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{AmountCents: 100})
	assert.Error(t, err)
}

func TestCreateCheckoutSessionMissingSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewProviderClient(server.URL, "sk_test_123")
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{AmountCents: 100})
	assert.Error(t, err)
}
