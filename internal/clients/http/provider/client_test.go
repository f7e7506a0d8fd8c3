package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydbloom/commerce-api/internal/clients/http/provider"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

func TestCreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2599", r.PostFormValue("amount"))
		assert.Equal(t, "usd", r.PostFormValue("currency"))
		assert.Equal(t, "12", r.PostFormValue("metadata[order_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret"}`))
	}))
	defer server.Close()

	client, err := provider.NewClient(server.URL, "sk_test_key", server.Client())
	require.NoError(t, err)

	intent, err := client.CreateIntent(context.Background(), ports.ChargeRequest{
		OrderID:  12,
		Amount:   decimal.RequireFromString("25.99"),
		Currency: "usd",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
}

func TestCreateIntentProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer server.Close()

	client, err := provider.NewClient(server.URL, "sk_test_key", server.Client())
	require.NoError(t, err)

	_, err = client.CreateIntent(context.Background(), ports.ChargeRequest{
		OrderID:  12,
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestNewClientValidation(t *testing.T) {
	_, err := provider.NewClient("", "sk_test_key", nil)
	assert.Error(t, err)

	_, err = provider.NewClient("https://api.example.com", " ", nil)
	assert.Error(t, err)
}

func TestCreateIntentRequiresOrder(t *testing.T) {
	client, err := provider.NewClient("https://api.example.com", "sk_test_key", nil)
	require.NoError(t, err)

	_, err = client.CreateIntent(context.Background(), ports.ChargeRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})
	assert.Error(t, err)
}
