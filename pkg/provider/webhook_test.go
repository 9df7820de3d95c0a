package provider_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/provider"
)

func TestWebhookProviderDelivers(t *testing.T) {
	t.Parallel()

	const secret = "gateway-secret"
	var received notify.DeliveryRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		ts, err := strconv.ParseInt(r.Header.Get("X-Webhook-Timestamp"), 10, 64)
		require.NoError(t, err)
		headers := provider.SignatureHeaders{
			Signature: r.Header.Get("X-Webhook-Signature"),
			Timestamp: ts,
			ID:        r.Header.Get("X-Webhook-ID"),
		}
		require.NoError(t, provider.VerifySignature(secret, body, headers, time.Minute),
			"gateway must be able to verify the delivery")

		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := provider.NewWebhookProvider(provider.WebhookConfig{URL: srv.URL, Secret: secret})
	req := testRequest()

	assert.True(t, p.Send(context.Background(), req))
	assert.Equal(t, req.UserID, received.UserID)
	assert.Equal(t, req.Title, received.Title)
}

func TestWebhookProviderRejectedByGateway(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := provider.NewWebhookProvider(provider.WebhookConfig{URL: srv.URL, Secret: "s"})
	assert.False(t, p.Send(context.Background(), testRequest()))
}

func TestWebhookProviderUnreachableGateway(t *testing.T) {
	t.Parallel()

	p := provider.NewWebhookProvider(
		provider.WebhookConfig{URL: "http://127.0.0.1:1", Secret: "s"},
		provider.WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}),
	)
	assert.False(t, p.Send(context.Background(), testRequest()))
}

func TestWebhookProviderAvailability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.False(t, provider.NewWebhookProvider(provider.WebhookConfig{}).Available(ctx))
	assert.False(t, provider.NewWebhookProvider(provider.WebhookConfig{URL: "http://gw"}).Available(ctx))
	assert.True(t, provider.NewWebhookProvider(provider.WebhookConfig{URL: "http://gw", Secret: "s"}).Available(ctx))
	assert.Equal(t, "webhook", provider.NewWebhookProvider(provider.WebhookConfig{}).Name())
}

func TestWebhookProviderHonorsContext(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	p := provider.NewWebhookProvider(provider.WebhookConfig{URL: srv.URL, Secret: "s"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.False(t, p.Send(ctx, testRequest()))
	assert.Less(t, time.Since(start), time.Second)
}
