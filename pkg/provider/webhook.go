package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yapplr/notify"
)

// WebhookConfig configures the webhook provider.
type WebhookConfig struct {
	// URL is the push gateway endpoint deliveries are POSTed to.
	URL string `env:"WEBHOOK_URL"`

	// Secret signs every delivery. Required when URL is set.
	Secret string `env:"WEBHOOK_SECRET"`
}

// WebhookProvider POSTs delivery requests to a push gateway as signed
// JSON. Any 2xx response counts as delivered.
type WebhookProvider struct {
	cfg    WebhookConfig
	client *http.Client
	log    *slog.Logger
}

// WebhookOption configures the provider.
type WebhookOption func(*WebhookProvider)

// WithHTTPClient overrides the pooled default client. Used in tests
// and for custom transports.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(p *WebhookProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithWebhookLogger attaches a logger for delivery diagnostics.
func WithWebhookLogger(log *slog.Logger) WebhookOption {
	return func(p *WebhookProvider) {
		if log != nil {
			p.log = log
		}
	}
}

// NewWebhookProvider creates the provider. With an empty URL it simply
// reports unavailable, so wiring it unconditionally is safe.
func NewWebhookProvider(cfg WebhookConfig, opts ...WebhookOption) *WebhookProvider {
	p := &WebhookProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second, // the manager enforces the tighter per-attempt bound
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WebhookProvider) Name() string {
	return "webhook"
}

func (p *WebhookProvider) Available(ctx context.Context) bool {
	return p.cfg.URL != "" && p.cfg.Secret != ""
}

func (p *WebhookProvider) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	payload, err := json.Marshal(req)
	if err != nil {
		p.log.ErrorContext(ctx, "webhook payload marshal failed", slog.Any("error", err))
		return false
	}

	sig, err := SignPayload(p.cfg.Secret, payload)
	if err != nil {
		p.log.ErrorContext(ctx, "webhook signing failed", slog.Any("error", err))
		return false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for name, value := range sig.Headers() {
		httpReq.Header.Set(name, value)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.log.DebugContext(ctx, "webhook delivery failed", slog.Any("error", err))
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.DebugContext(ctx, "webhook delivery rejected",
			slog.Int("status", resp.StatusCode),
		)
		return false
	}
	return true
}
