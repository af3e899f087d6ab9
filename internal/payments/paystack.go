package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"intake/internal/metrics"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultPaystackBaseURL = "https://api.paystack.co"

	// PlaceholderSecretKey is the value shipped in sample configs. A deployment
	// still carrying it is unconfigured.
	PlaceholderSecretKey = "sk_test_YOUR_ACTUAL_SECRET_KEY_HERE"
)

// IsPlaceholderSecret reports whether key is empty or the sample value.
func IsPlaceholderSecret(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || key == PlaceholderSecretKey
}

type PaystackAdapter struct {
	SecretKey string
	BaseURL   string
	client    *resty.Client
}

// NewPaystackAdapter builds a verifier for the Paystack transaction API. A
// zero timeout leaves the http client default in place.
func NewPaystackAdapter(secret, baseURL string, timeout time.Duration) *PaystackAdapter {
	return NewPaystackAdapterWithClient(secret, baseURL, timeout, &http.Client{})
}

func NewPaystackAdapterWithClient(secret, baseURL string, timeout time.Duration, hc *http.Client) *PaystackAdapter {
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetAuthToken(secret).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &PaystackAdapter{
		SecretKey: secret,
		BaseURL:   baseURL,
		client:    client,
	}
}

func (p *PaystackAdapter) Verify(ctx context.Context, reference string) (*Verification, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		Get("/transaction/verify/{reference}")
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("paystack", metrics.StatusClass(0)).Inc()
		return nil, fmt.Errorf("paystack verify request: %w", err)
	}
	metrics.ProviderRequests.WithLabelValues("paystack", metrics.StatusClass(resp.StatusCode())).Inc()

	out := &Verification{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}

	var payload VerifyResponse
	if err := json.Unmarshal(out.Body, &payload); err != nil {
		out.ParseErr = fmt.Errorf("paystack verify decode: http=%d err=%w", out.StatusCode, err)
		return out, nil
	}
	out.Payload = &payload

	return out, nil
}
