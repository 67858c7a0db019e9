package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRateLimitConfig() *Config {
	return &Config{
		Enabled:          true,
		WindowDuration:   time.Minute,
		DefaultRequests:  60,
		PublicRequests:   120,
		PurchaseRequests: 10,
		WebhookRequests:  300,
		AdminRequests:    30,
		HealthRequests:   600,
	}
}

func TestGetLimitPerType(t *testing.T) {
	limiter := NewRateLimiter(nil, testRateLimitConfig())

	assert.Equal(t, 120, limiter.getLimit(RateLimitTypePublic))
	assert.Equal(t, 10, limiter.getLimit(RateLimitTypePurchase))
	assert.Equal(t, 300, limiter.getLimit(RateLimitTypeWebhook))
	assert.Equal(t, 30, limiter.getLimit(RateLimitTypeAdmin))
	assert.Equal(t, 600, limiter.getLimit(RateLimitTypeHealth))
	assert.Equal(t, 60, limiter.getLimit(RateLimitTypeDefault))
	assert.Equal(t, 60, limiter.getLimit(RateLimitType("unknown")))
}

func TestIsAllowedWhenDisabled(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.Enabled = false
	limiter := NewRateLimiter(nil, cfg)

	result, err := limiter.IsAllowed(context.Background(), "203.0.113.10", RateLimitTypePurchase)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 10, result.Limit)
	assert.Equal(t, 10, result.Remaining)
}

func TestGetRateLimitTypeRouting(t *testing.T) {
	tests := []struct {
		path   string
		method string
		want   RateLimitType
	}{
		{"/health", http.MethodGet, RateLimitTypeHealth},
		{"/ping", http.MethodGet, RateLimitTypeHealth},
		{"/api/v1/admin/tickets", http.MethodPost, RateLimitTypeAdmin},
		{"/api/v1/payments/notifications", http.MethodPost, RateLimitTypeWebhook},
		{"/api/v1/orders", http.MethodPost, RateLimitTypePurchase},
		{"/api/v1/payments/orders/:number/check", http.MethodPost, RateLimitTypePurchase},
		{"/api/v1/tickets", http.MethodGet, RateLimitTypePublic},
		{"/api/v1/orders/:orderNumber", http.MethodGet, RateLimitTypePublic},
		{"/api/v1/something-else", http.MethodGet, RateLimitTypeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, getRateLimitType(tt.path, tt.method))
		})
	}
}
