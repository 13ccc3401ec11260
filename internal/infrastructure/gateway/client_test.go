package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/logger"
	"github.com/MartinaC181/MiGymApp-sub000/internal/reliability/retry"
)

func fastRetry() Option {
	return WithRetryConfig(&retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1})
}

func TestCreateCheckoutReturnsInitPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, checkoutPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body preferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "Cuota mensual", body.Items[0].Title)
		assert.Equal(t, 15000.0, body.Items[0].UnitPrice)
		assert.Equal(t, "pay-1", body.ExternalReference)

		_ = json.NewEncoder(w).Encode(preferenceResponse{ID: "pref-1", InitPoint: "https://gateway.example/checkout/pref-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", logger.Discard(), fastRetry())
	url, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{Description: "Cuota mensual", Amount: 15000, Reference: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/checkout/pref-1", url)
}

func TestCreateCheckoutRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(preferenceResponse{InitPoint: "https://gateway.example/ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logger.Discard(), fastRetry())
	url, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{Description: "x", Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/ok", url)
	assert.EqualValues(t, 3, calls.Load())
}

func TestCreateCheckoutDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"invalid unit_price"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logger.Discard(), fastRetry())
	_, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{Description: "x", Amount: 1})
	require.ErrorIs(t, err, ErrRejected)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCreateCheckoutOpensBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logger.Discard(), WithRetryConfig(&retry.Config{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}))
	for i := 0; i < 5; i++ {
		_, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{Description: "x", Amount: 1})
		require.ErrorIs(t, err, ErrUnavailable)
	}
	_, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{Description: "x", Amount: 1})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestCreateCheckoutRejectsNonPositiveAmount(t *testing.T) {
	c := NewClient("http://unused.invalid", "", logger.Discard())
	_, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{Description: "x"})
	assert.True(t, errors.Is(err, ErrRejected))
}
