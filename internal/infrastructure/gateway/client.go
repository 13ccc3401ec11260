package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
	"github.com/MartinaC181/MiGymApp-sub000/internal/reliability/circuitbreaker"
	"github.com/MartinaC181/MiGymApp-sub000/internal/reliability/retry"
)

const checkoutPath = "/checkout/preferences"

// ErrRejected is returned when the gateway answers with a 4xx status
var ErrRejected = errors.New("payment gateway rejected the checkout")

// ErrUnavailable is returned when the gateway cannot be reached or keeps failing
var ErrUnavailable = errors.New("payment gateway unavailable")

// Client creates hosted checkouts over the gateway's HTTP API with retry and
// circuit breaker protection
type Client struct {
	baseURL        string
	token          string
	currency       string
	http           *http.Client
	logger         *slog.Logger
	retryConfig    *retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryConfig overrides retry.DefaultConfig
func WithRetryConfig(cfg *retry.Config) Option {
	return func(c *Client) { c.retryConfig = cfg }
}

// WithCurrency sets the ISO currency sent with each item (default ARS)
func WithCurrency(code string) Option {
	return func(c *Client) { c.currency = code }
}

// NewClient creates a gateway client for baseURL authenticated with token
func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		currency: "ARS",
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:         logger,
		retryConfig:    retry.DefaultConfig(),
		circuitBreaker: circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.circuitBreaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("payment gateway circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return c
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference,omitempty"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreateCheckout registers a one-item checkout and returns the redirect URL
// the client should open. Gateway-side payment status is never inspected.
func (c *Client) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if req.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrRejected)
	}
	body, err := json.Marshal(preferenceRequest{
		Items: []preferenceItem{{
			Title:      req.Description,
			Quantity:   1,
			UnitPrice:  req.Amount,
			CurrencyID: c.currency,
		}},
		ExternalReference: req.Reference,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout: %w", err)
	}

	var url string
	err = c.circuitBreaker.Execute(func() error {
		var callErr error
		url, callErr = retry.Do(ctx, c.retryConfig, c.logger, "CreateCheckout", func(ctx context.Context) (string, error) {
			return c.post(ctx, body)
		})
		return callErr
	}, func(err error) bool { return !errors.Is(err, ErrRejected) })

	switch {
	case err == nil:
		metrics.ObserveGatewayCall("ok")
		return url, nil
	case errors.Is(err, circuitbreaker.ErrOpen):
		metrics.ObserveGatewayCall("open")
		return "", fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
	case errors.Is(err, ErrRejected):
		metrics.ObserveGatewayCall("rejected")
		return "", err
	default:
		metrics.ObserveGatewayCall("error")
		c.logger.Error("checkout creation failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutPath, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", retry.Permanent(fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var pref preferenceResponse
	if err := json.Unmarshal(raw, &pref); err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to decode gateway response: %w", err))
	}
	if pref.InitPoint == "" {
		return "", retry.Permanent(errors.New("gateway response carried no init_point"))
	}
	return pref.InitPoint, nil
}
