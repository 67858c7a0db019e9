package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"racereg/internal/orders"
)

// ErrGatewayUnavailable is returned for transport-level gateway failures.
// It is transient and safe to retry; no order state is mutated.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Client talks to the payment gateway. Implementations must not mutate
// order state; reconciliation owns that.
type Client interface {
	CreateSession(ctx context.Context, order *orders.Order) (string, error)
	GetStatus(ctx context.Context, orderNumber string) (*StatusReport, error)
}

// ClientConfig holds gateway connection settings.
type ClientConfig struct {
	BaseURL   string
	ServerKey string
	Timeout   time.Duration
}

type httpClient struct {
	baseURL   string
	serverKey string
	hc        *http.Client
}

// NewClient creates an HTTP gateway client.
func NewClient(cfg ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey,
		hc:        &http.Client{Timeout: timeout},
	}
}

type sessionRequest struct {
	TransactionDetails struct {
		OrderID     string  `json:"order_id"`
		GrossAmount float64 `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"customer_details"`
}

// CreateSession opens a payment session for the order and returns the
// session token the client uses to complete payment.
func (c *httpClient) CreateSession(ctx context.Context, order *orders.Order) (string, error) {
	var payload sessionRequest
	payload.TransactionDetails.OrderID = order.OrderNumber
	payload.TransactionDetails.GrossAmount = order.TotalPrice

	customer := order.Customer()
	payload.CustomerDetails.FirstName = customer.Name
	payload.CustomerDetails.Email = customer.Email
	payload.CustomerDetails.Phone = customer.Phone

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: create session returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("%w: failed to decode session response: %v", ErrGatewayUnavailable, err)
	}
	return session.Token, nil
}

// GetStatus pulls the current transaction status for an order number.
func (c *httpClient) GetStatus(ctx context.Context, orderNumber string) (*StatusReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v2/%s/status", c.baseURL, orderNumber), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, orders.ErrOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status check returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var report StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("%w: failed to decode status response: %v", ErrGatewayUnavailable, err)
	}
	return &report, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
