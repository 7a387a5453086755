// Package api is the HTTP client for the external order API. It owns
// the wire shapes, the Device auth header, and the translation of
// transport failures into the shared error taxonomy. Everything above
// it (cart, session) is network-free.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tapstand/kiosk/core"
)

// TokenStore supplies and invalidates the persisted device credential.
// It is optional: without one, requests are sent unauthenticated.
type TokenStore interface {
	DeviceToken(ctx context.Context) (string, error)
	DeleteDeviceToken(ctx context.Context) error
}

// Client talks to the order API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     core.Logger
	tokens     TokenStore

	// onUnauthenticated fires after a 401 has invalidated the stored
	// credential, so the session layer can require re-registration.
	onUnauthenticated func()
}

// ClientOption is a functional option for configuring the client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Default 10s.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(l core.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTokenStore enables the Device auth header and 401 invalidation
func WithTokenStore(ts TokenStore) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithUnauthenticatedHook registers a callback fired on any 401
func WithUnauthenticatedHook(fn func()) ClientOption {
	return func(c *Client) {
		c.onUnauthenticated = fn
	}
}

// WithTracing wraps the transport so trace context propagates to the
// backend via W3C TraceContext headers
func WithTracing() ClientOption {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = otelhttp.NewTransport(base)
	}
}

// NewClient creates an order API client for the given base URL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api base url: %w", core.ErrMissingConfiguration)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api base url %q: %w", baseURL, core.ErrInvalidConfiguration)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateOrder submits a new order. The empty-order check runs here as a
// final guard; callers are expected to have validated the cart already.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("create order: %w", core.ErrEmptyOrder)
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/order", nil, req, &order); err != nil {
		return nil, err
	}
	c.logger.Info("Order created", map[string]interface{}{
		"operation": "api.CreateOrder",
		"order_id":  order.ID,
		"lines":     len(req.Items),
	})
	return &order, nil
}

// CreateLegacyOrder submits an order in the original {size, quantity} shape
func (c *Client) CreateLegacyOrder(ctx context.Context, req LegacyOrderRequest) (*Order, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("create legacy order: %w", core.ErrEmptyOrder)
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/order", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders fetches the active orders for one user, or for all users
// when userID is empty (staff view)
func (c *Client) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	var query url.Values
	if userID != "" {
		query = url.Values{"userID": []string{userID}}
	}
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order by id
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus transitions an order to the given status (staff action)
func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id), nil, body, nil)
	if err != nil {
		return err
	}
	c.logger.Info("Order status updated", map[string]interface{}{
		"operation": "api.UpdateOrderStatus",
		"order_id":  id,
		"status":    status,
	})
	return nil
}

// ListRooms fetches the registerable rooms
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Register registers this device and returns the issued credential.
// Persisting the token is the caller's job.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TabPing is the authenticated liveness check. A 401 means the stored
// device token is invalid or revoked.
func (c *Client) TabPing(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/me/tab", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.DeviceToken(ctx)
		if err != nil {
			return fmt.Errorf("%s %s: reading device token: %w", method, path, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Device "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateCredential(ctx)
		return fmt.Errorf("%s %s: %w", method, path, core.ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorBody(resp.Body)
		c.logger.Warn("Request failed", map[string]interface{}{
			"operation": "api.do",
			"method":    method,
			"path":      path,
			"status":    resp.StatusCode,
			"message":   msg,
		})
		if msg != "" {
			return fmt.Errorf("%s %s: HTTP %d: %s: %w", method, path, resp.StatusCode, msg, core.ErrRequestFailed)
		}
		return fmt.Errorf("%s %s: HTTP %d: %w", method, path, resp.StatusCode, core.ErrRequestFailed)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

func (c *Client) transportError(method, path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, core.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return fmt.Errorf("%s %s: %v: %w", method, path, err, core.ErrConnectionFailed)
}

func (c *Client) invalidateCredential(ctx context.Context) {
	if c.tokens != nil {
		if err := c.tokens.DeleteDeviceToken(ctx); err != nil {
			c.logger.Error("Failed to delete revoked device token", map[string]interface{}{
				"operation": "api.invalidateCredential",
				"error":     err.Error(),
			})
		}
	}
	if c.onUnauthenticated != nil {
		c.onUnauthenticated()
	}
	c.logger.Warn("Device token rejected, re-registration required", map[string]interface{}{
		"operation": "api.invalidateCredential",
	})
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(data))

	// FastAPI-style {"detail": "..."} bodies unwrap to the message
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &detail) == nil && detail.Detail != "" {
		return detail.Detail
	}
	return text
}
