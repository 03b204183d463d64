package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-cart/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client is the storefront cart API as the engine consumes it. The backend
// models products, bundles and gift boxes as separate collections with
// separate endpoints; implementations hide that fan-out behind kind-aware
// methods so the coordinator dispatches on kind exactly once.
type Client interface {
	// FetchCart retrieves the canonical server cart.
	FetchCart(ctx context.Context) (model.Cart, error)

	// AddItem adds quantity units of the identified item to the cart.
	AddItem(ctx context.Context, kind model.Kind, id string, quantity int) error

	// UpdateItem sets the quantity on an existing cart line.
	UpdateItem(ctx context.Context, kind model.Kind, id string, quantity int) error

	// RemoveItem removes the identified line from the cart.
	RemoveItem(ctx context.Context, kind model.Kind, id string) error

	// ClearCart empties the cart.
	ClearCart(ctx context.Context) error

	// CreateOrder submits the checkout payload and returns the created order.
	CreateOrder(ctx context.Context, payload model.OrderPayload) (*model.Order, error)
}

// ClientConfig holds the settings for the HTTP client.
type ClientConfig struct {
	// BaseURL is the storefront API root, e.g. "https://shop.example.com/api".
	BaseURL string

	// Token is the bearer session token for the authenticated user.
	Token string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// FetchRetries is the number of retry attempts for the idempotent cart
	// fetch. Mutations are never retried.
	FetchRetries uint64
}

// httpClient implements Client over net/http.
type httpClient struct {
	baseURL      string
	token        string
	fetchRetries uint64
	client       *http.Client
	logger       zerolog.Logger
}

// NewClient creates a new storefront API client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &httpClient{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		token:        cfg.Token,
		fetchRetries: cfg.FetchRetries,
		client:       &http.Client{Timeout: timeout},
		logger:       logger.With().Str("component", "cart-api").Logger(),
	}, nil
}

// wireOrderResponse is the body of POST /orders.
type wireOrderResponse struct {
	Order model.Order `json:"order"`
}

// wireError is the error body the backend returns for rejected requests.
type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchCart retrieves the canonical server cart, retrying briefly on
// transport and server failures. The fetch is idempotent so the retry lives
// here in the transport, opaque to the coordinator.
func (c *httpClient) FetchCart(ctx context.Context) (model.Cart, error) {
	var summary wireCartSummary

	op := func() error {
		// A fresh target each attempt: json.Unmarshal leaves pointer fields
		// and slice elements from a failed partial decode in place, and a
		// stale bundleInfo or giftBoxInfo marker would flip the line's kind.
		summary = wireCartSummary{}
		err := c.do(ctx, http.MethodGet, "/cart", nil, &summary)
		if err != nil && model.IsValidation(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.fetchRetries), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return model.Cart{}, err
	}

	return decodeCart(summary, c.logger), nil
}

// AddItem adds quantity units of the identified item to the cart.
func (c *httpClient) AddItem(ctx context.Context, kind model.Kind, id string, quantity int) error {
	path, field, err := endpointFor(kind, "add")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, map[string]any{field: id, "quantity": quantity}, nil)
}

// UpdateItem sets the quantity on an existing cart line.
func (c *httpClient) UpdateItem(ctx context.Context, kind model.Kind, id string, quantity int) error {
	path, field, err := endpointFor(kind, "update")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, map[string]any{field: id, "quantity": quantity}, nil)
}

// RemoveItem removes the identified line from the cart.
func (c *httpClient) RemoveItem(ctx context.Context, kind model.Kind, id string) error {
	path, _, err := endpointFor(kind, "remove")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path+"/"+id, nil, nil)
}

// ClearCart empties the cart.
func (c *httpClient) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil)
}

// CreateOrder submits the checkout payload and returns the created order.
func (c *httpClient) CreateOrder(ctx context.Context, payload model.OrderPayload) (*model.Order, error) {
	var resp wireOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// endpointFor maps (kind, operation) to the backend's per-collection
// endpoint and the request-body ID field name.
func endpointFor(kind model.Kind, op string) (path, idField string, err error) {
	var suffix string
	switch kind {
	case model.KindProduct:
		idField = "productId"
	case model.KindBundle:
		suffix, idField = "-bundle", "bundleId"
	case model.KindGiftBox:
		suffix, idField = "-giftbox", "giftBoxId"
	default:
		return "", "", model.ErrInvalidKind
	}
	return "/cart/" + op + suffix, idField, nil
}

// do executes one request and classifies the outcome into the engine's
// error taxonomy: transport failure → network, 5xx → server, 4xx carrying a
// stock rejection → stock, any other 4xx → validation with the server's
// message. A non-nil out receives the decoded 2xx body.
func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("failed to encode request: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("failed to build request: %v", err))
	}

	correlationID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := c.logger.With().
		Str("method", method).
		Str("path", path).
		Str("correlation_id", correlationID).
		Logger()

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("request transport failure")
		return model.NewDomainError(model.ErrCodeNetwork, "cart service unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read response body")
		return model.NewDomainError(model.ErrCodeNetwork, "cart service response truncated")
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		logger.Error().Int("status", resp.StatusCode).Msg("server error")
		return model.NewDomainError(model.ErrCodeServer, "cart service failed, try again later")

	case resp.StatusCode >= http.StatusBadRequest:
		return classifyRejection(resp.StatusCode, payload, logger)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			logger.Error().Err(err).Msg("failed to decode response body")
			return model.NewDomainError(model.ErrCodeServer, "malformed cart service response")
		}
	}

	return nil
}

// classifyRejection turns a 4xx response into a stock or validation error.
// The backend flags stock exhaustion either with an explicit error code or
// a message mentioning stock.
func classifyRejection(status int, payload []byte, logger zerolog.Logger) error {
	var we wireError
	_ = json.Unmarshal(payload, &we)

	message := we.Message
	if message == "" {
		message = we.Error
	}
	if message == "" {
		message = fmt.Sprintf("request rejected with status %d", status)
	}

	if we.Error == "INSUFFICIENT_STOCK" || strings.Contains(strings.ToLower(message), "stock") {
		logger.Warn().Int("status", status).Str("message", message).Msg("stock rejection")
		return model.NewDomainError(model.ErrCodeStock, message)
	}

	logger.Warn().Int("status", status).Str("message", message).Msg("request rejected")
	return model.NewDomainError(model.ErrCodeValidation, message)
}
