package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront-order-service/internal/util"

	"go.uber.org/zap"
)

// Caller faults surfaced by the inventory service. These are caused by the
// request's own content, not by the dependency misbehaving.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
)

// Reservation is the inventory service's successful reservation response.
type Reservation struct {
	ReservedQuantity  int `json:"reserved_quantity"`
	AvailableQuantity int `json:"available_quantity"`
}

// API is the remote inventory dependency consumed by this service.
type API interface {
	Reserve(ctx context.Context, productID int64, quantity int) (*Reservation, error)
	Release(ctx context.Context, productID int64, quantity int) error
}

// HTTPClient talks to the inventory service over its REST API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates an inventory API client. The returned client carries
// no timeout of its own; callers bound each request through the context.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		logger:  util.GetLogger(),
	}
}

type stockRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Reserve asks the inventory service to reserve stock for a product.
// Insufficient stock and unknown products are returned as the sentinel
// caller-fault errors; everything else is a dependency fault.
func (c *HTTPClient) Reserve(ctx context.Context, productID int64, quantity int) (*Reservation, error) {
	resp, err := c.post(ctx, "/api/v1/reservations", stockRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var reservation Reservation
		if err := json.NewDecoder(resp.Body).Decode(&reservation); err != nil {
			return nil, fmt.Errorf("failed to decode reservation response: %w", err)
		}
		return &reservation, nil
	case http.StatusConflict:
		return nil, fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
	case http.StatusNotFound:
		return nil, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	default:
		return nil, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}
}

// Release returns previously reserved stock to the pool (compensation).
func (c *HTTPClient) Release(ctx context.Context, productID int64, quantity int) error {
	resp, err := c.post(ctx, "/api/v1/releases", stockRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("inventory release returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory call failed: %w", err)
	}
	return resp, nil
}
