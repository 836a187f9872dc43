package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kitchenprojects/mj-checkout-go/internal/checkout"
	"github.com/kitchenprojects/mj-checkout-go/pkg/idempotency"
)

// Client implements checkout.OrderClient against the storefront
// backend:
//
//	POST {base}/orders                 -> {order_id, payment_handle}
//	PUT  {base}/orders/{id}/payment    -> 2xx
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateOrder(ctx context.Context, req checkout.OrderRequest) (checkout.OrderCreated, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return checkout.OrderCreated{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(data))
	if err != nil {
		return checkout.OrderCreated{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(idempotency.Header, req.IdempotencyKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return checkout.OrderCreated{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return checkout.OrderCreated{}, fmt.Errorf("order api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created checkout.OrderCreated
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return checkout.OrderCreated{}, fmt.Errorf("order api: invalid json: %w", err)
	}
	if created.OrderID == "" || created.PaymentHandle == "" {
		return checkout.OrderCreated{}, fmt.Errorf("order api: response missing order_id or payment_handle")
	}
	return created, nil
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, orderID, status string) error {
	data, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/orders/%s/payment", c.BaseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("order api status %d", resp.StatusCode)
	}
	return nil
}
