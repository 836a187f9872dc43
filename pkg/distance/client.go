package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kitchenprojects/mj-checkout-go/internal/shipping"
)

// Client talks to the external distance/geocoding service:
//
//	GET {base}/shipping/distance?destination=<addr>
//	200 -> {"distance_km": 12.4, "duration_text": "25 mins"}
//	4xx/5xx -> {"error": "..."} or {"message": "..."}
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

type distanceResponse struct {
	DistanceKm   float64 `json:"distance_km"`
	DurationText string  `json:"duration_text"`
	Error        string  `json:"error"`
	Message      string  `json:"message"`
}

func (c *Client) Distance(ctx context.Context, destination string) (shipping.DistanceResult, error) {
	u := c.BaseURL + "/shipping/distance?destination=" + url.QueryEscape(destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return shipping.DistanceResult{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return shipping.DistanceResult{}, err
	}
	defer resp.Body.Close()

	var body distanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return shipping.DistanceResult{}, fmt.Errorf("distance service status %d", resp.StatusCode)
		}
		return shipping.DistanceResult{}, fmt.Errorf("distance service: invalid json: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return shipping.DistanceResult{}, fmt.Errorf("distance service: %s", msg)
	}

	return shipping.DistanceResult{Km: body.DistanceKm, Duration: body.DurationText}, nil
}
