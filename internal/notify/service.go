// Package notify detects freshly published prices and sends Web Push
// notifications to the subscribers registered with the subscription
// service. A per-area cursor timestamp stored in the service keeps
// repeated runs idempotent.
package notify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ServiceClient talks to the subscription service's admin API.
type ServiceClient struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
}

// NewServiceClient creates a client for the subscription service at baseURL,
// authenticating admin calls with token.
func NewServiceClient(baseURL, token string) *ServiceClient {
	return &ServiceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ServiceClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.adminToken)
	return c.httpClient.Do(req)
}

// StoredTimestamp returns the cursor timestamp recorded for the area, or ""
// when none has been stored yet.
func (c *ServiceClient) StoredTimestamp(ctx context.Context, area string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/ts/"+area, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("read cursor for %s: %w", area, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("read cursor for %s: unexpected status %d", area, resp.StatusCode)
	}

	var body struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("read cursor for %s: %w", area, err)
	}
	return body.Timestamp, nil
}

// UpdateTimestamp records ts as the new cursor for the area.
func (c *ServiceClient) UpdateTimestamp(ctx context.Context, area, ts string) error {
	payload, err := json.Marshal(map[string]string{"timestamp": ts})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/admin/ts/"+area, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("update cursor for %s: %w", area, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("update cursor for %s: unexpected status %d", area, resp.StatusCode)
	}
	return nil
}

// Subscriptions lists the Web Push subscriptions registered for the area.
func (c *ServiceClient) Subscriptions(ctx context.Context, area string) ([]webpush.Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/subs?zone="+url.QueryEscape(area), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for %s: %w", area, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list subscriptions for %s: unexpected status %d", area, resp.StatusCode)
	}

	var subs []webpush.Subscription
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return nil, fmt.Errorf("list subscriptions for %s: %w", area, err)
	}
	return subs, nil
}

// DeleteSubscription removes a subscription by its identifier.
func (c *ServiceClient) DeleteSubscription(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/subscribe/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// SubscriptionID derives the service's identifier for a subscription, the
// hex SHA-256 of its push endpoint.
func SubscriptionID(sub webpush.Subscription) string {
	sum := sha256.Sum256([]byte(sub.Endpoint))
	return hex.EncodeToString(sum[:])
}
