package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client implements Provider against the billing backend's REST API.  All
// calls are short round trips with a bounded timeout; an unreachable backend
// surfaces as an error that callers treat fail-closed.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a Client for the given billing API base URL and key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Login implements Provider.  The billing backend creates the subscriber
// record on first contact, so login is a GET that upserts server-side.
func (c *Client) Login(ctx context.Context, userID string) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, http.MethodGet, "/v1/subscribers/"+url.PathEscape(userID), nil, &snap)
	return snap, err
}

// Logout implements Provider.
func (c *Client) Logout(ctx context.Context, userID string) error {
	return c.call(ctx, http.MethodDelete, "/v1/subscribers/"+url.PathEscape(userID)+"/session", nil, nil)
}

// CustomerInfo implements Provider.
func (c *Client) CustomerInfo(ctx context.Context, userID string) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, http.MethodGet, "/v1/subscribers/"+url.PathEscape(userID), nil, &snap)
	return snap, err
}

// Offerings implements Provider.
func (c *Client) Offerings(ctx context.Context) (Catalog, error) {
	var cat Catalog
	err := c.call(ctx, http.MethodGet, "/v1/offerings", nil, &cat)
	return cat, err
}

// Purchase implements Provider.
func (c *Client) Purchase(ctx context.Context, userID, packageID string) (PurchaseResult, error) {
	body := map[string]string{"package_id": packageID}
	var res PurchaseResult
	err := c.call(ctx, http.MethodPost, "/v1/subscribers/"+url.PathEscape(userID)+"/purchases", body, &res)
	return res, err
}

// Restore implements Provider.
func (c *Client) Restore(ctx context.Context, userID string) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, http.MethodPost, "/v1/subscribers/"+url.PathEscape(userID)+"/restore", nil, &snap)
	return snap, err
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("entitlement: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("entitlement: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("entitlement: decode %s %s: %w", method, path, err)
	}
	return nil
}
