package repository

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

// Client is a minimal PostgREST client for the remote store.  Tables are
// read through /rest/v1/<table> with eq filters and remote procedures are
// invoked through /rest/v1/rpc/<name>.  The api key is sent both as the
// apikey header and as a bearer token, which is how PostgREST-style backends
// expect anonymous clients to authenticate.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a Client for the given base URL and api key.  The
// underlying HTTP client applies a conservative timeout so a hung backend
// surfaces as a transient error instead of blocking the caller forever.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Select performs GET /rest/v1/<table>?<query> and decodes the JSON array
// response into out.  Transport failures and non-2xx statuses are reported
// as ErrTransient.
func (c *Client) Select(ctx context.Context, table string, query url.Values, out interface{}) error {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Insert performs POST /rest/v1/<table> with the given row.  The Prefer
// header asks the backend to return the created representation, which is
// decoded into out when out is non-nil.
func (c *Client) Insert(ctx context.Context, table string, row interface{}, out interface{}) error {
	body, err := json.Marshal(row)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/"+table, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if out != nil {
		req.Header.Set("Prefer", "return=representation")
	} else {
		req.Header.Set("Prefer", "return=minimal")
	}
	return c.do(req, out)
}

// RPC performs POST /rest/v1/rpc/<name> with the given arguments and decodes
// the response into out when out is non-nil.  PostgREST exposes database
// functions this way; the pool count aggregate and the cascading user
// deletion both live behind it.
func (c *Client) RPC(ctx context.Context, name string, args interface{}, out interface{}) error {
	var body io.Reader
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = strings.NewReader("{}")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+name, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends the request with auth headers and decodes the response.  Every
// failure mode that the caller cannot act on locally collapses into
// ErrTransient with the underlying cause attached for logging.
func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded amount of the body for the error message.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransient, err)
	}
	return nil
}
