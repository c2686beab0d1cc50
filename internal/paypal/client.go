// Package paypal is a small client for the PayPal REST endpoints the billing
// flow needs: catalog products, billing plans, subscriptions and webhook
// signature verification.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Sandbox is the default API base.
const Sandbox = "https://api-m.sandbox.paypal.com"

// APIError is a non-2xx answer from PayPal.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.DebugID != "" {
		return fmt.Sprintf("paypal: %d %s: %s (debug_id %s)", e.StatusCode, e.Name, msg, e.DebugID)
	}
	return fmt.Sprintf("paypal: %d %s: %s", e.StatusCode, e.Name, msg)
}

// IsNotFound reports whether err is a PayPal 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Config holds the REST app credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// HTTPClient is used for both token and API calls when set.
	HTTPClient *http.Client
}

// Client calls the PayPal REST API with an OAuth2 client-credentials token
// that is fetched and refreshed on demand.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = Sandbox
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx := context.Background()
	inner := cfg.HTTPClient
	if inner == nil {
		inner = &http.Client{Timeout: 15 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, inner)

	httpClient := cc.Client(ctx)
	httpClient.Timeout = inner.Timeout
	return &Client{baseURL: base, http: httpClient}
}

// do sends a JSON request and decodes a JSON answer into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("paypal: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paypal: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("paypal: read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		if apiErr.DebugID == "" {
			apiErr.DebugID = res.Header.Get("Paypal-Debug-Id")
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("paypal: decode response: %w", err)
	}
	return nil
}
