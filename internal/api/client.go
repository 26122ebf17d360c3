// Package api provides HTTP client functionality for the Sesame web API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apierrors "github.com/ucdmkt/sesame-exporter/internal/errors"
	"github.com/ucdmkt/sesame-exporter/internal/types"
)

const (
	defaultBaseURL = "https://app.candyhouse.co/api/sesame2"

	// The vendor API is slow to answer under load; every request carries
	// its own bounded timeout.
	requestTimeout = 10 * time.Second
)

// Client provides HTTP client functionality for the Sesame web API. A
// single client is shared by all device workers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new Sesame API client authenticating with the given
// static API key.
func NewClient(apiKey string) *Client {
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &apiKeyTransport{
			apiKey:    apiKey,
			transport: http.DefaultTransport,
		},
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
	}
}

// apiKeyTransport adds the x-api-key header to HTTP requests.
type apiKeyTransport struct {
	apiKey    string
	transport http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("x-api-key", t.apiKey)
	return t.transport.RoundTrip(req)
}

// FetchStatus performs a single GET against the per-UUID status endpoint
// and returns the decoded JSON object verbatim. Transport errors, non-2xx
// statuses, and decode failures are wrapped in a FetchError carrying the
// device name. Retries are the reconciler's responsibility, not the
// client's.
func (c *Client) FetchStatus(ctx context.Context, name types.DeviceName, uuid types.DeviceUUID) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &apierrors.FetchError{DeviceName: name.String(), Underlying: err}
	}

	apiURL := fmt.Sprintf("%s/%s", c.baseURL, uuid.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, &apierrors.FetchError{DeviceName: name.String(), Underlying: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierrors.FetchError{DeviceName: name.String(), Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &apierrors.FetchError{
			DeviceName: name.String(),
			Underlying: fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &apierrors.FetchError{
			DeviceName: name.String(),
			Underlying: fmt.Errorf("failed to decode response: %w", err),
		}
	}

	return payload, nil
}

// TestConnectivity checks that the API endpoint is reachable. A 401 still
// counts as reachable since it proves the endpoint answered.
func (c *Client) TestConnectivity(ctx context.Context, uuid types.DeviceUUID) (bool, error) {
	apiURL := fmt.Sprintf("%s/%s", c.baseURL, uuid.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, apiURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connectivity test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return true, nil
	}

	return false, fmt.Errorf("API returned status %d", resp.StatusCode)
}
