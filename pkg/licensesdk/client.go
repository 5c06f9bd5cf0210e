package licensesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a keygate issuer over HTTP. The zero value is not usable;
// construct with NewClient.
type Client struct {
	// BaseURL of the issuer, e.g. "https://licenses.example.com".
	BaseURL string

	// HTTPClient used for requests. Defaults to a client with a 15s timeout.
	HTTPClient *http.Client

	// Username and Password are the admin Basic auth credentials. Only
	// needed for Issue, Revoke and List.
	Username string
	Password string
}

// NewClient creates a Client for the issuer at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithAdminCredentials sets the Basic auth credentials used for admin calls.
func WithAdminCredentials(username, password string) ClientOption {
	return func(c *Client) {
		c.Username = username
		c.Password = password
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// Issue mints a new license token. Requires admin credentials.
func (c *Client) Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error) {
	var out IssueResponse
	if err := c.doJSON(ctx, http.MethodPost, "/issue", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify checks a token against a hardware identifier. No auth required.
// A non-nil response with OK=false carries the rejection reason; transport
// and server failures come back as errors.
func (c *Client) Verify(ctx context.Context, token, hwid string) (*VerifyResponse, error) {
	var out VerifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/verify", VerifyRequest{Token: token, HWID: hwid}, &out, false)
	if err != nil {
		// The server answers 401 with a regular VerifyResponse body for
		// rejected tokens; surface that as a result, not an error.
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && out.Reason != "" {
			return &out, nil
		}
		return nil, err
	}
	return &out, nil
}

// Revoke marks a token identifier as revoked. Requires admin credentials.
func (c *Client) Revoke(ctx context.Context, jti string) error {
	var out RevokeResponse
	return c.doJSON(ctx, http.MethodPost, "/revoke", RevokeRequest{JTI: jti}, &out, true)
}

// Status reports whether a token identifier is currently revoked.
func (c *Client) Status(ctx context.Context, jti string) (bool, error) {
	var out StatusResponse
	path := "/status/" + url.PathEscape(jti)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, false); err != nil {
		return false, err
	}
	return out.Revoked, nil
}

// List returns up to limit audit records, filtered by include
// (IncludeAll, IncludeActive, IncludeRevoked). Requires admin credentials.
func (c *Client) List(ctx context.Context, limit int, include string) ([]LicenseRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	switch include {
	case IncludeActive:
		q.Set("revoked", "false")
	case IncludeRevoked:
		q.Set("revoked", "true")
	case "", IncludeAll:
		q.Set("revoked", "all")
	default:
		return nil, fmt.Errorf("licensesdk: invalid include filter %q", include)
	}

	var out ListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/licenses?"+q.Encode(), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Health checks the issuer's liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response into out. Non-2xx responses are decoded into an APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, admin bool) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("licensesdk: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("licensesdk: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("licensesdk: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("licensesdk: read response: %w", err)
	}

	if out != nil && len(raw) > 0 {
		// Decode the body regardless of status so callers can inspect
		// partial results (e.g. verify rejections).
		_ = json.Unmarshal(raw, out)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = ErrorCodeInternal
		apiErr.Description = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func asAPIError(err error, target **APIError) bool {
	e, ok := err.(*APIError)
	if ok {
		*target = e
	}
	return ok
}
