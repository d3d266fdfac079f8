// Package client provides the HTTP API client for tokenward-cli.
package client

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

	"github.com/tokenward/tokenward-go/internal/server/httpserver/handler"
)

// Client talks to a tokenward server over its JSON HTTP API.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

// New creates a client for the given server address. The credential is
// sent as a bearer token on every request.
func New(server, credential string) *Client {
	baseURL := server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the server address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Mint creates a token for the given owner and returns it together
// with the plaintext credential.
func (c *Client) Mint(ctx context.Context, kind, id string, req handler.MintTokenRequest) (*handler.MintTokenResponse, error) {
	path := fmt.Sprintf("/v1/owners/%s/%s/tokens", url.PathEscape(kind), url.PathEscape(id))

	var result handler.MintTokenResponse
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns the tokens of the calling credential's owner.
func (c *Client) List(ctx context.Context) (*handler.ListTokensResponse, error) {
	var result handler.ListTokensResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tokens", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get returns a single token by ID.
func (c *Client) Get(ctx context.Context, id string) (*handler.TokenView, error) {
	var result handler.TokenView
	if err := c.do(ctx, http.MethodGet, "/v1/tokens/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Revoke deletes a single token.
func (c *Client) Revoke(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/tokens/"+url.PathEscape(id), nil, nil)
}

// RevokeAll deletes every token of the calling credential's owner
// except those listed in keep, and returns the number revoked.
func (c *Client) RevokeAll(ctx context.Context, keep []string) (int, error) {
	path := "/v1/tokens"
	if len(keep) > 0 {
		query := url.Values{}
		for _, id := range keep {
			query.Add("keep", id)
		}
		path += "?" + query.Encode()
	}

	var result handler.RevokeAllResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return 0, err
	}
	return result.RevokedCount, nil
}

// CheckAbility reports whether the calling credential grants the
// ability.
func (c *Client) CheckAbility(ctx context.Context, ability string) (bool, error) {
	path := "/v1/tokens/check-ability?ability=" + url.QueryEscape(ability)

	var result handler.CheckAbilityResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// MutateAbilities adds or removes one ability on a token and returns
// the resulting ability list.
func (c *Client) MutateAbilities(ctx context.Context, id, add, remove string) (*handler.MutateAbilitiesResponse, error) {
	path := "/v1/tokens/" + url.PathEscape(id) + "/abilities"
	req := handler.MutateAbilitiesRequest{Add: add, Remove: remove}

	var result handler.MutateAbilitiesResponse
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// do runs one request and decodes the data field of the response
// envelope into target.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "tokenward-cli/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseError(resp)
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       resp.Header.Get("X-Error-Code"),
	}

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if apiErr.Code == "" {
			apiErr.Code = envelope.Code
		}
		apiErr.Message = envelope.Message
	}
	return apiErr
}
