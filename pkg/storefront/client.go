// Package storefront is the Go API client for the storefront backend.
// It carries the same validation and field-error mapping the web forms
// apply before and after calling the account endpoints.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to the storefront API. The base URL is injected at
// construction; nothing is read from process-wide state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type checkRequest struct {
	Email string `json:"email"`
}

type checkResponse struct {
	Exists bool `json:"exists"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Session holds the credentials issued on a successful login
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// CheckEmail asks the backend whether an account with the email exists.
// This is the pre-submission hint the signup form uses, not an
// authorization boundary.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var resp checkResponse
	status, err := c.postJSON(ctx, "/api/user/check", checkRequest{Email: email}, &resp)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("check email: unexpected status %d", status)
	}
	return resp.Exists, nil
}

// postJSON sends a JSON body and decodes the JSON response, returning
// the HTTP status. Non-2xx statuses are not errors; callers map them.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
