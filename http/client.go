package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/chatrelay"
)

// Interface compliance checks.
var (
	_ chatrelay.RelayClient   = (*Client)(nil)
	_ chatrelay.Authenticator = (*Client)(nil)
)

// Client calls a relay and its login endpoint.
type Client struct {
	relayURL   string
	authURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAuthURL sets the base URL of the login endpoint. It defaults to the
// relay URL.
func WithAuthURL(url string) ClientOption {
	return func(c *Client) { c.authURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client for the relay at relayURL.
func NewClient(relayURL string, opts ...ClientOption) *Client {
	c := &Client{
		relayURL:   strings.TrimRight(relayURL, "/"),
		httpClient: http.DefaultClient,
	}
	c.authURL = c.relayURL
	for _, o := range opts {
		o(c)
	}
	return c
}

// Interact implements chatrelay.RelayClient.
func (c *Client) Interact(ctx context.Context, token string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
	var body interactResponse
	if err := c.post(ctx, c.relayURL+"/interact", token, interactRequest{Input: req.Input, Temperature: req.Temperature}, &body); err != nil {
		return chatrelay.InteractResponse{}, err
	}
	images, err := decodeImages(body.ImageResponse)
	if err != nil {
		return chatrelay.InteractResponse{}, fmt.Errorf("%w: %w", chatrelay.ErrBadResponse, err)
	}
	return chatrelay.InteractResponse{Text: body.TextResponse, Images: images}, nil
}

// Login implements chatrelay.Authenticator.
func (c *Client) Login(ctx context.Context, email, password string) (chatrelay.Credential, error) {
	var body loginResponse
	if err := c.post(ctx, c.authURL+"/login", "", loginRequest{Email: email, Password: password}, &body); err != nil {
		return chatrelay.Credential{}, err
	}
	return chatrelay.Credential{Token: body.Token, Email: email}, nil
}

func (c *Client) post(ctx context.Context, url, token string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", chatrelay.ErrConnect, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", chatrelay.ErrConnect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", chatrelay.ErrBadResponse, err)
	}
	return nil
}

// statusError classifies a non-OK response, keeping the server's message.
func statusError(resp *http.Response) error {
	se := &chatrelay.StatusError{Code: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxRequestBodySize))
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		se.Message = e.Message
		if se.Message == "" {
			se.Message = e.Error
		}
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		se.Err = chatrelay.ErrUnauthorized
	case http.StatusTooManyRequests:
		se.Err = chatrelay.ErrRateLimited
		if se.Message == "" {
			se.Message = strings.TrimSpace(string(body))
		}
	default:
		se.Err = chatrelay.ErrBadResponse
	}
	return se
}
