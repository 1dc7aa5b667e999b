// Package botapi is a thin client for the Telegram Bot API. Every call goes
// through Invoke, which builds the request and folds every failure into one
// of three error kinds.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Oudwins/botdesk/internals/timeouts"
)

const DefaultAPIHost = "https://api.telegram.org"

type Client struct {
	apiHost    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithAPIHost(host string) Option {
	return func(c *Client) {
		if host = strings.TrimRight(strings.TrimSpace(host), "/"); host != "" {
			c.apiHost = host
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithCredential(token string) Option {
	return func(c *Client) {
		c.SetCredential(token)
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		apiHost: DefaultAPIHost,
		httpClient: &http.Client{
			Timeout: timeouts.SecondDefault,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SetCredential replaces the stored token. Whitespace-only input clears it.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) HasCredential() bool {
	return c.credential() != ""
}

func (c *Client) credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Invoke calls method and returns the unwrapped result. A nil payload is sent
// as a GET without body, anything else as a JSON POST.
func (c *Client) Invoke(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	token := c.credential()
	if token == "" {
		return nil, ErrCredentialMissing
	}

	httpMethod := http.MethodGet
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode payload: %w", method, err)
		}
		httpMethod = http.MethodPost
		body = bytes.NewReader(encoded)
	}

	endpoint := c.apiHost + "/bot" + token + "/" + method
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, body)
	if err != nil {
		return nil, &TransportError{Method: method, Err: redact(err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Err: redact(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &TransportError{Method: method, Err: fmt.Errorf("invalid response body (status %d): %w", resp.StatusCode, err)}
	}
	if envelope.OK == nil {
		return nil, &TransportError{Method: method, Err: fmt.Errorf("response body has no ok field (status %d)", resp.StatusCode)}
	}
	if !*envelope.OK {
		description := envelope.Description
		if strings.TrimSpace(description) == "" {
			description = fallbackDescription
		}
		return nil, &RemoteRejectedError{Method: method, ErrorCode: envelope.ErrorCode, Description: description}
	}
	return envelope.Result, nil
}

func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	return call[*WebhookInfo](ctx, c, "getWebhookInfo", nil)
}

func (c *Client) SetWebhook(ctx context.Context, webhookURL string) (bool, error) {
	return call[bool](ctx, c, "setWebhook", setWebhookRequest{URL: webhookURL})
}

// DeleteWebhook keeps pending updates on the platform side.
func (c *Client) DeleteWebhook(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, "deleteWebhook", deleteWebhookRequest{DropPendingUpdates: false})
}

// GetUpdates never long-polls and only subscribes to plain messages.
func (c *Client) GetUpdates(ctx context.Context, offset *int64) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        0,
		AllowedUpdates: []string{"message"},
	})
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (*Message, error) {
	return call[*Message](ctx, c, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
}

func call[T any](ctx context.Context, c *Client, method string, payload any) (T, error) {
	var out T
	raw, err := c.Invoke(ctx, method, payload)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &TransportError{Method: method, Err: fmt.Errorf("invalid result: %w", err)}
	}
	return out, nil
}

// redact drops the request URL from net/http errors since it embeds the token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
