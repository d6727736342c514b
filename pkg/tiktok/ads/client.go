// Package ads issues authenticated calls to the TikTok Ads platform,
// normalizing transport and platform errors and retrying the
// transient ones with a bounded linear backoff.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
)

// TokenSource yields the current access token. An empty token with a
// nil error means no credential is stored.
type TokenSource interface {
	StoredToken(ctx context.Context) (string, error)
}

type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

var defaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	Backoff:     time.Second,
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	retry   RetryConfig

	// sleep is swapped in tests so retries run without real waits
	sleep func(time.Duration)
}

type Option func(*Client)

func WithRetryConfig(retry RetryConfig) Option {
	return func(c *Client) {
		c.retry = retry
	}
}

func WithSleepFunc(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = tiktok.DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		tokens:  tokens,
		retry:   defaultRetryConfig,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request runs one authenticated call, retrying up to MaxAttempts
// total when the classified kind is retryable. The delay grows
// linearly: attempt n waits n * Backoff before attempt n+1.
func (c *Client) request(ctx context.Context, method, path string, body any, token string) (*tiktok.Response, *tiktok.Error) {
	var lastErr *tiktok.Error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		response, err := c.doOnce(ctx, method, path, body, token)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !err.Kind.Retryable() || attempt == c.retry.MaxAttempts {
			break
		}

		delay := time.Duration(attempt) * c.retry.Backoff
		slog.Warn("retrying request", "path", path, "attempt", attempt, "kind", err.Kind, "delay", delay)
		c.sleep(delay)
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, token string) (*tiktok.Response, *tiktok.Error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &tiktok.Error{Kind: tiktok.KindUnknown, Message: "An unexpected error occurred"}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &tiktok.Error{Kind: tiktok.KindUnknown, Message: "An unexpected error occurred"}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Access-Token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tiktok.ClassifyStatus(resp.StatusCode, content)
	}

	var envelope tiktok.Response
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, &tiktok.Error{Kind: tiktok.KindUnknown, Message: "An unexpected error occurred"}
	}

	if envelope.Code != 0 {
		message := envelope.Message
		if message == "" {
			message = "An unexpected error occurred"
		}
		return nil, &tiktok.Error{
			Kind:         tiktok.KindUnknown,
			PlatformCode: envelope.Code,
			Message:      message,
			Details:      envelope,
		}
	}

	return &envelope, nil
}

func classifyTransport(err error) *tiktok.Error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
		return &tiktok.Error{
			Kind:    tiktok.KindTimeout,
			Message: "The request timed out. Please try again.",
		}
	}
	return &tiktok.Error{
		Kind:    tiktok.KindNetworkError,
		Message: "Network error. Please check your connection and try again.",
	}
}

func (c *Client) storedToken(ctx context.Context) (string, *tiktok.Error) {
	token, err := c.tokens.StoredToken(ctx)
	if err != nil || token == "" {
		return "", &tiktok.Error{
			Kind:    tiktok.KindUnauthorized,
			Message: "Your session has expired. Please reconnect your TikTok account.",
		}
	}
	return token, nil
}
