// Package oauth implements the OAuth2 Authorization Code flow with
// PKCE against the TikTok authorization server and manages the
// resulting credential in a storage.Store.
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/oauth2"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/storage"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
)

// Storage keys. The token record and the PKCE transaction share one
// store; Logout clears all of them.
const (
	KeyAccessToken    = "tiktok_access_token"
	KeyRefreshToken   = "tiktok_refresh_token"
	KeyTokenExpiresAt = "tiktok_token_expires_at"
	KeyCodeVerifier   = "oauth_code_verifier"
	KeyState          = "oauth_state"
)

const defaultExpiresIn = 3600

type Config struct {
	ClientKey    string   `yaml:"client_key"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURI  string   `yaml:"redirect_uri"`
	BaseURL      string   `yaml:"base_url"`
	AuthorizeURL string   `yaml:"authorize_url"`
	Scopes       []string `yaml:"scopes"`
}

// AuthResult is what a callback produces. Failures never escape as
// panics or raw transport errors; they arrive here as a tiktok.Error.
type AuthResult struct {
	Success bool                `json:"success"`
	Token   string              `json:"token,omitempty"`
	User    *tiktok.UserProfile `json:"user,omitempty"`
	Err     *tiktok.Error       `json:"error,omitempty"`
}

type Client struct {
	cfg   Config
	store storage.Store
	http  *http.Client

	// now is swapped in tests
	now func() time.Time
}

func NewClient(cfg Config, store storage.Store) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = tiktok.DefaultBaseURL
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = tiktok.DefaultAuthorizeURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = tiktok.DefaultScopes
	}
	return &Client{
		cfg:   cfg,
		store: store,
		http:  http.DefaultClient,
		now:   time.Now,
	}
}

// InitiateLogin creates a fresh PKCE transaction, persists it and
// returns the authorization URL the browser must be sent to. A missing
// client key or redirect URI is a configuration error and fails hard.
func (c *Client) InitiateLogin(ctx context.Context) (string, error) {
	if c.cfg.ClientKey == "" || c.cfg.RedirectURI == "" {
		return "", errors.New("oauth configuration is missing: client key and redirect URI are required")
	}

	verifier := oauth2.GenerateCodeVerifier()
	state := oauth2.GenerateCodeVerifier()

	if err := c.store.Set(ctx, KeyCodeVerifier, verifier); err != nil {
		return "", fmt.Errorf("persist code verifier: %w", err)
	}
	if err := c.store.Set(ctx, KeyState, state); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}

	query := url.Values{}
	query.Set("client_key", c.cfg.ClientKey)
	query.Set("response_type", "code")
	query.Set("scope", strings.Join(c.cfg.Scopes, ","))
	query.Set("redirect_uri", c.cfg.RedirectURI)
	query.Set("state", state)
	query.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	query.Set("code_challenge_method", string(oauth2.CodeChallengeMethodS256))

	authURL := fmt.Sprintf("%s?%s", c.cfg.AuthorizeURL, query.Encode())
	slog.Info("initiating login", "authorize_url", c.cfg.AuthorizeURL)
	return authURL, nil
}

// HandleCallback consumes the PKCE transaction exactly once: whatever
// the outcome, the verifier and state keys are gone afterwards.
func (c *Client) HandleCallback(ctx context.Context, code, state string) AuthResult {
	storedState, err := c.store.Get(ctx, KeyState)
	if err != nil {
		return c.failCallback(ctx, tiktok.KindUnknown, "Authentication failed. Please try again.")
	}
	if state != "" && state != storedState {
		return c.failCallback(ctx, tiktok.KindInvalidState, "Invalid state parameter")
	}

	verifier, err := c.store.Get(ctx, KeyCodeVerifier)
	if err != nil || verifier == "" {
		return c.failCallback(ctx, tiktok.KindMissingVerifier, "Missing code verifier")
	}

	token, err := c.exchangeCode(ctx, code, verifier)
	if err != nil {
		slog.Error("token exchange failed", "error", err)
		return c.failCallback(ctx, tiktok.KindTokenExchangeFailed, friendlyAuthMessage(err))
	}

	if err := c.SaveToken(ctx, token.AccessToken, token.RefreshToken, token.ExpiresIn); err != nil {
		return c.failCallback(ctx, tiktok.KindUnknown, "Authentication failed. Please try again.")
	}

	c.clearTransaction(ctx)

	user, apiErr := c.FetchProfile(ctx, token.AccessToken)
	if apiErr != nil {
		slog.Error("profile fetch failed", "error", apiErr)
		return AuthResult{Success: false, Err: apiErr}
	}

	slog.Info("login complete", "user", user.ID)
	return AuthResult{Success: true, Token: token.AccessToken, User: user}
}

func (c *Client) failCallback(ctx context.Context, kind tiktok.Kind, message string) AuthResult {
	c.clearTransaction(ctx)
	return AuthResult{
		Success: false,
		Err:     &tiktok.Error{Kind: kind, Message: message},
	}
}

func (c *Client) clearTransaction(ctx context.Context) {
	_ = c.store.Delete(ctx, KeyCodeVerifier)
	_ = c.store.Delete(ctx, KeyState)
}

type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (c *Client) exchangeCode(ctx context.Context, code, verifier string) (*tokenData, error) {
	body := map[string]string{
		"client_key":    c.cfg.ClientKey,
		"client_secret": c.cfg.ClientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
		"redirect_uri":  c.cfg.RedirectURI,
		"code_verifier": verifier,
	}
	return c.postTokenEndpoint(ctx, c.cfg.BaseURL+"/oauth2/access_token/", body)
}

func (c *Client) postTokenEndpoint(ctx context.Context, endpoint string, body map[string]string) (*tokenData, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope tiktok.Response
		if err := json.Unmarshal(content, &envelope); err == nil && envelope.Message != "" {
			return nil, fmt.Errorf("token endpoint: %s", envelope.Message)
		}
		return nil, fmt.Errorf("token endpoint: HTTP %d", resp.StatusCode)
	}

	var envelope tiktok.Response
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if envelope.Code != 0 {
		if envelope.Message != "" {
			return nil, fmt.Errorf("token endpoint: %s", envelope.Message)
		}
		return nil, fmt.Errorf("token endpoint: code %d", envelope.Code)
	}

	var token tokenData
	if err := json.Unmarshal(envelope.Data, &token); err != nil {
		return nil, fmt.Errorf("decode token data: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("token endpoint: access token missing")
	}

	return &token, nil
}

// SaveToken persists the token record with an absolute expiry in epoch
// milliseconds. Exposed so the demo-mode login can reuse the normal
// credential path.
func (c *Client) SaveToken(ctx context.Context, accessToken, refreshToken string, expiresIn int) error {
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	expiresAt := c.now().UnixMilli() + int64(expiresIn)*1000

	if err := c.store.Set(ctx, KeyAccessToken, accessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := c.store.Set(ctx, KeyTokenExpiresAt, strconv.FormatInt(expiresAt, 10)); err != nil {
		return fmt.Errorf("persist token expiry: %w", err)
	}
	if refreshToken != "" {
		if err := c.store.Set(ctx, KeyRefreshToken, refreshToken); err != nil {
			return fmt.Errorf("persist refresh token: %w", err)
		}
	}
	return nil
}

// RefreshToken exchanges the stored refresh token for a new access
// token. Any failure clears all stored credentials before returning.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	refreshToken, err := c.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", &tiktok.Error{
			Kind:    tiktok.KindNoRefreshToken,
			Message: "No refresh token available",
		}
	}

	body := map[string]string{
		"client_key":    c.cfg.ClientKey,
		"client_secret": c.cfg.ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}

	token, err := c.postTokenEndpoint(ctx, c.cfg.BaseURL+"/oauth2/refresh_token/", body)
	if err != nil {
		slog.Error("token refresh failed, clearing credentials", "error", err)
		c.Logout(ctx)
		return "", err
	}

	if err := c.SaveToken(ctx, token.AccessToken, token.RefreshToken, token.ExpiresIn); err != nil {
		c.Logout(ctx)
		return "", err
	}

	return token.AccessToken, nil
}

// Logout removes the token record and any pending PKCE transaction.
// Idempotent.
func (c *Client) Logout(ctx context.Context) {
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiresAt, KeyCodeVerifier, KeyState} {
		_ = c.store.Delete(ctx, key)
	}
}

// StoredToken returns the access token if present and not expired. An
// expired record is treated as absent and triggers a full cleanup;
// absence is a normal outcome, not an error.
func (c *Client) StoredToken(ctx context.Context) (string, error) {
	token, err := c.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	expiresAtRaw, err := c.store.Get(ctx, KeyTokenExpiresAt)
	if err != nil {
		return "", fmt.Errorf("read token expiry: %w", err)
	}

	if token == "" || expiresAtRaw == "" {
		return "", nil
	}

	expiresAt, err := strconv.ParseInt(expiresAtRaw, 10, 64)
	if err != nil || c.now().UnixMilli() >= expiresAt {
		c.Logout(ctx)
		return "", nil
	}

	return token, nil
}

// FetchProfile retrieves the authenticated user via /user/info/.
func (c *Client) FetchProfile(ctx context.Context, token string) (*tiktok.UserProfile, *tiktok.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/user/info/", nil)
	if err != nil {
		return nil, &tiktok.Error{Kind: tiktok.KindUnknown, Message: "An unexpected error occurred"}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &tiktok.Error{
			Kind:    tiktok.KindNetworkError,
			Message: "Network error. Please check your connection and try again.",
		}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &tiktok.Error{
			Kind:    tiktok.KindNetworkError,
			Message: "Network error. Please check your connection and try again.",
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tiktok.ClassifyStatus(resp.StatusCode, content)
	}

	var envelope tiktok.Response
	if err := json.Unmarshal(content, &envelope); err != nil || envelope.Code != 0 {
		message := "Failed to get user profile"
		if err == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return nil, &tiktok.Error{Kind: tiktok.KindUnknown, Message: message}
	}

	var data struct {
		User struct {
			OpenID      string `json:"open_id"`
			DisplayName string `json:"display_name"`
			Email       string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, &tiktok.Error{Kind: tiktok.KindUnknown, Message: "Failed to get user profile"}
	}

	email := data.User.Email
	if email == "" {
		email = data.User.OpenID + "@tiktok.com"
	}

	return &tiktok.UserProfile{
		ID:    data.User.OpenID,
		Name:  data.User.DisplayName,
		Email: email,
	}, nil
}

// friendlyAuthMessage keeps raw transport detail away from the UI.
func friendlyAuthMessage(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "Invalid app configuration") {
		return "Invalid app configuration. Please contact support."
	}
	if strings.Contains(msg, "Missing required advertising permissions") {
		return "Missing required advertising permissions. Please grant all requested permissions."
	}
	return "Authentication failed. Please try again."
}
