// Package supabase implements port.IdentityProvider against the Supabase Auth (GoTrue) REST API.
package supabase

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

	"authbridge/internal/config"
	"authbridge/internal/domain"
	"authbridge/internal/metrics"
	"authbridge/internal/port"
)

const maxErrorBody = 4 << 10

// Client talks to the auth endpoints of one Supabase project.
type Client struct {
	baseURL        string
	apiKey         string
	serviceRoleKey string
	settingsPath   string
	signer         *AdminSigner
	httpClient     *http.Client
}

// NewClient creates a Supabase Auth client from provider config.
func NewClient(cfg config.ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settingsPath := cfg.SettingsPath
	if settingsPath == "" {
		settingsPath = "/auth/v1/settings"
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		apiKey:         cfg.APIKey(),
		serviceRoleKey: cfg.ServiceRoleKey,
		settingsPath:   settingsPath,
		signer:         NewAdminSigner(cfg.JWTSecret, time.Minute),
		httpClient:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error) {
	var u userResponse
	if err := c.do(ctx, "get_user", http.MethodGet, "/auth/v1/user", accessToken, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return u.toIdentity(), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*port.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var s sessionResponse
	if err := c.do(ctx, "sign_in", http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &s); err != nil {
		return nil, err
	}
	return s.toResult(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, claims map[string]any) (*port.AuthResult, error) {
	body := map[string]any{"email": email, "password": password}
	if len(claims) > 0 {
		body["data"] = claims
	}
	var raw json.RawMessage
	if err := c.do(ctx, "sign_up", http.MethodPost, "/auth/v1/signup", "", body, &raw); err != nil {
		return nil, err
	}
	return decodeSignUp(raw)
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*port.AuthResult, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var s sessionResponse
	if err := c.do(ctx, "refresh", http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &s); err != nil {
		return nil, err
	}
	return s.toResult(), nil
}

// AdminSignOut revokes every session of the user. GoTrue only signs out the
// bearer of a token, so a short-lived token is minted for the user.
func (c *Client) AdminSignOut(ctx context.Context, externalID string) error {
	token, err := c.signer.Sign(externalID)
	if err != nil {
		return &port.ProviderError{Message: err.Error()}
	}
	return c.do(ctx, "admin_sign_out", http.MethodPost, "/auth/v1/logout?scope=global", token, nil, nil)
}

func (c *Client) AdminUpdateClaims(ctx context.Context, externalID string, claims map[string]any) error {
	body := map[string]any{"user_metadata": claims}
	path := "/auth/v1/admin/users/" + url.PathEscape(externalID)
	return c.do(ctx, "admin_update_user", http.MethodPut, path, c.serviceRoleKey, body, nil)
}

func (c *Client) GetAuthSettings(ctx context.Context) (*domain.ProviderSettings, error) {
	var raw map[string]any
	if err := c.do(ctx, "settings", http.MethodGet, c.settingsPath, c.serviceRoleKey, nil, &raw); err != nil {
		return nil, err
	}
	return decodeSettings(raw), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, "sign_out", http.MethodPost, "/auth/v1/logout?scope=local", accessToken, nil, nil)
}

// do sends one request. bearer, when set, is sent as the Authorization token.
// Any non-2xx answer or transport failure becomes a *port.ProviderError.
func (c *Client) do(ctx context.Context, op, method, path, bearer string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("supabase.%s: encoding body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("supabase.%s: creating request: %w", op, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProvider(op, 0, time.Since(start))
		return &port.ProviderError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveProvider(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &port.ProviderError{Status: resp.StatusCode, Message: "decoding response: " + err.Error()}
	}
	return nil
}

// errorResponse covers both the current and the legacy GoTrue error shapes.
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e errorResponse
	_ = json.Unmarshal(raw, &e)

	pe := &port.ProviderError{Status: resp.StatusCode, Code: firstNonEmpty(e.ErrorCode, e.Error)}
	pe.Message = firstNonEmpty(e.Msg, e.Message, e.ErrorDescription, e.Error, strings.TrimSpace(string(raw)), http.StatusText(resp.StatusCode))
	return pe
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Compile-time check.
var _ port.IdentityProvider = (*Client)(nil)
