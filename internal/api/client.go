package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dash-client/internal/models"
	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

// Envelope is the common response contract of the dashboard API.
type Envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Remote         `json:"error,omitempty"`
}

// Remote carries the server-provided error payload.
type Remote struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientConfig configures the HTTP client behaviour.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to the school dashboard REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a Client instance.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates a new account and returns the issued session.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Profile fetches the profile of the token's owner, verifying the token
// server-side as a side effect.
func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	var res profilePayload
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// UpdateProfile replaces mutable profile fields and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, token string, req models.UpdateProfileRequest) (*models.User, error) {
	var res profilePayload
	if err := c.do(ctx, http.MethodPut, "/auth/profile", token, req, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// ForgotPassword asks the server to start a password reset flow.
func (c *Client) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", req, nil)
}

// ResetPassword completes a password reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", req, nil)
}

// SubmitResults creates one result record with all subject entries at once.
func (c *Client) SubmitResults(ctx context.Context, token string, req models.SubmitResultsRequest) error {
	return c.do(ctx, http.MethodPost, "/results", token, req, nil)
}

// profilePayload accepts both shapes the profile endpoints serve: a bare
// user object, or one wrapped under a "user" key.
type profilePayload struct {
	User models.User
}

func (p *profilePayload) UnmarshalJSON(raw []byte) error {
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		p.User = *wrapped.User
		return nil
	}
	return json.Unmarshal(raw, &p.User)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "ENCODE_REQUEST", 0, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "BUILD_REQUEST", 0, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return apperrors.Wrap(err, apperrors.KindNetwork, apperrors.ErrNetworkUnavailable.Code, 0, "could not reach the server")
	}
	defer res.Body.Close() //nolint:errcheck

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindNetwork, apperrors.ErrNetworkUnavailable.Code, 0, "failed to read response body")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.remoteError(res.StatusCode, raw)
	}

	if out == nil {
		return nil
	}

	envelope := Envelope{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperrors.Wrap(err, apperrors.KindDecode, "DECODE_RESPONSE", res.StatusCode, "failed to decode response")
	}
	payload := envelope.Data
	if payload == nil {
		// Some endpoints respond without the envelope wrapper.
		payload = raw
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.Wrap(err, apperrors.KindDecode, "DECODE_RESPONSE", res.StatusCode, "failed to decode response payload")
	}
	return nil
}

func (c *Client) remoteError(status int, raw []byte) error {
	message := fmt.Sprintf("request failed with status %d", status)
	code := "HTTP_ERROR"

	envelope := Envelope{}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		if envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		if envelope.Error.Code != "" {
			code = envelope.Error.Code
		}
	} else {
		// Legacy endpoints return {message} at the top level.
		var flat struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &flat); err == nil && flat.Message != "" {
			message = flat.Message
		}
	}

	return apperrors.New(apperrors.KindHTTP, code, status, message)
}
