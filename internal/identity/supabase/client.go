// Package supabase talks to a hosted Supabase project's GoTrue auth API.
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

	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity/domain"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Client verifies caller tokens with the anon key and performs admin calls
// with the service-role key. The service-role key never leaves this process.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
	log        *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return NewWithHTTPClient(cfg, log, &http.Client{Timeout: defaultTimeout})
}

func NewWithHTTPClient(cfg config.Config, log *zap.Logger, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.Supabase.URL, "/"),
		anonKey:    cfg.Supabase.AnonKey,
		serviceKey: cfg.Supabase.ServiceRoleKey,
		http:       httpClient,
		log:        log.Named("identity.supabase"),
	}
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type createUserBody struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

// apiError covers the error shapes GoTrue has used across versions.
type apiError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (c *Client) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	var out user
	status, apiErr, err := c.do(ctx, http.MethodGet, "/auth/v1/user", c.anonKey, token, nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		reason := apiErr.text()
		if reason == "" {
			reason = "No user found"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidToken, reason)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: No user found", domain.ErrInvalidToken)
	}
	return &domain.Identity{ID: out.ID, Email: out.Email}, nil
}

func (c *Client) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.Identity, error) {
	body := createUserBody{
		Email:        req.Email,
		Password:     req.Password,
		EmailConfirm: req.EmailConfirmed,
	}
	var out user
	status, apiErr, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceKey, c.serviceKey, body, &out)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return &domain.Identity{ID: out.ID, Email: out.Email}, nil
	case status >= http.StatusInternalServerError:
		if msg := apiErr.text(); msg != "" {
			return nil, fmt.Errorf("%w: status %d: %w", domain.ErrUnavailable, status, &domain.RejectedError{Message: msg})
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrUnavailable, status)
	default:
		msg := apiErr.text()
		if msg == "" {
			msg = http.StatusText(status)
		}
		return nil, &domain.RejectedError{Message: msg}
	}
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	path := "/auth/v1/admin/users/" + url.PathEscape(id)
	status, apiErr, err := c.do(ctx, http.MethodDelete, path, c.serviceKey, c.serviceKey, nil, nil)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusOK || status == http.StatusNoContent:
		return nil
	case status == http.StatusNotFound:
		return domain.ErrIdentityNotFound
	default:
		return fmt.Errorf("%w: delete user status %d: %s", domain.ErrUnavailable, status, apiErr.text())
	}
}

// do sends one request. Transport failures come back as err; HTTP error
// statuses come back as status plus the decoded error body.
func (c *Client) do(ctx context.Context, method, path, apiKey, bearer string, body any, out any) (int, apiError, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, apiError{}, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, apiError{}, err
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("gotrue request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, apiError{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, apiError{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return 0, apiError{}, fmt.Errorf("%w: decode response: %w", domain.ErrUnavailable, err)
			}
		}
		return resp.StatusCode, apiError{}, nil
	}

	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)
	return resp.StatusCode, apiErr, nil
}

var _ domain.Provider = (*Client)(nil)
