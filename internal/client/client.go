package client

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
	"time"

	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/service"
)

// APIError 服务端返回的错误响应
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// IsUnauthenticated 令牌缺失、过期或被注销
func IsUnauthenticated(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized && ae.Code != "INVALID_CREDENTIALS"
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session SessionStore
}

func New(baseURL string, s SessionStore) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: s,
	}
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login 成功后保存令牌
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, body, &out); err != nil {
		return nil, err
	}
	if err := c.Session.Save(out.Token); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout 先通知服务端注销令牌，再清除本地会话；服务端失败不影响本地清除
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", true, nil, nil)
	if cerr := c.Session.Clear(); cerr != nil {
		return cerr
	}
	if errors.Is(err, ErrNoSession) || IsUnauthenticated(err) {
		return nil
	}
	return err
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "/me", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var us []domain.User
	if err := c.do(ctx, http.MethodGet, "/users", true, nil, &us); err != nil {
		return nil, err
	}
	return us, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, userPath(id), true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateUser(ctx context.Context, in service.CreateUserInput) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodPost, "/users", true, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in service.UpdateUserInput) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodPut, userPath(id), true, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, userPath(id), true, nil, nil)
}

func userPath(id string) string { return "/users/" + url.PathEscape(id) }

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		tok, err := c.Session.Load()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		ae := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(ae)
		return ae
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
