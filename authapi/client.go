package authapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-client/config"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/dispatch"
)

// Sender performs one request without any refresh handling.
type Sender interface {
	Send(ctx context.Context, req *dispatch.Request) (*dispatch.Response, error)
}

// Client talks to the authentication endpoints. Its requests never carry
// the stored credential and never go through the refresh coordinator.
type Client struct {
	sender      Sender
	loginPath   string
	refreshPath string
}

type Option func(*Client)

func WithLoginPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.loginPath = path
		}
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

func New(sender Sender, options ...Option) *Client {
	c := &Client{
		sender:      sender,
		loginPath:   config.DefaultLoginPath,
		refreshPath: config.DefaultRefreshPath,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges admin credentials for a token pair.
func (c *Client) Login(ctx context.Context, login, password string) (credentials.Credential, error) {
	if login == "" || password == "" {
		return credentials.Credential{}, ErrMissingLogin
	}
	cred, err := c.exchange(ctx, c.loginPath, LoginRequest{Login: login, Password: password})
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("[authapi Login] %w", err)
	}
	return cred, nil
}

// Refresh exchanges a refresh token for a new pair. Any non-2xx response,
// transport failure or incomplete body is an error.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (credentials.Credential, error) {
	if refreshToken == "" {
		return credentials.Credential{}, ErrMissingRefreshToken
	}
	cred, err := c.exchange(ctx, c.refreshPath, RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("[authapi Refresh] %w", err)
	}
	return cred, nil
}

func (c *Client) exchange(ctx context.Context, path string, body any) (credentials.Credential, error) {
	req, err := dispatch.NewJSONRequest(http.MethodPost, path, body)
	if err != nil {
		return credentials.Credential{}, err
	}
	req.SkipAuth = true

	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return credentials.Credential{}, err
	}

	var tokens TokenResponse
	if err := resp.DecodeJSON(&tokens); err != nil {
		return credentials.Credential{}, fmt.Errorf("%w: %w", ErrMalformedTokenResponse, err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return credentials.Credential{}, ErrMalformedTokenResponse
	}
	return tokens.credential(), nil
}
