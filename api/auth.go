package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a successful sign in
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	User        users.User `json:"user"`
}

// Login exchanges credentials for an access token. It does not attach the
// token to the client.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResponse{}, errors.Wrapf(errors.ErrInvalidRequest, "[Login] email and password are required")
	}

	var resp LoginResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      loginRequest{Email: email, Password: password},
		anonymous: true,
	}, &resp)
	if err != nil {
		return LoginResponse{}, err
	}
	if resp.AccessToken == "" {
		return LoginResponse{}, errors.Wrapf(errors.ErrInternal, "[Login] response carried no access token")
	}
	return resp, nil
}

// TenantBranding fetches the public branding of a tenant. No session is needed.
func (c *Client) TenantBranding(ctx context.Context, tenantID string) (TenantBranding, error) {
	var branding TenantBranding
	if tenantID == "" {
		return branding, errors.Wrapf(errors.ErrInvalidRequest, "[TenantBranding] tenant id is required")
	}
	err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/tenants/" + pathEscape(tenantID) + "/branding",
		anonymous: true,
	}, &branding)
	if err != nil {
		return TenantBranding{}, err
	}
	if branding.LogoURL != "" && !strings.HasPrefix(branding.LogoURL, "http") {
		branding.LogoURL = c.baseURL + branding.LogoURL
	}
	return branding, nil
}
