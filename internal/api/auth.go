package api

import (
	"context"
	"net/http"

	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
	"github.com/quickserve/quickserve-go/internal/session"
)

// SignupInput is the /auth/signup payload. ServiceType and BasePrice are
// required for the provider role.
type SignupInput struct {
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	ServiceType string   `json:"service_type,omitempty"`
	BasePrice   *float64 `json:"base_price,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", nil, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and records the session. The role
// comes from the token claims; when expectRole is set a mismatching account
// is refused without storing anything, so a provider cannot land in the
// customer area.
func (c *Client) Login(ctx context.Context, email, password, expectRole string) (string, error) {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}

	role, err := session.RoleFromToken(resp.AccessToken)
	if err != nil {
		return "", err
	}
	if expectRole != "" && role != expectRole {
		return "", apperror.New(apperror.ErrCodeForbidden, "this account is not a "+expectRole+" account")
	}

	if err := c.session.Set(resp.AccessToken, role); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeServer, "cannot persist session")
	}
	return role, nil
}

// Logout tells the backend goodbye and always clears the local session,
// even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	callErr := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	if err := c.session.Clear(); err != nil {
		return err
	}
	// A dead backend must not keep the user logged in locally.
	if callErr != nil && !apperror.IsTransport(callErr) && !apperror.IsUnauthorized(callErr) && !apperror.IsNotFound(callErr) {
		return callErr
	}
	return nil
}
