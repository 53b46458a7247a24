// Package api is the typed QuickServe API client. One fire-and-fail HTTP
// attempt per call: no retry, no backoff, no circuit breaking.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
	"github.com/quickserve/quickserve-go/internal/session"
)

// Client wraps the backend REST API. Every request consults the session
// store for the bearer token, so a login/logout is picked up immediately.
type Client struct {
	baseURL    string
	session    *session.Store
	httpClient *http.Client
	log        logrus.FieldLogger
}

// New creates the client. The timeout bounds a whole request; individual
// calls can end earlier through their context.
func New(baseURL string, sess *session.Store, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    sess,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// BaseURL returns the resolved backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WebSocketURL converts the base URL to the ws endpoint for a path.
func (c *Client) WebSocketURL(path string) string {
	wsBase := c.baseURL
	if strings.HasPrefix(wsBase, "https") {
		wsBase = "wss" + strings.TrimPrefix(wsBase, "https")
	} else {
		wsBase = "ws" + strings.TrimPrefix(wsBase, "http")
	}
	return wsBase + path
}

// doJSON performs one JSON request. payload may be nil for bodyless calls;
// out may be nil when the response body is irrelevant.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeBadRequest, "cannot encode request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	// JSON content type is forced for everything except multipart bodies,
	// which set their own boundary type in doMultipart.
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out)
}

// doMultipart performs one multipart/form-data request. The form writer's
// content type (with boundary) is used; no JSON header is forced.
func (c *Client) doMultipart(ctx context.Context, method, path string, form *multipartForm, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "cannot build request")
	}

	// Bearer token is read from the store on every request. Login and
	// signup are credential exchanges; sending a stale token there would
	// be wrong and a 401 on them must not touch the stored session.
	if path != "/auth/login" && path != "/auth/signup" {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeTransport, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeTransport, "cannot read response")
	}

	if resp.StatusCode >= 400 {
		appErr := apperror.FromResponse(resp.StatusCode, raw)

		// Expired or revoked token: drop the session so guards fail closed
		// and the caller is sent back to the role's login. A 401 on a call
		// that carried no token says nothing about the stored session.
		if resp.StatusCode == http.StatusUnauthorized && req.Header.Get("Authorization") != "" {
			role := c.session.Role()
			if clearErr := c.session.Clear(); clearErr != nil {
				c.log.WithError(clearErr).Warn("api: failed to clear session after 401")
			}
			if role != "" {
				appErr.Message = appErr.Message + ", go to " + session.LoginPath(role)
			}
		}

		c.log.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		}).Debug("api: request rejected")
		return appErr
	}

	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeServer, "cannot decode response")
	}
	return nil
}
