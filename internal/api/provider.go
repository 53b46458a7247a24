package api

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
)

func providerRequestPath(id int64, suffix string) string {
	return "/provider/requests/" + strconv.FormatInt(id, 10) + suffix
}

// ProviderMe returns the logged-in provider's account and profile.
func (c *Client) ProviderMe(ctx context.Context) (*models.ProviderMe, error) {
	var me models.ProviderMe
	if err := c.doJSON(ctx, http.MethodGet, "/provider/me", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// ProviderMeUpdate is the PUT /provider/me payload; nil fields are left
// untouched.
type ProviderMeUpdate struct {
	User struct {
		FullName *string `json:"full_name,omitempty"`
		Phone    *string `json:"phone,omitempty"`
	} `json:"user"`
	Provider struct {
		Bio             *string  `json:"bio,omitempty"`
		ServiceType     *string  `json:"service_type,omitempty"`
		BasePrice       *float64 `json:"base_price,omitempty"`
		ExperienceYears *int     `json:"experience_years,omitempty"`
		City            *string  `json:"city,omitempty"`
		AddressLine     *string  `json:"address_line,omitempty"`
	} `json:"provider"`
}

// UpdateProviderMe edits the provider profile.
func (c *Client) UpdateProviderMe(ctx context.Context, in ProviderMeUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/provider/me", nil, in, nil)
}

// SetAvailability flips the online flag and updates the working window.
// Going online requires approved KYC; use GoOnline to pre-check the gate
// and route the user to the upload screen when approval is missing.
func (c *Client) SetAvailability(ctx context.Context, in models.Availability) (bool, error) {
	var resp struct {
		OK       bool `json:"ok"`
		IsOnline bool `json:"is_online"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/provider/me/availability", nil, in, &resp); err != nil {
		return false, err
	}
	return resp.IsOnline, nil
}

// GoOnline checks the KYC gate first and only then flips the online flag.
// With unapproved documents the availability endpoint is never called; the
// returned error points the provider at the upload flow instead.
func (c *Client) GoOnline(ctx context.Context, in models.Availability) (bool, error) {
	status, err := c.KycStatus(ctx)
	if err != nil {
		return false, err
	}
	if !status.AllowsOnline() {
		return false, apperror.New(apperror.ErrCodeForbidden,
			"kyc status is "+string(status)+", upload documents first: /provider/kyc/upload")
	}
	in.IsOnline = true
	return c.SetAvailability(ctx, in)
}

// PostLocation pushes one live position to the backend.
func (c *Client) PostLocation(ctx context.Context, in models.LocationUpdate) error {
	return c.doJSON(ctx, http.MethodPost, "/provider/providers/location", nil, in, nil)
}

// MyLocation returns the last position the backend stored for this
// provider, nil coordinates when never reported.
func (c *Client) MyLocation(ctx context.Context) (*float64, *float64, error) {
	var resp struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/provider/providers/location/me", nil, nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Latitude, resp.Longitude, nil
}

// Incoming lists pending requests addressed to this provider. The backend
// returns an empty list while a job is active.
func (c *Client) Incoming(ctx context.Context) ([]models.Request, error) {
	var items []models.Request
	if err := c.doJSON(ctx, http.MethodGet, "/provider/incoming", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// History lists this provider's past requests, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]models.Request, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var items []models.Request
	if err := c.doJSON(ctx, http.MethodGet, "/provider/history", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CurrentJob returns the active job, or nil when idle.
func (c *Client) CurrentJob(ctx context.Context) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodGet, "/provider/current-job", nil, nil, &req); err != nil {
		return nil, err
	}
	if req.ID == 0 {
		return nil, nil
	}
	return &req, nil
}

// ProviderRequest fetches one request assigned to this provider.
func (c *Client) ProviderRequest(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodGet, providerRequestPath(id, ""), nil, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// AcceptRequest takes a pending request. Another provider may have won the
// race; the backend's answer and the next poll are the truth.
func (c *Client) AcceptRequest(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodPost, providerRequestPath(id, "/accept"), nil, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// RejectRequest declines a pending request, returning it to the customer's
// re-selection flow.
func (c *Client) RejectRequest(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodPost, providerRequestPath(id, "/reject"), nil, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateJobStatus posts a progress transition (en_route, arrived, payment,
// completed). Legality is the backend's call.
func (c *Client) UpdateJobStatus(ctx context.Context, id int64, status models.RequestStatus) (*models.Request, error) {
	payload := map[string]models.RequestStatus{"status": status}

	var req models.Request
	if err := c.doJSON(ctx, http.MethodPost, providerRequestPath(id, "/status"), nil, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// KycStatus returns the verification state gating the online toggle.
func (c *Client) KycStatus(ctx context.Context) (models.KYCStatus, error) {
	var resp struct {
		Status models.KYCStatus `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/provider/kyc/status", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.Status == "" {
		return models.KYCNotSubmitted, nil
	}
	return resp.Status, nil
}

// UploadKyc submits the verification documents as multipart form data.
// id_proof is mandatory; the other two files are optional. Files are
// checked to be images or PDFs before anything leaves the machine.
func (c *Client) UploadKyc(ctx context.Context, in models.KYCUpload) error {
	if in.IDProofPath == "" {
		return apperror.New(apperror.ErrCodeValidation, "id proof document is required")
	}
	for _, path := range []string{in.IDProofPath, in.AddressProofPath, in.ProfilePhotoPath} {
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, "cannot read "+path)
		}
		if !isSupportedDocument(content) {
			return apperror.New(apperror.ErrCodeValidation, path+" is not an image or PDF")
		}
	}

	form := newMultipartForm()
	form.addField("id_number", in.IDNumber)
	if in.AddressLine != "" {
		form.addField("address_line", in.AddressLine)
	}
	form.addFile("id_proof", in.IDProofPath)
	form.addFile("address_proof", in.AddressProofPath)
	form.addFile("profile_photo", in.ProfilePhotoPath)

	return c.doMultipart(ctx, http.MethodPost, "/provider/kyc/upload", form, nil)
}
