package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quickserve/quickserve-go/internal/models"
)

func requestPath(id int64, suffix string) string {
	return "/requests/" + strconv.FormatInt(id, 10) + suffix
}

// CreateRequest posts a new service request; it comes back in the pending
// state, ready for provider selection.
func (c *Client) CreateRequest(ctx context.Context, in models.RequestCreate) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodPost, "/requests", nil, in, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// MyRequests lists the customer's requests, newest first.
func (c *Client) MyRequests(ctx context.Context, limit, offset int) ([]models.Request, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var items []models.Request
	if err := c.doJSON(ctx, http.MethodGet, "/requests/my", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Request fetches one of the customer's requests.
func (c *Client) Request(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodGet, requestPath(id, ""), nil, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// CancelRequest cancels a pending request. The backend refuses any other
// state; the client only mirrors that in which buttons it offers.
func (c *Client) CancelRequest(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	if err := c.doJSON(ctx, http.MethodPost, requestPath(id, "/cancel"), nil, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// AssignProvider attaches the chosen provider to a pending request and
// adopts the provider's base price as the budget.
func (c *Client) AssignProvider(ctx context.Context, id, providerID int64) (*models.Request, error) {
	payload := map[string]int64{"provider_id": providerID}

	var req models.Request
	if err := c.doJSON(ctx, http.MethodPost, requestPath(id, "/assign-provider"), nil, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// AnalyzeImage submits a photo of the problem and returns the suggested
// request draft for the smart request form.
func (c *Client) AnalyzeImage(ctx context.Context, imagePath string) (*models.ImageAnalysis, error) {
	form := newMultipartForm()
	form.addFile("image", imagePath)

	var analysis models.ImageAnalysis
	if err := c.doMultipart(ctx, http.MethodPost, "/ai/analyze-image", form, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ReverseGeocode resolves coordinates into an address for request creation.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.ReverseLocation, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var loc models.ReverseLocation
	if err := c.doJSON(ctx, http.MethodGet, "/location/reverse", query, nil, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}
