package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quickserve/quickserve-go/internal/models"
)

// CustomerMe returns the logged-in customer's profile and counters.
func (c *Client) CustomerMe(ctx context.Context) (*models.CustomerMe, error) {
	var me models.CustomerMe
	if err := c.doJSON(ctx, http.MethodGet, "/customer/me", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// CustomerUpdate is the PATCH /customer/me payload; nil fields are left
// untouched.
type CustomerUpdate struct {
	FullName        *string `json:"full_name,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"current_password,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
}

// UpdateCustomerMe edits the customer profile.
func (c *Client) UpdateCustomerMe(ctx context.Context, in CustomerUpdate) error {
	return c.doJSON(ctx, http.MethodPatch, "/customer/me", nil, in, nil)
}

// NearbyProviders lists online providers available for a service type. The
// backend decides availability; distance stays null in the dev backend.
func (c *Client) NearbyProviders(ctx context.Context, serviceType string, limit int) ([]models.NearbyProvider, error) {
	query := url.Values{}
	if serviceType != "" {
		query.Set("service_type", serviceType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Items []models.NearbyProvider `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/customer/nearby-providers", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ProviderPublicProfile returns the provider card customers see while
// confirming a booking.
func (c *Client) ProviderPublicProfile(ctx context.Context, providerID int64) (*models.ProviderPublic, error) {
	var p models.ProviderPublic
	if err := c.doJSON(ctx, http.MethodGet, "/providers/"+strconv.FormatInt(providerID, 10), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
