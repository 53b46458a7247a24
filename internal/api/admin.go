package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quickserve/quickserve-go/internal/models"
)

func adminListQuery(search string, limit, offset int) url.Values {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	return query
}

// AdminStats returns the dashboard counters.
func (c *Client) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	if err := c.doJSON(ctx, http.MethodGet, "/admin/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// KycQueue lists providers whose verification sits in the given status.
func (c *Client) KycQueue(ctx context.Context, status models.KYCStatus, search string, limit, offset int) (*models.Paged[models.KycQueueItem], error) {
	query := adminListQuery(search, limit, offset)
	if status != "" {
		query.Set("status", string(status))
	}

	var page models.Paged[models.KycQueueItem]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/kyc", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// KycDetail returns one provider's documents for review.
func (c *Client) KycDetail(ctx context.Context, providerID int64) (*models.KycDetail, error) {
	var detail models.KycDetail
	if err := c.doJSON(ctx, http.MethodGet, "/admin/kyc/"+strconv.FormatInt(providerID, 10), nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ApproveKyc marks the provider verified, unlocking the online toggle.
func (c *Client) ApproveKyc(ctx context.Context, providerID int64) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/kyc/"+strconv.FormatInt(providerID, 10)+"/approve", nil, nil, nil)
}

// RejectKyc refuses the documents with a reason shown to the provider.
func (c *Client) RejectKyc(ctx context.Context, providerID int64, reason string) error {
	payload := map[string]string{"reason": reason}
	return c.doJSON(ctx, http.MethodPost, "/admin/kyc/"+strconv.FormatInt(providerID, 10)+"/reject", nil, payload, nil)
}

// AdminProviders lists providers with search and pagination.
func (c *Client) AdminProviders(ctx context.Context, search string, limit, offset int) (*models.Paged[models.KycQueueItem], error) {
	var page models.Paged[models.KycQueueItem]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/providers", adminListQuery(search, limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminCustomers lists customer accounts with search and pagination.
func (c *Client) AdminCustomers(ctx context.Context, search string, limit, offset int) (*models.Paged[models.User], error) {
	var page models.Paged[models.User]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/customers", adminListQuery(search, limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminRequests lists requests platform-wide, optionally by status.
func (c *Client) AdminRequests(ctx context.Context, status models.RequestStatus, limit, offset int) (*models.Paged[models.Request], error) {
	query := adminListQuery("", limit, offset)
	if status != "" {
		query.Set("status", string(status))
	}

	var page models.Paged[models.Request]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/requests", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminReports lists issue reports.
func (c *Client) AdminReports(ctx context.Context, limit, offset int) (*models.Paged[models.Report], error) {
	var page models.Paged[models.Report]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/reports", adminListQuery("", limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ResolveReport closes a report.
func (c *Client) ResolveReport(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/reports/"+strconv.FormatInt(id, 10)+"/resolve", nil, nil, nil)
}

// AdminSettings reads the platform settings document.
func (c *Client) AdminSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := c.doJSON(ctx, http.MethodGet, "/admin/settings", nil, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateAdminSettings replaces the platform settings document.
func (c *Client) UpdateAdminSettings(ctx context.Context, in models.Settings) error {
	return c.doJSON(ctx, http.MethodPut, "/admin/settings", nil, in, nil)
}
