package devserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickserve/quickserve-go/internal/models"
)

func (s *Server) handleAdminStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleKycQueue(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.KYCPending))
	if status == "all" {
		status = ""
	}

	total, items, err := s.store.ProviderListing(c.Request.Context(), status, c.Query("search"),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load queue")
		return
	}
	c.JSON(http.StatusOK, models.Paged[models.KycQueueItem]{Total: total, Items: items})
}

func (s *Server) handleKycDetail(c *gin.Context) {
	providerID, err := pathID(c, "provider_id")
	if err != nil {
		return
	}

	ctx := c.Request.Context()
	prov, err := s.store.ProviderByID(ctx, providerID)
	if err != nil {
		detail(c, http.StatusNotFound, "Provider not found")
		return
	}
	user, err := s.store.UserByID(ctx, prov.UserID)
	if err != nil {
		detail(c, http.StatusNotFound, "Provider not found")
		return
	}

	out := models.KycDetail{User: user.toModel(), Provider: prov.toModel()}
	out.Kyc.Status = models.KYCStatus(prov.KycStatus)
	if rec, err := s.store.KycByProvider(ctx, providerID); err == nil {
		out.Kyc.IDNumber = rec.IDNumber
		out.Kyc.AddressLine = rec.AddressLine
		out.Kyc.IDProofURL = rec.IDProofPath
		out.Kyc.AddressProofURL = rec.AddressProofPath
		out.Kyc.ProfilePhotoURL = rec.ProfilePhotoPath
		out.Kyc.RejectionReason = rec.RejectionReason
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleKycApprove(c *gin.Context) {
	providerID, err := pathID(c, "provider_id")
	if err != nil {
		return
	}
	if _, err := s.store.ProviderByID(c.Request.Context(), providerID); err != nil {
		detail(c, http.StatusNotFound, "Provider not found")
		return
	}
	if err := s.store.SetKycStatus(c.Request.Context(), providerID, models.KYCApproved, ""); err != nil {
		detail(c, http.StatusInternalServerError, "failed to approve")
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": models.KYCApproved})
}

type kycRejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleKycReject(c *gin.Context) {
	providerID, err := pathID(c, "provider_id")
	if err != nil {
		return
	}
	// The body is optional; a missing reason gets a stock one.
	var in kycRejectRequest
	_ = c.ShouldBindJSON(&in)
	if in.Reason == "" {
		in.Reason = "Documents could not be verified"
	}

	if _, err := s.store.ProviderByID(c.Request.Context(), providerID); err != nil {
		detail(c, http.StatusNotFound, "Provider not found")
		return
	}
	if err := s.store.SetKycStatus(c.Request.Context(), providerID, models.KYCRejected, in.Reason); err != nil {
		detail(c, http.StatusInternalServerError, "failed to reject")
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": models.KYCRejected})
}

func (s *Server) handleAdminProviders(c *gin.Context) {
	total, items, err := s.store.ProviderListing(c.Request.Context(), "", c.Query("search"),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list providers")
		return
	}
	c.JSON(http.StatusOK, models.Paged[models.KycQueueItem]{Total: total, Items: items})
}

func (s *Server) handleAdminCustomers(c *gin.Context) {
	total, items, err := s.store.CustomerListing(c.Request.Context(), c.Query("search"),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list customers")
		return
	}
	c.JSON(http.StatusOK, models.Paged[models.User]{Total: total, Items: items})
}

func (s *Server) handleAdminRequests(c *gin.Context) {
	total, rows, err := s.store.RequestListing(c.Request.Context(), c.Query("status"),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list requests")
		return
	}
	c.JSON(http.StatusOK, models.Paged[models.Request]{Total: total, Items: requestModels(rows)})
}

func (s *Server) handleAdminReports(c *gin.Context) {
	total, items, err := s.store.ReportListing(c.Request.Context(),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list reports")
		return
	}
	c.JSON(http.StatusOK, models.Paged[models.Report]{Total: total, Items: items})
}

func (s *Server) handleResolveReport(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	if err := s.store.ResolveReport(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			detail(c, http.StatusNotFound, "Report not found")
		} else {
			detail(c, http.StatusInternalServerError, "failed to resolve report")
		}
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func defaultSettings() models.Settings {
	return models.Settings{
		PlatformName:    "QuickServe",
		SupportEmail:    "support@quickserve.local",
		CommissionPct:   10,
		MaxActiveJobs:   1,
		DefaultCurrency: "INR",
	}
}

func (s *Server) handleGetSettings(c *gin.Context) {
	doc, err := s.store.SettingsDocument(c.Request.Context())
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load settings")
		return
	}

	settings := defaultSettings()
	if doc != "" {
		if err := json.Unmarshal([]byte(doc), &settings); err != nil {
			s.log.WithError(err).Warn("devserver: stored settings are unreadable, serving defaults")
		}
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handlePutSettings(c *gin.Context) {
	var in models.Settings
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	doc, err := json.Marshal(in)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to save settings")
		return
	}
	if err := s.store.SaveSettingsDocument(c.Request.Context(), string(doc)); err != nil {
		detail(c, http.StatusInternalServerError, "failed to save settings")
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusOK, in)
}
