package devserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/quickserve/quickserve-go/internal/models"
)

// requireProvider resolves the caller's provider profile or writes the
// error response.
func (s *Server) requireProvider(c *gin.Context) (*providerRow, bool) {
	prov, err := s.store.ProviderByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		detail(c, http.StatusNotFound, "Provider profile not found")
		return nil, false
	}
	return prov, true
}

func (s *Server) handleProviderMe(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}
	user, err := s.store.UserByID(c.Request.Context(), prov.UserID)
	if err != nil {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, models.ProviderMe{User: user.toModel(), Provider: prov.toModel()})
}

type providerUpdateRequest struct {
	User struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
	} `json:"user"`
	Provider struct {
		Bio             *string  `json:"bio"`
		ServiceType     *string  `json:"service_type"`
		BasePrice       *float64 `json:"base_price"`
		ExperienceYears *int     `json:"experience_years"`
		City            *string  `json:"city"`
		AddressLine     *string  `json:"address_line"`
	} `json:"provider"`
}

func (s *Server) handleProviderUpdate(c *gin.Context) {
	var in providerUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	err := s.store.UpdateProviderProfile(c.Request.Context(), prov.UserID,
		in.User.FullName, in.User.Phone,
		in.Provider.Bio, in.Provider.ServiceType, in.Provider.City, in.Provider.AddressLine,
		in.Provider.BasePrice, in.Provider.ExperienceYears)
	if err != nil {
		detail(c, http.StatusInternalServerError, "update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleAvailability(c *gin.Context) {
	var in models.Availability
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	// Going online is the gated direction; going offline always works.
	if in.IsOnline && !models.KYCStatus(prov.KycStatus).AllowsOnline() {
		detail(c, http.StatusBadRequest, "KYC not approved")
		return
	}

	if err := s.store.SetAvailability(c.Request.Context(), prov.ID, in); err != nil {
		detail(c, http.StatusInternalServerError, "update failed")
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusOK, gin.H{"ok": true, "is_online": in.IsOnline})
}

func (s *Server) handlePostLocation(c *gin.Context) {
	var in models.LocationUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	setOnline := &in.IsOnline
	if err := s.store.SetProviderLocation(c.Request.Context(), prov.ID, in.Latitude, in.Longitude, setOnline); err != nil {
		detail(c, http.StatusInternalServerError, "update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleMyLocation(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"latitude":  prov.LastLatitude,
		"longitude": prov.LastLongitude,
	})
}

// handleIncoming lists pending requests addressed to this provider. While a
// job is active the list is empty so the app steers the provider to it.
func (s *Server) handleIncoming(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	active, err := s.store.ActiveRequestForProvider(ctx, prov.ID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if active != nil {
		c.JSON(http.StatusOK, []models.Request{})
		return
	}

	rows, err := s.store.PendingRequestsForProvider(ctx, prov.ID, 50)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list requests")
		return
	}
	c.JSON(http.StatusOK, requestModels(rows))
}

func (s *Server) handleHistory(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}
	rows, err := s.store.RequestsByProvider(c.Request.Context(), prov.ID, intQuery(c, "limit", 50))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list requests")
		return
	}
	c.JSON(http.StatusOK, requestModels(rows))
}

func (s *Server) handleCurrentJob(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}
	active, err := s.store.ActiveRequestForProvider(c.Request.Context(), prov.ID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load job")
		return
	}
	if active == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, active.toModel())
}

func (s *Server) handleProviderRequest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}
	row, err := s.store.RequestForProvider(c.Request.Context(), id, prov.ID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	c.JSON(http.StatusOK, row.toModel())
}

func (s *Server) handleAcceptRequest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	row, err := s.store.RequestForProvider(ctx, id, prov.ID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	if row.Status != string(models.StatusPending) {
		detail(c, http.StatusConflict, "Request is no longer pending")
		return
	}

	if err := s.store.UpdateRequestStatus(ctx, id, models.StatusAssigned); err != nil {
		detail(c, http.StatusInternalServerError, "failed to accept request")
		return
	}

	s.hub.NotifyRefresh()
	row.Status = string(models.StatusAssigned)
	c.JSON(http.StatusOK, row.toModel())
}

func (s *Server) handleRejectRequest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	row, err := s.store.RequestForProvider(ctx, id, prov.ID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	if row.Status != string(models.StatusPending) {
		detail(c, http.StatusConflict, "Request is no longer pending")
		return
	}

	if err := s.store.UpdateRequestStatus(ctx, id, models.StatusCancelled); err != nil {
		detail(c, http.StatusInternalServerError, "failed to reject request")
		return
	}

	s.hub.NotifyRefresh()
	row.Status = string(models.StatusCancelled)
	c.JSON(http.StatusOK, row.toModel())
}

type jobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleJobStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	var in jobStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	next, err := models.NewRequestStatus(in.Status)
	if err != nil || next == models.StatusPending || next == models.StatusCancelled {
		detail(c, http.StatusBadRequest, "Invalid status")
		return
	}
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	row, err := s.store.RequestForProvider(ctx, id, prov.ID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	// Any status in the working set is accepted, backward moves included,
	// so a provider can correct a mis-tap. Only a completed job is sealed.
	if models.RequestStatus(row.Status) == models.StatusCompleted {
		detail(c, http.StatusBadRequest, "Job already completed")
		return
	}

	if err := s.store.UpdateRequestStatus(ctx, id, next); err != nil {
		detail(c, http.StatusInternalServerError, "failed to update status")
		return
	}
	if next == models.StatusCompleted {
		if err := s.store.IncrementJobsCompleted(ctx, prov.ID); err != nil {
			s.log.WithError(err).Warn("devserver: jobs counter update failed")
		}
	}

	s.hub.NotifyRefresh()
	row.Status = string(next)
	c.JSON(http.StatusOK, row.toModel())
}

func (s *Server) handleKycStatus(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	resp := gin.H{"status": prov.KycStatus}
	if rec, err := s.store.KycByProvider(c.Request.Context(), prov.ID); err == nil && rec.RejectionReason != "" {
		resp["rejection_reason"] = rec.RejectionReason
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleKycUpload(c *gin.Context) {
	prov, ok := s.requireProvider(c)
	if !ok {
		return
	}

	idNumber := c.PostForm("id_number")
	if idNumber == "" {
		detail(c, http.StatusBadRequest, "id_number is required")
		return
	}

	idProof, err := s.saveKycFile(c, prov.ID, "id_proof")
	if err != nil {
		return
	}
	if idProof == "" {
		detail(c, http.StatusBadRequest, "id_proof document is required")
		return
	}
	addressProof, err := s.saveKycFile(c, prov.ID, "address_proof")
	if err != nil {
		return
	}
	profilePhoto, err := s.saveKycFile(c, prov.ID, "profile_photo")
	if err != nil {
		return
	}

	err = s.store.UpsertKyc(c.Request.Context(), prov.ID,
		idNumber, c.PostForm("address_line"), idProof, addressProof, profilePhoto)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to store documents")
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": models.KYCPending})
}

// saveKycFile stores one optional form file under the provider's folder. It
// writes the HTTP error itself and signals the caller with a non-nil error.
func (s *Server) saveKycFile(c *gin.Context, providerID int64, field string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		detail(c, http.StatusBadRequest, "cannot read "+field)
		return "", err
	}
	if header.Size > s.cfg.MaxUploadSizeMB<<20 {
		detail(c, http.StatusRequestEntityTooLarge, field+" is too large")
		return "", fmt.Errorf("%s too large", field)
	}

	content, err := readFormFile(header)
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot read "+field)
		return "", err
	}
	if !isAllowedDocument(content) {
		detail(c, http.StatusBadRequest, field+" must be an image or PDF")
		return "", fmt.Errorf("%s has unsupported type", field)
	}

	dir := filepath.Join(s.cfg.KycStoragePath, fmt.Sprintf("%d", providerID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		detail(c, http.StatusInternalServerError, "failed to store documents")
		return "", err
	}
	dst := filepath.Join(dir, field+filepath.Ext(header.Filename))
	if err := os.WriteFile(dst, content, 0o644); err != nil {
		detail(c, http.StatusInternalServerError, "failed to store documents")
		return "", err
	}
	return dst, nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isAllowedDocument(content []byte) bool {
	kind, err := filetype.Match(content)
	if err != nil || kind == filetype.Unknown {
		return false
	}
	return kind.MIME.Type == "image" || kind.MIME.Value == "application/pdf"
}
