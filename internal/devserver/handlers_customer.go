package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickserve/quickserve-go/internal/models"
)

func (s *Server) handleCustomerMe(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := s.store.UserByID(ctx, currentUserID(c))
	if err != nil {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	customerID, err := s.store.CustomerIDByUserID(ctx, user.ID)
	if err != nil {
		detail(c, http.StatusNotFound, "Customer profile not found")
		return
	}
	active, completed, total, err := s.store.CustomerStats(ctx, customerID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	var me models.CustomerMe
	me.User = user.toModel()
	me.Customer.ID = customerID
	me.Stats.Active = active
	me.Stats.Completed = completed
	me.Stats.Total = total
	c.JSON(http.StatusOK, me)
}

type customerUpdateRequest struct {
	FullName        *string `json:"full_name"`
	Email           *string `json:"email"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

func (s *Server) handleCustomerUpdate(c *gin.Context) {
	var in customerUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.UserByID(ctx, currentUserID(c))
	if err != nil {
		detail(c, http.StatusNotFound, "User not found")
		return
	}

	var newHash *string
	if in.NewPassword != nil {
		if in.CurrentPassword == nil || !checkPassword(user.HashedPassword, *in.CurrentPassword) {
			detail(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		hash, err := hashPassword(*in.NewPassword)
		if err != nil {
			detail(c, http.StatusInternalServerError, "update failed")
			return
		}
		newHash = &hash
	}

	if in.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &lowered
		if existing, err := s.store.UserByEmail(ctx, lowered); err == nil && existing.ID != user.ID {
			detail(c, http.StatusConflict, "Email already registered")
			return
		}
	}

	if err := s.store.UpdateCustomerUser(ctx, user.ID, in.FullName, in.Email, newHash); err != nil {
		detail(c, http.StatusInternalServerError, "update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleNearbyProviders(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	items, err := s.store.NearbyProviders(c.Request.Context(), c.Query("service_type"), limit)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list providers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleProviderPublic(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	ctx := c.Request.Context()
	prov, err := s.store.ProviderByID(ctx, id)
	if err != nil {
		detail(c, http.StatusNotFound, "Provider not found")
		return
	}
	user, err := s.store.UserByID(ctx, prov.UserID)
	if err != nil {
		detail(c, http.StatusNotFound, "Provider not found")
		return
	}

	c.JSON(http.StatusOK, models.ProviderPublic{
		ID:            prov.ID,
		Name:          user.FullName,
		ServiceType:   prov.ServiceType,
		City:          prov.City,
		BasePrice:     prov.BasePrice,
		Rating:        prov.Rating,
		JobsCompleted: prov.JobsCompleted,
		IsOnline:      prov.IsOnline,
	})
}

// requireCustomerID resolves the caller's customer profile or writes the
// error response.
func (s *Server) requireCustomerID(c *gin.Context) (int64, bool) {
	customerID, err := s.store.CustomerIDByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		detail(c, http.StatusNotFound, "Customer profile not found")
		return 0, false
	}
	return customerID, true
}

func (s *Server) handleCreateRequest(c *gin.Context) {
	var in models.RequestCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.ServiceType) == "" {
		detail(c, http.StatusBadRequest, "title and service_type are required")
		return
	}

	customerID, ok := s.requireCustomerID(c)
	if !ok {
		return
	}
	row, err := s.store.CreateRequest(c.Request.Context(), customerID, in)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to create request")
		return
	}

	s.hub.NotifyRefresh()
	c.JSON(http.StatusCreated, row.toModel())
}

func (s *Server) handleMyRequests(c *gin.Context) {
	customerID, ok := s.requireCustomerID(c)
	if !ok {
		return
	}
	rows, err := s.store.RequestsByCustomer(c.Request.Context(), customerID,
		intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list requests")
		return
	}
	c.JSON(http.StatusOK, requestModels(rows))
}

func (s *Server) handleRequestByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	customerID, ok := s.requireCustomerID(c)
	if !ok {
		return
	}
	row, err := s.store.RequestForCustomer(c.Request.Context(), id, customerID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	c.JSON(http.StatusOK, row.toModel())
}

func (s *Server) handleCancelRequest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	customerID, ok := s.requireCustomerID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	row, err := s.store.RequestForCustomer(ctx, id, customerID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	if row.Status != string(models.StatusPending) {
		detail(c, http.StatusBadRequest, "Only pending requests can be cancelled")
		return
	}
	if err := s.store.UpdateRequestStatus(ctx, id, models.StatusCancelled); err != nil {
		detail(c, http.StatusInternalServerError, "failed to cancel request")
		return
	}

	s.hub.NotifyRefresh()
	row.Status = string(models.StatusCancelled)
	c.JSON(http.StatusOK, row.toModel())
}

type assignRequest struct {
	ProviderID int64 `json:"provider_id" binding:"required"`
}

func (s *Server) handleAssignProvider(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	var in assignRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	customerID, ok := s.requireCustomerID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	row, err := s.store.RequestForCustomer(ctx, id, customerID)
	if err != nil {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	if row.Status != string(models.StatusPending) {
		detail(c, http.StatusBadRequest, "Only pending requests can be assigned")
		return
	}
	prov, err := s.store.ProviderByID(ctx, in.ProviderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			detail(c, http.StatusNotFound, "Provider not found")
		} else {
			detail(c, http.StatusInternalServerError, "failed to assign provider")
		}
		return
	}

	// The chosen provider's base price becomes the budget; the request
	// stays pending until the provider accepts.
	if err := s.store.AssignProvider(ctx, id, prov.ID, prov.BasePrice); err != nil {
		detail(c, http.StatusInternalServerError, "failed to assign provider")
		return
	}

	s.hub.NotifyRefresh()
	row.ProviderID = &prov.ID
	row.Budget = &prov.BasePrice
	c.JSON(http.StatusOK, row.toModel())
}

// ---- small helpers ----

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		detail(c, http.StatusBadRequest, "invalid id")
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func requestModels(rows []requestRow) []models.Request {
	out := make([]models.Request, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}
