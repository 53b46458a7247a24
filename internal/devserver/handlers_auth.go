package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickserve/quickserve-go/internal/models"
)

type signupRequest struct {
	FullName    string   `json:"full_name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=6"`
	Role        string   `json:"role" binding:"required"`
	ServiceType string   `json:"service_type"`
	BasePrice   *float64 `json:"base_price"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var in signupRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.Role != models.RoleCustomer && in.Role != models.RoleProvider {
		detail(c, http.StatusBadRequest, "role must be customer or provider")
		return
	}
	if in.Role == models.RoleProvider && in.ServiceType == "" {
		detail(c, http.StatusBadRequest, "service_type is required for providers")
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		detail(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, ErrNotFound) {
		detail(c, http.StatusInternalServerError, "signup failed")
		return
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		detail(c, http.StatusInternalServerError, "signup failed")
		return
	}
	userID, err := s.store.CreateUser(ctx, email, in.FullName, hash, in.Role)
	if err != nil {
		detail(c, http.StatusInternalServerError, "signup failed")
		return
	}

	switch in.Role {
	case models.RoleCustomer:
		_, err = s.store.CreateCustomer(ctx, userID)
	case models.RoleProvider:
		basePrice := 0.0
		if in.BasePrice != nil {
			basePrice = *in.BasePrice
		}
		_, err = s.store.CreateProvider(ctx, userID, in.ServiceType, basePrice)
	}
	if err != nil {
		detail(c, http.StatusInternalServerError, "signup failed")
		return
	}

	c.JSON(http.StatusCreated, models.User{
		ID: userID, Email: email, FullName: in.FullName, Role: in.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := s.store.UserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil || !checkPassword(user.HashedPassword, in.Password) {
		detail(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		detail(c, http.StatusInternalServerError, "login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// handleLogout exists so clients have somewhere to say goodbye. Tokens are
// stateless, there is nothing to revoke here.
func (s *Server) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
