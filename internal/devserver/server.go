package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/config"
	"github.com/quickserve/quickserve-go/internal/models"
)

// Server is the local QuickServe backend the CLI and the integration tests
// talk to. It speaks the same HTTP contract as the hosted API.
type Server struct {
	cfg      *config.Config
	store    *Store
	tokens   *tokenIssuer
	hub      *hub
	log      logrus.FieldLogger
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// New builds the server around an opened store.
func New(cfg *config.Config, store *Store, log logrus.FieldLogger) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		tokens: newTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		hub:    newHub(log),
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.engine = s.buildRouter()
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = s.cfg.MaxUploadSizeMB << 20
	r.Use(rateLimitMiddleware(s.cfg.RateLimitLimit, s.cfg.RateLimitPeriod))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/signup", s.handleSignup)
		auth.POST("/login", s.handleLogin)
		auth.POST("/logout", s.handleLogout)
	}

	authed := r.Group("/", authMiddleware(s.tokens))
	{
		authed.GET("/location/reverse", s.handleReverseGeocode)
		authed.POST("/ai/analyze-image", s.handleAnalyzeImage)
		authed.GET("/providers/:id", s.handleProviderPublic)
	}

	customer := r.Group("/", authMiddleware(s.tokens), requireRole(models.RoleCustomer))
	{
		customer.GET("/customer/me", s.handleCustomerMe)
		customer.PATCH("/customer/me", s.handleCustomerUpdate)
		customer.GET("/customer/nearby-providers", s.handleNearbyProviders)

		customer.POST("/requests", s.handleCreateRequest)
		customer.GET("/requests/my", s.handleMyRequests)
		customer.GET("/requests/:id", s.handleRequestByID)
		customer.POST("/requests/:id/cancel", s.handleCancelRequest)
		customer.POST("/requests/:id/assign-provider", s.handleAssignProvider)
	}

	provider := r.Group("/provider", authMiddleware(s.tokens), requireRole(models.RoleProvider))
	{
		provider.GET("/me", s.handleProviderMe)
		provider.PUT("/me", s.handleProviderUpdate)
		provider.PUT("/me/availability", s.handleAvailability)

		provider.POST("/providers/location", s.handlePostLocation)
		provider.GET("/providers/location/me", s.handleMyLocation)

		provider.GET("/incoming", s.handleIncoming)
		provider.GET("/history", s.handleHistory)
		provider.GET("/current-job", s.handleCurrentJob)

		provider.GET("/requests/:id", s.handleProviderRequest)
		provider.POST("/requests/:id/accept", s.handleAcceptRequest)
		provider.POST("/requests/:id/reject", s.handleRejectRequest)
		provider.POST("/requests/:id/status", s.handleJobStatus)

		provider.GET("/kyc/status", s.handleKycStatus)
		provider.POST("/kyc/upload", s.handleKycUpload)
	}

	admin := r.Group("/admin", authMiddleware(s.tokens), requireRole(models.RoleAdmin))
	{
		admin.GET("/stats", s.handleAdminStats)
		admin.GET("/kyc", s.handleKycQueue)
		admin.GET("/kyc/:provider_id", s.handleKycDetail)
		admin.POST("/kyc/:provider_id/approve", s.handleKycApprove)
		admin.POST("/kyc/:provider_id/reject", s.handleKycReject)
		admin.GET("/providers", s.handleAdminProviders)
		admin.GET("/customers", s.handleAdminCustomers)
		admin.GET("/requests", s.handleAdminRequests)
		admin.GET("/reports", s.handleAdminReports)
		admin.POST("/reports/:id/resolve", s.handleResolveReport)
		admin.GET("/settings", s.handleGetSettings)
		admin.PUT("/settings", s.handlePutSettings)
	}

	r.GET("/ws/admin", s.handleAdminWS)

	return r
}

// Run serves until the context ends, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.HTTPPort,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.WithField("port", s.cfg.HTTPPort).Info("devserver: listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// SeedAdmin creates the administrator account when it does not exist yet.
func (s *Server) SeedAdmin(ctx context.Context, email, password string) error {
	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.store.CreateUser(ctx, email, "Administrator", hash, models.RoleAdmin)
	return err
}

// handleAdminWS upgrades the admin dashboard socket. A token is accepted
// from either the Authorization header or the token query parameter; when
// present it must belong to an admin.
func (s *Server) handleAdminWS(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		if auth := c.GetHeader("Authorization"); len(auth) > 7 {
			raw = auth[7:]
		}
	}
	if raw != "" {
		if _, role, err := s.tokens.Parse(raw); err != nil || role != models.RoleAdmin {
			detail(c, http.StatusForbidden, "Not enough permissions")
			return
		}
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	newWSClient(conn, s.hub).run()
}
