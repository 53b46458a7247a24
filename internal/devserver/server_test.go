package devserver

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-go/internal/api"
	"github.com/quickserve/quickserve-go/internal/config"
	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
	"github.com/quickserve/quickserve-go/internal/session"
)

// pngBytes is a minimal valid PNG signature plus padding, enough for the
// magic-byte sniffing on both sides.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0, 0, 0, 0, 0}

type testEnv struct {
	srv    *httptest.Server
	server *Server
	store  *Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := OpenStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "test-secret-not-for-production-use",
		AccessTokenTTL:  time.Hour,
		KycStoragePath:  t.TempDir(),
		MaxUploadSizeMB: 5,
		RateLimitLimit:  10000,
		RateLimitPeriod: time.Minute,
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	server := New(cfg, store, log)
	require.NoError(t, server.SeedAdmin(ctx, "admin@test.local", "admin-pw-123"))

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, server: server, store: store}
}

// newClient builds an SDK client with its own session file, so several
// identities can act in one test.
func (e *testEnv) newClient(t *testing.T) *api.Client {
	t.Helper()
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return api.New(e.srv.URL, sess, 5*time.Second, log)
}

func (e *testEnv) signupAndLogin(t *testing.T, c *api.Client, role, email string, serviceType string) {
	t.Helper()
	ctx := context.Background()

	in := api.SignupInput{
		FullName: "Test " + role,
		Email:    email,
		Password: "password123",
		Role:     role,
	}
	if role == models.RoleProvider {
		in.ServiceType = serviceType
		price := 500.0
		in.BasePrice = &price
	}
	_, err := c.Signup(ctx, in)
	require.NoError(t, err)

	got, err := c.Login(ctx, email, "password123", role)
	require.NoError(t, err)
	require.Equal(t, role, got)
}

func (e *testEnv) loginAdmin(t *testing.T, c *api.Client) {
	t.Helper()
	got, err := c.Login(context.Background(), "admin@test.local", "admin-pw-123", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, got)
}

// approveProvider walks the KYC flow: upload documents, then approve as
// admin.
func (e *testEnv) approveProvider(t *testing.T, provider *api.Client, admin *api.Client) {
	t.Helper()
	ctx := context.Background()

	idProof := filepath.Join(t.TempDir(), "id.png")
	require.NoError(t, os.WriteFile(idProof, pngBytes, 0o600))
	require.NoError(t, provider.UploadKyc(ctx, models.KYCUpload{
		IDNumber:    "AADH-1234",
		IDProofPath: idProof,
	}))

	status, err := provider.KycStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, models.KYCPending, status)

	queue, err := admin.KycQueue(ctx, models.KYCPending, "", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, queue.Items)
	require.NoError(t, admin.ApproveKyc(ctx, queue.Items[0].ProviderID))

	status, err = provider.KycStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, models.KYCApproved, status)
}

func TestSignupLoginAndProfiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "cust@test.local", "")

	me, err := customer.CustomerMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cust@test.local", me.User.Email)
	assert.Equal(t, 0, me.Stats.Total)

	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "prov@test.local", "plumbing")

	pme, err := provider.ProviderMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plumbing", pme.Provider.ServiceType)
	assert.Equal(t, models.KYCNotSubmitted, pme.Provider.KycStatus)
	assert.False(t, pme.Provider.IsOnline)
}

func TestSignup_DuplicateEmailRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.newClient(t)
	env.signupAndLogin(t, c, models.RoleCustomer, "dup@test.local", "")

	_, err := c.Signup(ctx, api.SignupInput{
		FullName: "Again", Email: "dup@test.local", Password: "password123", Role: models.RoleCustomer,
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	env.signupAndLogin(t, c, models.RoleCustomer, "pw@test.local", "")

	c2 := env.newClient(t)
	_, err := c2.Login(context.Background(), "pw@test.local", "wrong", "")
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestRoleGate_CustomerCannotUseProviderRoutes(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	env.signupAndLogin(t, c, models.RoleCustomer, "gate@test.local", "")

	_, err := c.Incoming(context.Background())
	assert.True(t, apperror.IsForbidden(err))
}

func TestAvailability_GatedOnKyc(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "kyc-gate@test.local", "plumbing")

	_, err := provider.SetAvailability(ctx, models.Availability{IsOnline: true})
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "KYC not approved", appErr.Message)

	// Going offline is never gated.
	isOnline, err := provider.SetAvailability(ctx, models.Availability{IsOnline: false})
	require.NoError(t, err)
	assert.False(t, isOnline)

	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)

	isOnline, err = provider.SetAvailability(ctx, models.Availability{
		IsOnline:    true,
		WorkingDays: []string{"mon", "tue"},
		StartTime:   "09:00",
		EndTime:     "18:00",
	})
	require.NoError(t, err)
	assert.True(t, isOnline)
}

func TestKycReject_ForcesOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "kyc-rej@test.local", "electrical")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)

	_, err := provider.SetAvailability(ctx, models.Availability{IsOnline: true})
	require.NoError(t, err)

	queue, err := admin.KycQueue(ctx, models.KYCApproved, "", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, queue.Items)
	require.NoError(t, admin.RejectKyc(ctx, queue.Items[0].ProviderID, "blurry photo"))

	me, err := provider.ProviderMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.KYCRejected, me.Provider.KycStatus)
	assert.False(t, me.Provider.IsOnline)
}

func TestRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "life-cust@test.local", "")
	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "life-prov@test.local", "plumbing")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)
	_, err := provider.SetAvailability(ctx, models.Availability{IsOnline: true})
	require.NoError(t, err)

	// Create and pick a provider from the nearby list.
	req, err := customer.CreateRequest(ctx, models.RequestCreate{
		Title: "Leaking tap", ServiceType: "plumbing", Address: "12 Hill Rd",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)

	nearby, err := customer.NearbyProviders(ctx, "plumbing", 10)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Nil(t, nearby[0].DistanceKm)

	assigned, err := customer.AssignProvider(ctx, req.ID, nearby[0].ProviderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, assigned.Status)
	require.NotNil(t, assigned.Budget)
	assert.Equal(t, 500.0, *assigned.Budget)

	// The provider sees it and takes it.
	incoming, err := provider.Incoming(ctx)
	require.NoError(t, err)
	require.Len(t, incoming, 1)

	accepted, err := provider.AcceptRequest(ctx, incoming[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, accepted.Status)

	// While the job runs, no new incoming work is offered.
	incoming, err = provider.Incoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, incoming)

	// And the provider disappears from the nearby list.
	nearby, err = customer.NearbyProviders(ctx, "plumbing", 10)
	require.NoError(t, err)
	assert.Empty(t, nearby)

	// Progress to completion.
	for _, next := range []models.RequestStatus{
		models.StatusEnRoute, models.StatusArrived, models.StatusPayment, models.StatusCompleted,
	} {
		updated, err := provider.UpdateJobStatus(ctx, req.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	job, err := provider.CurrentJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)

	me, err := customer.CustomerMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, me.Stats.Completed)
	assert.Equal(t, 0, me.Stats.Active)
}

func TestCancel_PendingOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "cancel-cust@test.local", "")
	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "cancel-prov@test.local", "plumbing")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)

	req, err := customer.CreateRequest(ctx, models.RequestCreate{Title: "Job", ServiceType: "plumbing"})
	require.NoError(t, err)

	me, err := provider.ProviderMe(ctx)
	require.NoError(t, err)
	_, err = customer.AssignProvider(ctx, req.ID, me.Provider.ID)
	require.NoError(t, err)
	_, err = provider.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)

	// Once accepted, the cancel window is closed.
	_, err = customer.CancelRequest(ctx, req.ID)
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "pending")
}

func TestAccept_RefusedWhenNoLongerPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "race-cust@test.local", "")
	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "race-prov@test.local", "plumbing")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)

	req, err := customer.CreateRequest(ctx, models.RequestCreate{Title: "Job", ServiceType: "plumbing"})
	require.NoError(t, err)
	me, err := provider.ProviderMe(ctx)
	require.NoError(t, err)
	_, err = customer.AssignProvider(ctx, req.ID, me.Provider.ID)
	require.NoError(t, err)

	_, err = provider.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)

	// Accepting twice means the pending window is gone.
	_, err = provider.AcceptRequest(ctx, req.ID)
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestJobStatus_BackwardMovesAllowedUntilCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "back-cust@test.local", "")
	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "back-prov@test.local", "plumbing")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)

	req, err := customer.CreateRequest(ctx, models.RequestCreate{Title: "Job", ServiceType: "plumbing"})
	require.NoError(t, err)
	me, err := provider.ProviderMe(ctx)
	require.NoError(t, err)
	_, err = customer.AssignProvider(ctx, req.ID, me.Provider.ID)
	require.NoError(t, err)
	_, err = provider.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = provider.UpdateJobStatus(ctx, req.ID, models.StatusArrived)
	require.NoError(t, err)

	// A mis-tap can be walked back while the job is open.
	updated, err := provider.UpdateJobStatus(ctx, req.ID, models.StatusEnRoute)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnRoute, updated.Status)

	// Cancelling goes through the reject/cancel endpoints, never here.
	_, err = provider.UpdateJobStatus(ctx, req.ID, models.StatusCancelled)
	require.Error(t, err)

	_, err = provider.UpdateJobStatus(ctx, req.ID, models.StatusCompleted)
	require.NoError(t, err)

	// A completed job is sealed.
	_, err = provider.UpdateJobStatus(ctx, req.ID, models.StatusArrived)
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Job already completed", appErr.Message)
}

func TestReject_ReturnsRequestToCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "rej-cust@test.local", "")
	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "rej-prov@test.local", "plumbing")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)
	env.approveProvider(t, provider, admin)

	req, err := customer.CreateRequest(ctx, models.RequestCreate{Title: "Job", ServiceType: "plumbing"})
	require.NoError(t, err)
	me, err := provider.ProviderMe(ctx)
	require.NoError(t, err)
	_, err = customer.AssignProvider(ctx, req.ID, me.Provider.ID)
	require.NoError(t, err)

	rejected, err := provider.RejectRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, rejected.Status)
}

func TestProviderLocationRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "loc@test.local", "plumbing")

	lat, lng, err := provider.MyLocation(ctx)
	require.NoError(t, err)
	assert.Nil(t, lat)
	assert.Nil(t, lng)

	require.NoError(t, provider.PostLocation(ctx, models.LocationUpdate{
		Latitude: 19.07, Longitude: 72.87, IsOnline: false,
	}))

	lat, lng, err = provider.MyLocation(ctx)
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, lng)
	assert.Equal(t, 19.07, *lat)
	assert.Equal(t, 72.87, *lng)
}

func TestAdminStatsAndListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "stats-cust@test.local", "")
	provider := env.newClient(t)
	env.signupAndLogin(t, provider, models.RoleProvider, "stats-prov@test.local", "cleaning")
	admin := env.newClient(t)
	env.loginAdmin(t, admin)

	_, err := customer.CreateRequest(ctx, models.RequestCreate{Title: "Dusty flat", ServiceType: "cleaning"})
	require.NoError(t, err)

	stats, err := admin.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProviders)
	assert.Equal(t, 1, stats.TotalCustomers)
	assert.Equal(t, 1, stats.TotalRequests)

	customers, err := admin.AdminCustomers(ctx, "stats-cust", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, customers.Total)
	assert.Equal(t, "stats-cust@test.local", customers.Items[0].Email)

	providers, err := admin.AdminProviders(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, providers.Total)

	requests, err := admin.AdminRequests(ctx, models.StatusPending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, requests.Total)
}

func TestAdminSettingsRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.newClient(t)
	env.loginAdmin(t, admin)

	settings, err := admin.AdminSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QuickServe", settings.PlatformName)

	settings.CommissionPct = 12.5
	settings.MaintenanceMode = true
	require.NoError(t, admin.UpdateAdminSettings(ctx, *settings))

	reloaded, err := admin.AdminSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.5, reloaded.CommissionPct)
	assert.True(t, reloaded.MaintenanceMode)
}

func TestImageAnalysisAndReverseGeocode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "smart@test.local", "")

	image := filepath.Join(t.TempDir(), "leaking-pipe.png")
	require.NoError(t, os.WriteFile(image, pngBytes, 0o600))

	analysis, err := customer.AnalyzeImage(ctx, image)
	require.NoError(t, err)
	assert.Equal(t, "plumbing", analysis.ServiceType)
	assert.NotEmpty(t, analysis.Title)

	loc, err := customer.ReverseGeocode(ctx, 19.076, 72.8777)
	require.NoError(t, err)
	assert.NotEmpty(t, loc.Address)
	assert.Equal(t, "Mumbai", loc.City)
}

func TestAdminWS_MutationsPushRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.newClient(t)
	env.signupAndLogin(t, customer, models.RoleCustomer, "ws-cust@test.local", "")

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/admin"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, err = customer.CreateRequest(ctx, models.RequestCreate{Title: "Ping", ServiceType: "cleaning"})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"refresh"}`, string(raw))
}
