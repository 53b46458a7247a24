package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
	"github.com/quickserve/quickserve-go/internal/session"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *session.Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	c := New(srv.URL, sess, 5*time.Second, logrus.New())
	return c, sess, srv
}

func testToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7", "role": role, "exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return raw
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 1, "title": "t", "service_type": "plumbing", "status": "pending"}`))
	}))

	require.NoError(t, sess.Set("my-token", "customer"))
	_, err := c.Request(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Bearer my-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	hit := false
	c, _, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))

	_, _ = c.Request(context.Background(), 1)
	require.True(t, hit)
	assert.Empty(t, gotAuth)
}

func TestClient_401ClearsSessionAndPointsAtLogin(t *testing.T) {
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Could not validate credentials"}`))
	}))
	require.NoError(t, sess.Set("stale-token", "provider"))

	_, err := c.Incoming(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "/auth/provider/login")

	// The session is gone, so the guard now fails closed.
	assert.False(t, sess.Current().LoggedIn())
}

func TestClient_ErrorDetailSurfaces(t *testing.T) {
	c, _, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "KYC not approved"}`))
	}))

	_, err := c.SetAvailability(context.Background(), models.Availability{IsOnline: true})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "KYC not approved", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestClient_TransportErrorIsTyped(t *testing.T) {
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	c := New("http://127.0.0.1:1", sess, time.Second, logrus.New())

	_, err := c.CustomerMe(context.Background())
	assert.True(t, apperror.IsTransport(err))
}

func TestClient_ContextCancellationStopsCall(t *testing.T) {
	c, _, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.MyRequests(ctx, 10, 0)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request did not return")
	}
}

func TestGoOnline_UnapprovedKycNeverCallsAvailability(t *testing.T) {
	availabilityHit := false
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/provider/kyc/status":
			w.Write([]byte(`{"status": "pending"}`))
		case "/provider/me/availability":
			availabilityHit = true
			w.Write([]byte(`{"ok": true, "is_online": true}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	require.NoError(t, sess.Set(testToken(t, "provider"), "provider"))

	_, err := c.GoOnline(context.Background(), models.Availability{})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	// The caller is routed to the upload flow, not to the backend error.
	assert.Contains(t, err.Error(), "/provider/kyc/upload")
	assert.False(t, availabilityHit)
}

func TestGoOnline_ApprovedKycFlipsTheFlag(t *testing.T) {
	availabilityHit := false
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/provider/kyc/status":
			w.Write([]byte(`{"status": "approved"}`))
		case "/provider/me/availability":
			availabilityHit = true
			w.Write([]byte(`{"ok": true, "is_online": true}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	require.NoError(t, sess.Set(testToken(t, "provider"), "provider"))

	isOnline, err := c.GoOnline(context.Background(), models.Availability{})
	require.NoError(t, err)
	assert.True(t, isOnline)
	assert.True(t, availabilityHit)
}

func TestLogin_BadCredentialsKeepExistingSession(t *testing.T) {
	var loginAuth string
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Incorrect email or password"}`))
	}))
	// A customer is already signed in; a failed re-login as someone else
	// must not cost them that session.
	require.NoError(t, sess.Set("customer-token", "customer"))

	_, err := c.Login(context.Background(), "other@b.c", "wrong", "")
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))

	// Credential exchanges carry no bearer token.
	assert.Empty(t, loginAuth)
	assert.True(t, sess.Current().LoggedIn())
	assert.Equal(t, "customer-token", sess.Token())
}

func TestLogin_StoresRoleFromToken(t *testing.T) {
	token := testToken(t, "customer")
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		w.Write([]byte(`{"access_token": "` + token + `", "token_type": "bearer"}`))
	}))

	role, err := c.Login(context.Background(), "a@b.c", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, "customer", role)
	assert.Equal(t, token, sess.Token())
	assert.Equal(t, "customer", sess.Role())
}

func TestLogin_RefusesWrongRole(t *testing.T) {
	token := testToken(t, "provider")
	c, sess, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token": "` + token + `", "token_type": "bearer"}`))
	}))

	_, err := c.Login(context.Background(), "a@b.c", "pw", "customer")
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	// Nothing was stored.
	assert.False(t, sess.Current().LoggedIn())
}

func TestLogout_ClearsSessionEvenWhenBackendIsDown(t *testing.T) {
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, sess.Set("tok", "customer"))
	c := New("http://127.0.0.1:1", sess, time.Second, logrus.New())

	err := c.Logout(context.Background())
	assert.NoError(t, err)
	assert.False(t, sess.Current().LoggedIn())
}

func TestWebSocketURL(t *testing.T) {
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	c := New("http://127.0.0.1:8000", sess, time.Second, logrus.New())
	assert.Equal(t, "ws://127.0.0.1:8000/ws/admin", c.WebSocketURL("/ws/admin"))

	c = New("https://tunnel.trycloudflare.com", sess, time.Second, logrus.New())
	assert.Equal(t, "wss://tunnel.trycloudflare.com/ws/admin", c.WebSocketURL("/ws/admin"))
}

func TestCurrentJob_EmptyObjectMeansIdle(t *testing.T) {
	c, _, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	req, err := c.CurrentJob(context.Background())
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestUploadKyc_RequiresIDProof(t *testing.T) {
	c, _, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("nothing should reach the backend")
	}))

	err := c.UploadKyc(context.Background(), models.KYCUpload{IDNumber: "X1"})
	assert.True(t, apperror.IsValidation(err))
}

func TestUploadKyc_RejectsUnsupportedFile(t *testing.T) {
	c, _, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("nothing should reach the backend")
	}))

	bad := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("just text"), 0o600))

	err := c.UploadKyc(context.Background(), models.KYCUpload{IDNumber: "X1", IDProofPath: bad})
	assert.True(t, apperror.IsValidation(err))
}
