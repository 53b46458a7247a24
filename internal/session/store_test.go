package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
)

func tempSessionPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func signedToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestStore_SetPersistsAndReloads(t *testing.T) {
	path := tempSessionPath(t)

	st := NewStore(path)
	assert.False(t, st.Current().LoggedIn())

	require.NoError(t, st.Set("token-abc", "customer"))
	assert.Equal(t, "token-abc", st.Token())
	assert.Equal(t, "customer", st.Role())

	// A fresh store sees the same session.
	reloaded := NewStore(path)
	assert.Equal(t, "token-abc", reloaded.Token())
	assert.Equal(t, "customer", reloaded.Role())
}

func TestStore_ClearRemovesFile(t *testing.T) {
	path := tempSessionPath(t)
	st := NewStore(path)
	require.NoError(t, st.Set("token-abc", "provider"))

	require.NoError(t, st.Clear())
	assert.False(t, st.Current().LoggedIn())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	assert.NoError(t, st.Clear())
}

func TestStore_CorruptFileMeansLoggedOut(t *testing.T) {
	path := tempSessionPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	st := NewStore(path)
	assert.False(t, st.Current().LoggedIn())
}

func TestStore_SubscribersSeeChanges(t *testing.T) {
	st := NewStore(tempSessionPath(t))
	id, ch := st.Subscribe()
	defer st.Unsubscribe(id)

	require.NoError(t, st.Set("token-abc", "customer"))
	select {
	case sess := <-ch:
		assert.Equal(t, "customer", sess.Role)
		assert.True(t, sess.LoggedIn())
	case <-time.After(time.Second):
		t.Fatal("no session update received")
	}

	require.NoError(t, st.Clear())
	select {
	case sess := <-ch:
		assert.False(t, sess.LoggedIn())
	case <-time.After(time.Second):
		t.Fatal("no logout update received")
	}
}

func TestRoleFromToken(t *testing.T) {
	role, err := RoleFromToken(signedToken(t, "provider"))
	require.NoError(t, err)
	assert.Equal(t, "provider", role)

	_, err = RoleFromToken("garbage")
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestRequire_LoggedOut(t *testing.T) {
	st := NewStore(tempSessionPath(t))

	err := st.Require("customer", "/customer/requests")
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "/customer/requests", appErr.Retry)
	assert.Contains(t, appErr.Message, "/auth/customer/login")
}

func TestRequire_WrongRole(t *testing.T) {
	st := NewStore(tempSessionPath(t))
	require.NoError(t, st.Set("token-abc", "customer"))

	err := st.Require("admin", "/admin/stats")
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "/admin/stats", appErr.Retry)
	assert.Contains(t, appErr.Message, "/admin/login")
}

func TestRequire_Passes(t *testing.T) {
	st := NewStore(tempSessionPath(t))
	require.NoError(t, st.Set("token-abc", "provider"))

	assert.NoError(t, st.Require("provider", "/provider/incoming"))
}

func TestLoginPath(t *testing.T) {
	assert.Equal(t, "/auth/customer/login", LoginPath("customer"))
	assert.Equal(t, "/auth/provider/login", LoginPath("provider"))
	assert.Equal(t, "/admin/login", LoginPath("admin"))
}
