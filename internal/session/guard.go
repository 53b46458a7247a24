package session

import (
	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
)

// LoginPath returns the login route for a role, for redirect hints.
func LoginPath(role string) string {
	switch role {
	case "admin":
		return "/admin/login"
	default:
		return "/auth/" + role + "/login"
	}
}

// Require is the route guard: it passes iff a token is present and the
// stored role equals the required one. attempted names the destination so
// it can be resumed after login; all guards preserve it.
func (st *Store) Require(role, attempted string) error {
	sess := st.Current()

	if !sess.LoggedIn() {
		err := *apperror.ErrNotLoggedIn
		err.Message = "not logged in, go to " + LoginPath(role)
		err.Retry = attempted
		return &err
	}
	if sess.Role != role {
		err := *apperror.ErrWrongRole
		err.Message = "this area needs the " + role + " role, go to " + LoginPath(role)
		err.Retry = attempted
		return &err
	}
	return nil
}
