// Package session is the single source of truth for the locally persisted
// session (access token + role). Every guard and API call reads through it
// instead of touching storage ad hoc.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
)

// Session is the persisted token/role pair.
type Session struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"user_role"`
}

// LoggedIn reports whether a token is present.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}

// Store keeps the session in memory and mirrors it to a file, with
// read/subscribe/clear operations.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Session
	subs    map[uuid.UUID]chan Session
}

// NewStore loads the session file if one exists. A missing or unreadable
// file just means logged out.
func NewStore(path string) *Store {
	st := &Store{
		path: path,
		subs: make(map[uuid.UUID]chan Session),
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var sess Session
		if json.Unmarshal(raw, &sess) == nil {
			st.current = sess
		}
	}
	return st
}

// Current returns a copy of the session.
func (st *Store) Current() Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Token returns the stored access token, empty when logged out.
func (st *Store) Token() string {
	return st.Current().AccessToken
}

// Role returns the stored role, empty when logged out.
func (st *Store) Role() string {
	return st.Current().Role
}

// Set records a new session and persists it.
func (st *Store) Set(token, role string) error {
	st.mu.Lock()
	st.current = Session{AccessToken: token, Role: role}
	err := st.persistLocked()
	st.mu.Unlock()

	st.notify()
	return err
}

// Clear wipes token and role, removes the file and notifies subscribers.
// Called on logout and on any 401.
func (st *Store) Clear() error {
	st.mu.Lock()
	st.current = Session{}
	err := os.Remove(st.path)
	if os.IsNotExist(err) {
		err = nil
	}
	st.mu.Unlock()

	st.notify()
	return err
}

// Subscribe returns a channel receiving every session change. The channel
// is buffered; a slow subscriber drops updates rather than blocking writers.
func (st *Store) Subscribe() (uuid.UUID, <-chan Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := uuid.New()
	ch := make(chan Session, 4)
	st.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (st *Store) Unsubscribe(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if ch, ok := st.subs[id]; ok {
		delete(st.subs, id)
		close(ch)
	}
}

func (st *Store) notify() {
	st.mu.RLock()
	defer st.mu.RUnlock()

	for _, ch := range st.subs {
		select {
		case ch <- st.current:
		default:
		}
	}
}

// persistLocked writes the session atomically (temp file + rename) so a
// crash never leaves a torn credential file. Caller holds the lock.
func (st *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return err
	}

	raw, err := json.Marshal(st.current)
	if err != nil {
		return err
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, st.path)
}

// RoleFromToken extracts the role claim without verifying the signature.
// The client never holds the signing secret; validity is the backend's
// problem and expiry is discovered on 401.
func RoleFromToken(token string) (string, error) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeUnauthorized, "cannot decode access token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperror.New(apperror.ErrCodeUnauthorized, "unexpected token claims")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return "", apperror.New(apperror.ErrCodeUnauthorized, "token carries no role")
	}
	return role, nil
}
