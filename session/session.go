// Package session holds the client-side authentication state: whether the
// user is logged in, the bearer token presented to the API, and the user's
// name and role. The state is observable and mirrored into a durable
// storage.Store so it survives a restart.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jmcleod/boardhand/storage"
)

// Keys under which the session is persisted.
const (
	AccessTokenKey = "accessToken"
	UsernameKey    = "username"
	UserRoleKey    = "userRole"
)

// Navigation destinations.
const (
	DashboardPath = "/dashboard"
	LoginPath     = "/login"
)

// RoleAdmin is the role granted full access to board management.
const RoleAdmin = "admin"

// Session is a snapshot of the authentication state. Absent fields are empty.
type Session struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	AccessToken     string `json:"access_token,omitempty"`
	Username        string `json:"username,omitempty"`
	UserRole        string `json:"user_role,omitempty"`
}

// IsAdmin reports whether the session belongs to an authenticated admin.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated && s.UserRole == RoleAdmin
}

// Navigator moves the user to another page after a login or logout.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type observer struct {
	id int
	fn func(Session)
}

// Holder is the single source of truth for the client's authentication
// state. Every mutation replaces the whole Session, so readers observe
// either the old or the new value, never a mix.
//
// Observers run while the holder serializes writers and must not call
// Subscribe, Login, Logout or ForceExpire.
type Holder struct {
	store  storage.Store
	nav    Navigator
	logger *slog.Logger

	// writeMu orders mutations: the storage writes, the in-memory swap and
	// the observer notifications of one mutation complete before the next
	// begins.
	writeMu sync.Mutex

	mu        sync.RWMutex
	current   Session
	observers []observer
	nextID    int
}

// Option configures a Holder.
type Option func(*Holder)

// WithLogger sets the logger used to report storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Holder) {
		h.logger = logger
	}
}

// New creates a Holder seeded from whatever store holds. A nil store behaves
// like storage.Noop and a nil navigator discards navigation requests.
func New(store storage.Store, nav Navigator, opts ...Option) *Holder {
	if store == nil {
		store = storage.Noop{}
	}
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	h := &Holder{store: store, nav: nav}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.current = h.load()
	return h
}

func (h *Holder) load() Session {
	token := h.get(AccessTokenKey)
	if token == "" {
		return Session{}
	}
	return Session{
		IsAuthenticated: true,
		AccessToken:     token,
		Username:        h.get(UsernameKey),
		UserRole:        h.get(UserRoleKey),
	}
}

func (h *Holder) get(key string) string {
	v, err := h.store.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("session: reading persisted value failed", "key", key, "error", err)
		}
		return ""
	}
	return v
}

// Read returns the current Session.
func (h *Holder) Read() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Subscribe registers fn to receive every Session change. fn is called once
// immediately with the current value. The returned function unsubscribes and
// is safe to call more than once.
func (h *Holder) Subscribe(fn func(Session)) (unsubscribe func()) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.observers = append(h.observers, observer{id: id, fn: fn})
	current := h.current
	h.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, o := range h.observers {
				if o.id == id {
					h.observers = append(h.observers[:i], h.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Login persists the credentials, marks the session authenticated and
// navigates to the dashboard. token must be non-empty; an empty token leaves
// the session unauthenticated. Storage failures are logged, not returned.
func (h *Holder) Login(token, username, role string) {
	h.writeMu.Lock()
	h.persist(map[string]string{
		AccessTokenKey: token,
		UsernameKey:    username,
		UserRoleKey:    role,
	})
	h.set(Session{
		IsAuthenticated: token != "",
		AccessToken:     token,
		Username:        username,
		UserRole:        role,
	})
	h.writeMu.Unlock()

	h.nav.Navigate(DashboardPath)
}

// Logout forgets the credentials and navigates to the login page.
func (h *Holder) Logout() {
	h.writeMu.Lock()
	h.clear()
	h.writeMu.Unlock()

	h.nav.Navigate(LoginPath)
}

// ForceExpire drops the session after the server rejected its token. Unlike
// Logout it does not navigate; callers decide where the user goes next.
// The persisted copy is removed as well so a restart cannot bring the
// rejected token back.
func (h *Holder) ForceExpire() {
	h.logger.Info("session: token rejected by server, expiring session")
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	h.clear()
}

// clear, persist and set require writeMu.
func (h *Holder) clear() {
	for _, key := range []string{AccessTokenKey, UsernameKey, UserRoleKey} {
		if err := h.store.Delete(key); err != nil {
			h.logger.Warn("session: removing persisted value failed", "key", key, "error", err)
		}
	}
	h.set(Session{})
}

func (h *Holder) persist(values map[string]string) {
	for key, value := range values {
		if err := h.store.Set(key, value); err != nil {
			h.logger.Warn("session: persisting value failed", "key", key, "error", err)
		}
	}
}

func (h *Holder) set(s Session) {
	h.mu.Lock()
	h.current = s
	fns := make([]func(Session), len(h.observers))
	for i, o := range h.observers {
		fns[i] = o.fn
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
