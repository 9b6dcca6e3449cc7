// Package mockapi is an in-memory stand-in for the boards backend. It issues
// real HS256 bearer tokens and enforces the same 401/403 rules, so the client
// can be exercised end to end without the production service.
package mockapi

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/internal/util"
	"github.com/jmcleod/boardhand/session"
)

const (
	defaultTokenTTL = 30 * time.Minute
	minPasswordLen  = 6
)

//go:embed openapi.yaml
var openapiSpec []byte

type user struct {
	id     int
	name   string
	role   string
	hashed []byte
}

type testResult struct {
	boardID int
	at      time.Time
	passed  bool
}

type intervention struct {
	defect string
	at     time.Time
}

// Server holds the in-memory backend state.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
	guard    *loginGuard

	mu            sync.RWMutex
	users         map[string]user
	nextUserID    int
	boards        map[int]client.Board
	nextBoardID   int
	results       []testResult
	interventions []intervention
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HMAC key used to sign tokens. A random key is
// generated when unset.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = util.CopyBytes(secret)
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithClock replaces time.Now, for tests that need expired tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates an empty Server.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		tokenTTL:    defaultTokenTTL,
		now:         time.Now,
		users:       make(map[string]user),
		boards:      make(map[int]client.Board),
		nextUserID:  1,
		nextBoardID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.guard = newLoginGuard(s.now)
	if len(s.secret) == 0 {
		secret, err := util.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		s.secret = secret
	}
	return s, nil
}

// AddUser registers an account. role defaults to "user".
func (s *Server) AddUser(username, password, role string) (client.User, error) {
	username = util.NormalizeUsername(username)
	if username == "" {
		return client.User{}, fmt.Errorf("username is required")
	}
	if len(password) < minPasswordLen {
		return client.User{}, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if role == "" {
		role = "user"
	}
	if role != "user" && role != session.RoleAdmin {
		return client.User{}, fmt.Errorf("unknown role %q", role)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return client.User{}, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return client.User{}, errUsernameTaken
	}
	u := user{id: s.nextUserID, name: username, role: role, hashed: hashed}
	s.nextUserID++
	s.users[username] = u
	return client.User{ID: u.id, Username: u.name, Role: u.role}, nil
}

// RemoveUser deletes an account; tokens issued to it stop validating.
func (s *Server) RemoveUser(username string) {
	s.mu.Lock()
	delete(s.users, username)
	s.mu.Unlock()
}

func (s *Server) lookupUser(username string) (user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	return u, ok
}

// AddBoard stores a board and returns it with its assigned ID.
func (s *Server) AddBoard(in client.BoardCreate) client.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := boardFromCreate(s.nextBoardID, in)
	s.nextBoardID++
	s.boards[b.ID] = b
	return b
}

// RecordTest records one test run of a board.
func (s *Server) RecordTest(boardID int, at time.Time, passed bool) {
	s.mu.Lock()
	s.results = append(s.results, testResult{boardID: boardID, at: at, passed: passed})
	s.mu.Unlock()
}

// RecordDefect records a repair intervention for the named defect.
func (s *Server) RecordDefect(defect string, at time.Time) {
	s.mu.Lock()
	s.interventions = append(s.interventions, intervention{defect: defect, at: at})
	s.mu.Unlock()
}

func (s *Server) sortedBoards() []client.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]client.Board, 0, len(s.boards))
	for _, b := range s.boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Router returns a chi.Router with every backend route mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))
	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Post("/token", s.Token)
	r.With(s.AuthMiddleware, s.RequireAdmin).Post("/register-user", s.RegisterUser)

	r.Route("/api/boards", func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		r.Get("/", s.ListBoards)
		r.With(s.RequireAdmin).Post("/", s.CreateBoard)
		r.Route("/{boardID}", func(r chi.Router) {
			r.Use(s.RequireAdmin)
			r.Get("/", s.GetBoard)
			r.Put("/", s.UpdateBoard)
			r.Delete("/", s.DeleteBoard)
		})
	})
	r.Get("/api/quality-metrics", s.QualityMetrics)

	return r
}
