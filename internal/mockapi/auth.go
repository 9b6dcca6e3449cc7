package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/internal/util"
	"github.com/jmcleod/boardhand/session"
)

type contextKey int

const userKey contextKey = iota

const (
	detailBadCredentials   = "Incorrect username or password"
	detailInvalidToken     = "Could not validate credentials"
	detailNotAuthenticated = "Not authenticated"
)

var errUsernameTaken = errors.New("username already registered")

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an access token for username with the given role. The
// user does not need to exist, which lets tests mint tokens for deleted
// accounts.
func (s *Server) IssueToken(username, role string) (string, error) {
	now := s.now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *Server) parseToken(token string) (*claims, error) {
	var c claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if c.Subject == "" || c.Role == "" {
		return nil, errors.New("token missing sub or role")
	}
	return &c, nil
}

// Token handles POST /token with an OAuth2 password form.
func (s *Server) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}
	username := util.NormalizeUsername(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	if wait := s.guard.wait(username); wait > 0 {
		s.logger.Warn("mockapi: login locked out", "username", username, "retry_after", wait)
		writeLockedOut(w, wait)
		return
	}

	u, ok := s.lookupUser(username)
	if !ok || bcrypt.CompareHashAndPassword(u.hashed, []byte(password)) != nil {
		s.guard.fail(username)
		s.logger.Info("mockapi: login failed", "username", username)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, detailBadCredentials)
		return
	}
	s.guard.succeed(username)

	token, err := s.IssueToken(u.name, u.role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("mockapi: login", "username", u.name, "role", u.role)
	writeJSON(w, http.StatusOK, client.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// AuthMiddleware validates the bearer token and stores the user on the
// request context.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}
		c, err := s.parseToken(token)
		if err != nil {
			s.logger.Debug("mockapi: rejected token", "error", err)
			writeError(w, http.StatusUnauthorized, detailInvalidToken)
			return
		}
		u, ok := s.lookupUser(c.Subject)
		if !ok {
			writeError(w, http.StatusUnauthorized, detailInvalidToken)
			return
		}
		w.Header().Del("WWW-Authenticate")
		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated users whose role is not admin.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := r.Context().Value(userKey).(user)
		if u.role != session.RoleAdmin {
			writeError(w, http.StatusForbidden,
				fmt.Sprintf("Not enough permissions. Requires '%s' role.", session.RoleAdmin))
			return
		}
		next.ServeHTTP(w, r)
	})
}
