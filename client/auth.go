package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jmcleod/boardhand/internal/util"
	"github.com/jmcleod/boardhand/session"
)

// TokenResponse is the body returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// tokenClaims are the claims the backend embeds in its access tokens.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate exchanges username and password for an access token and logs
// the session in with it. A rejected login is reported as KindHTTP and leaves
// any existing session untouched.
func (c *Client) Authenticate(ctx context.Context, username, password string) (session.Session, error) {
	username = util.NormalizeUsername(username)
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok TokenResponse
	if err := c.CallInto(ctx, http.MethodPost, c.tokenEndpoint, form, EncodingForm, &tok); err != nil {
		return session.Session{}, err
	}
	if tok.AccessToken == "" {
		return session.Session{}, fmt.Errorf("%s: %w", c.tokenEndpoint, ErrMissingToken)
	}

	claims := TokenClaims(tok.AccessToken)
	if claims.Subject != "" && claims.Subject != username {
		c.logger.Warn("token subject differs from login name",
			"username", username, "subject", claims.Subject)
	}
	c.session.Login(tok.AccessToken, username, claims.Role)
	c.logger.Info("logged in", "username", username, "role", claims.Role)
	return c.session.Read(), nil
}

// Claims is the identity carried by an access token.
type Claims struct {
	Subject string
	Role    string
}

// TokenClaims reads the subject and role from a JWT access token without
// verifying its signature: the client only carries the token, the server
// validates it. Opaque or malformed tokens yield empty claims.
func TokenClaims(token string) Claims {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}
	}
	return Claims{Subject: claims.Subject, Role: claims.Role}
}
