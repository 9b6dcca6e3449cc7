// Package page holds the glue that runs before a page is rendered: auth
// guards that decide whether the visitor may see the page at all, and
// loaders that turn client failures into status-coded page errors.
package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/session"
)

// Redirect tells the caller to send the visitor elsewhere instead of
// rendering the page.
type Redirect struct {
	Status   int
	Location string
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect %d to %s", r.Status, r.Location)
}

// Error is a page load failure with the status the page should be served
// with.
type Error struct {
	Status  int
	Message string
	// Err is the failure the page error was derived from, if any.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Subscriber is the part of session.Holder the guards need.
type Subscriber interface {
	Subscribe(fn func(session.Session)) (unsubscribe func())
}

// current takes a one-shot reading of the session.
func current(s Subscriber) session.Session {
	var snap session.Session
	unsubscribe := s.Subscribe(func(v session.Session) { snap = v })
	unsubscribe()
	return snap
}

func redirectTo(location string) *Redirect {
	return &Redirect{Status: http.StatusFound, Location: location}
}

// RequireAuth returns a *Redirect to the login page when nobody is logged in.
func RequireAuth(s Subscriber) error {
	if !current(s).IsAuthenticated {
		return redirectTo(session.LoginPath)
	}
	return nil
}

// RequireAdmin guards admin-only pages such as user registration. Anonymous
// visitors go to the login page and non-admins to the dashboard.
func RequireAdmin(s Subscriber) error {
	snap := current(s)
	switch {
	case !snap.IsAuthenticated:
		return redirectTo(session.LoginPath)
	case snap.UserRole != session.RoleAdmin:
		return redirectTo(session.DashboardPath)
	}
	return nil
}

// LoadError converts a failed client call into an *Error. The status comes
// from the response when there was one and is 500 otherwise. fallback is
// used as the message when err has none. A nil err yields a nil error.
func LoadError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	status := client.StatusCode(err)
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	return &Error{Status: status, Message: msg, Err: err}
}

// BoardGetter fetches a single board.
type BoardGetter interface {
	GetBoard(ctx context.Context, id int) (*client.Board, error)
}

// LoadBoard loads the board shown on the edit page. token is the access
// token of the visitor; without one the page is refused before any request
// is made.
func LoadBoard(ctx context.Context, c BoardGetter, token string, id int) (*client.Board, error) {
	if token == "" {
		return nil, &Error{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}
	b, err := c.GetBoard(ctx, id)
	if err != nil {
		return nil, LoadError(err, "Failed to load board data")
	}
	return b, nil
}
