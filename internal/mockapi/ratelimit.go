package mockapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	freeAttempts   = 5
	lockoutStep    = time.Minute
	lockoutCeiling = 15 * time.Minute
	forgetAfter    = time.Hour
)

// lockoutFor is the lockout earned by the given number of consecutive
// failures: nothing below freeAttempts, then lockoutStep doubling per extra
// failure up to lockoutCeiling.
func lockoutFor(failures int) time.Duration {
	if failures < freeAttempts {
		return 0
	}
	d := lockoutStep
	for n := failures - freeAttempts; n > 0 && d < lockoutCeiling; n-- {
		d *= 2
	}
	return min(d, lockoutCeiling)
}

type strikes struct {
	count int
	last  time.Time
	until time.Time
}

// loginGuard counts consecutive bad passwords per username. Accounts are
// keyed by name so a lockout applies whatever client the attempts come from.
type loginGuard struct {
	now func() time.Time

	mu     sync.Mutex
	byName map[string]strikes
}

func newLoginGuard(now func() time.Time) *loginGuard {
	return &loginGuard{now: now, byName: make(map[string]strikes)}
}

// wait returns how long username must wait before trying again; zero means
// the attempt may proceed.
func (g *loginGuard) wait(username string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.byName[username]
	if !ok {
		return 0
	}
	now := g.now()
	if now.Sub(st.last) > forgetAfter {
		delete(g.byName, username)
		return 0
	}
	return max(st.until.Sub(now), 0)
}

func (g *loginGuard) fail(username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	st := g.byName[username]
	st.count++
	st.last = now
	if d := lockoutFor(st.count); d > 0 {
		st.until = now.Add(d)
	}
	g.byName[username] = st
}

func (g *loginGuard) succeed(username string) {
	g.mu.Lock()
	delete(g.byName, username)
	g.mu.Unlock()
}

func writeLockedOut(w http.ResponseWriter, wait time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(max(int(wait.Seconds()), 1)))
	writeError(w, http.StatusTooManyRequests, "Too many failed login attempts. Try again later.")
}
