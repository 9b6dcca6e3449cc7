package session_test

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/boardhand/session"
	"github.com/jmcleod/boardhand/storage"
	boltstore "github.com/jmcleod/boardhand/storage/bbolt"
	"github.com/jmcleod/boardhand/storage/memory"
)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// failingStore rejects every write.
type failingStore struct{ storage.Noop }

func (failingStore) Set(string, string) error { return errors.New("disk full") }
func (failingStore) Delete(string) error      { return errors.New("disk full") }

func TestNew_EmptyStore(t *testing.T) {
	h := session.New(memory.NewStore(), nil)
	assert.Equal(t, session.Session{}, h.Read())
}

func TestNew_NilStoreIsNoop(t *testing.T) {
	h := session.New(nil, nil)
	h.Login("tok", "alice", "user")
	assert.True(t, h.Read().IsAuthenticated)

	// Nothing was persisted, so a fresh holder starts logged out.
	assert.False(t, session.New(nil, nil).Read().IsAuthenticated)
}

func TestNew_SeedsFromStore(t *testing.T) {
	store := memory.NewStore()
	store.Set(session.AccessTokenKey, "tok-1")
	store.Set(session.UsernameKey, "alice")
	store.Set(session.UserRoleKey, "admin")

	h := session.New(store, nil)
	assert.Equal(t, session.Session{
		IsAuthenticated: true,
		AccessToken:     "tok-1",
		Username:        "alice",
		UserRole:        "admin",
	}, h.Read())
}

func TestNew_UsernameWithoutTokenIsUnauthenticated(t *testing.T) {
	store := memory.NewStore()
	store.Set(session.UsernameKey, "alice")

	h := session.New(store, nil)
	assert.Equal(t, session.Session{}, h.Read())
}

func TestLogin(t *testing.T) {
	store := memory.NewStore()
	nav := &recordingNavigator{}
	h := session.New(store, nav)

	h.Login("tok-1", "alice", "admin")

	got := h.Read()
	assert.True(t, got.IsAuthenticated)
	assert.Equal(t, "tok-1", got.AccessToken)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "admin", got.UserRole)
	assert.True(t, got.IsAdmin())
	assert.Equal(t, []string{session.DashboardPath}, nav.visited())

	assert.Equal(t, map[string]string{
		session.AccessTokenKey: "tok-1",
		session.UsernameKey:    "alice",
		session.UserRoleKey:    "admin",
	}, store.Snapshot())

	// A holder re-created from the same store reproduces the session.
	assert.Equal(t, got, session.New(store, nil).Read())
}

func TestLogin_SurvivesRestartWithBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := boltstore.NewStoreFromFile(path, nil)
	require.NoError(t, err)
	session.New(store, nil).Login("tok-bolt", "bob", "user")
	require.NoError(t, store.Close())

	store, err = boltstore.NewStoreFromFile(path, nil)
	require.NoError(t, err)
	defer store.Close()

	got := session.New(store, nil).Read()
	assert.Equal(t, session.Session{
		IsAuthenticated: true,
		AccessToken:     "tok-bolt",
		Username:        "bob",
		UserRole:        "user",
	}, got)
	assert.False(t, got.IsAdmin())
}

func TestLogin_EmptyTokenStaysUnauthenticated(t *testing.T) {
	h := session.New(memory.NewStore(), nil)
	h.Login("", "alice", "user")
	assert.False(t, h.Read().IsAuthenticated)
}

func TestLogin_StorageFailureNotSurfaced(t *testing.T) {
	h := session.New(failingStore{}, nil)
	h.Login("tok", "alice", "user")
	assert.True(t, h.Read().IsAuthenticated)
}

func TestLogout(t *testing.T) {
	store := memory.NewStore()
	nav := &recordingNavigator{}
	h := session.New(store, nav)
	h.Login("tok-1", "alice", "admin")

	h.Logout()

	assert.Equal(t, session.Session{}, h.Read())
	assert.Empty(t, store.Snapshot())
	assert.Equal(t, []string{session.DashboardPath, session.LoginPath}, nav.visited())
}

func TestForceExpire(t *testing.T) {
	store := memory.NewStore()
	nav := &recordingNavigator{}
	h := session.New(store, nav)
	h.Login("tok-1", "alice", "admin")

	h.ForceExpire()

	assert.Equal(t, session.Session{}, h.Read())
	assert.Empty(t, store.Snapshot(), "forced expiry clears the persisted token")
	assert.Equal(t, []string{session.DashboardPath}, nav.visited(), "forced expiry must not navigate")
	assert.False(t, session.New(store, nil).Read().IsAuthenticated)
}

func TestSubscribe(t *testing.T) {
	h := session.New(memory.NewStore(), nil)

	var seen []session.Session
	unsubscribe := h.Subscribe(func(s session.Session) {
		seen = append(seen, s)
	})

	require.Len(t, seen, 1, "observer is called immediately")
	assert.False(t, seen[0].IsAuthenticated)

	h.Login("tok", "alice", "user")
	h.ForceExpire()
	require.Len(t, seen, 3)
	assert.True(t, seen[1].IsAuthenticated)
	assert.False(t, seen[2].IsAuthenticated)

	unsubscribe()
	unsubscribe()
	h.Login("tok-2", "alice", "user")
	assert.Len(t, seen, 3, "no notifications after unsubscribe")
}

func TestSubscribe_OneShotRead(t *testing.T) {
	h := session.New(memory.NewStore(), nil)
	h.Login("tok", "carol", "admin")

	var role string
	h.Subscribe(func(s session.Session) { role = s.UserRole })()

	assert.Equal(t, "admin", role)
}

func TestSubscribe_UnsubscribeKeepsOthers(t *testing.T) {
	h := session.New(memory.NewStore(), nil)

	var a, b int
	unsubA := h.Subscribe(func(session.Session) { a++ })
	h.Subscribe(func(session.Session) { b++ })
	unsubA()

	h.Login("tok", "alice", "user")
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	h := session.New(memory.NewStore(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				h.Login("tok", "alice", "admin")
				h.ForceExpire()
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s := h.Read()
				if s.IsAuthenticated != (s.AccessToken != "") {
					t.Errorf("torn session: %+v", s)
					return
				}
				if !s.IsAuthenticated && (s.Username != "" || s.UserRole != "") {
					t.Errorf("partial session: %+v", s)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// gatedStore blocks the first Delete of gateKey until release is closed.
type gatedStore struct {
	*memory.Store
	gateKey string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) Delete(key string) error {
	if key == g.gateKey {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Store.Delete(key)
}

func TestLoginDuringForceExpireKeepsStoreConsistent(t *testing.T) {
	store := &gatedStore{
		Store:   memory.NewStore(),
		gateKey: session.UserRoleKey,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	h := session.New(store, nil)
	h.Login("old", "alice", "user")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.ForceExpire()
	}()
	<-store.entered

	go func() {
		defer wg.Done()
		h.Login("new", "bob", "admin")
	}()
	// Give Login the chance to run into the half-finished expiry.
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	want := session.Session{IsAuthenticated: true, AccessToken: "new", Username: "bob", UserRole: "admin"}
	assert.Equal(t, want, h.Read())
	assert.Equal(t, map[string]string{
		session.AccessTokenKey: "new",
		session.UsernameKey:    "bob",
		session.UserRoleKey:    "admin",
	}, store.Snapshot())
	assert.Equal(t, want, session.New(store.Store, nil).Read(), "restart sees the same session")
}

func TestObserversEndOnLatestValue(t *testing.T) {
	h := session.New(memory.NewStore(), nil)

	var mu sync.Mutex
	var last session.Session
	h.Subscribe(func(s session.Session) {
		mu.Lock()
		last = s
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if j%2 == 0 {
					h.Login("tok", "alice", "admin")
				} else {
					h.ForceExpire()
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, h.Read(), last)
}
