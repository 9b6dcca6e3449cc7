package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/internal/config"
	"github.com/jmcleod/boardhand/session"
	"github.com/jmcleod/boardhand/storage"
	bboltstorage "github.com/jmcleod/boardhand/storage/bbolt"
	"github.com/jmcleod/boardhand/storage/memory"
	redisstorage "github.com/jmcleod/boardhand/storage/redis"
)

// app carries what a command needs once flags and environment are resolved.
// The session store, holder and client are opened on first use.
type app struct {
	cfg    config.Config
	out    io.Writer
	logger *slog.Logger

	closer io.Closer
	holder *session.Holder
	client *client.Client
}

// run wraps a RunE so the session store is always released, including when
// the command fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() {
			if err := a.Close(); err != nil {
				a.logger.Warn("closing session store", "error", err)
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) openStore(ctx context.Context) (storage.Store, io.Closer, error) {
	switch a.cfg.StoreBackend {
	case config.StoreBolt:
		if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		s, err := bboltstorage.NewStoreFromFile(a.cfg.SessionDBPath(), &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session storage: %w", err)
		}
		return s, s, nil
	case config.StoreRedis:
		s, err := redisstorage.NewStoreFromAddr(ctx, a.cfg.RedisAddr, a.cfg.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, s, nil
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	default:
		return storage.Noop{}, nil, nil
	}
}

// Session opens the store and returns the session holder seeded from it.
func (a *app) Session(ctx context.Context) (*session.Holder, error) {
	if a.holder != nil {
		return a.holder, nil
	}
	store, closer, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.closer = closer
	nav := session.NavigatorFunc(func(path string) {
		a.logger.Info("navigate", "path", path)
	})
	a.holder = session.New(store, nav, session.WithLogger(a.logger))
	return a.holder, nil
}

// Client returns a client bound to the session holder.
func (a *app) Client(ctx context.Context) (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	h, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	a.client = client.New(a.cfg.BaseURL, h,
		client.WithLogger(a.logger),
		client.WithTokenEndpoint(a.cfg.TokenEndpoint),
	)
	return a.client, nil
}

// Close releases the session store.
func (a *app) Close() error {
	closer := a.closer
	a.closer, a.holder, a.client = nil, nil, nil
	if closer == nil {
		return nil
	}
	return closer.Close()
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explain adds a hint to failures the user can act on.
func explain(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("%w (session expired, run `boardhand login`)", err)
	}
	if errors.Is(err, client.ErrNetwork) {
		return fmt.Errorf("%w (is the backend running?)", err)
	}
	return err
}
