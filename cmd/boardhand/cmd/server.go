package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/internal/mockapi"
	"github.com/jmcleod/boardhand/internal/util"
	"github.com/jmcleod/boardhand/session"
)

type mockServerFlags struct {
	port          int
	host          string
	adminUser     string
	adminPassword string
	seed          bool
	tokenTTL      time.Duration
}

func newMockServerCmd(a *app) *cobra.Command {
	var flags mockServerFlags
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory boards backend for local development",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			api, password, err := newMockBackend(a, flags)
			if err != nil {
				return err
			}

			r := chi.NewRouter()
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("OK"))
			})
			r.Mount("/", api.Router())

			server := &http.Server{
				Addr:              net.JoinHostPort(flags.host, strconv.Itoa(flags.port)),
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			done := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					done <- fmt.Errorf("server failed: %w", err)
					return
				}
				done <- nil
			}()

			printBanner(a.out)
			fmt.Fprintf(a.out, "Mock backend on http://%s (docs at /docs)\n", server.Addr)
			if password != "" {
				fmt.Fprintf(a.out, "Admin login: %s / %s\n", flags.adminUser, password)
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case sig := <-quit:
				fmt.Fprintf(a.out, "\nReceived %s, shutting down...\n", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			case err := <-done:
				return err
			}
		}),
	}
	cmd.Flags().IntVarP(&flags.port, "port", "p", 8000, "Port to listen on")
	cmd.Flags().StringVar(&flags.host, "host", "127.0.0.1", "Interface to bind")
	cmd.Flags().StringVar(&flags.adminUser, "admin-user", "admin", "Username of the seeded admin account")
	cmd.Flags().StringVar(&flags.adminPassword, "admin-password", "", "Password of the seeded admin account (random when empty)")
	cmd.Flags().BoolVar(&flags.seed, "seed", false, "Load sample boards and test results for today")
	cmd.Flags().DurationVar(&flags.tokenTTL, "token-ttl", 30*time.Minute, "Lifetime of issued access tokens")
	return cmd
}

// newMockBackend builds the backend with its admin account. The returned
// password is non-empty only when it was generated.
func newMockBackend(a *app, flags mockServerFlags) (*mockapi.Server, string, error) {
	api, err := mockapi.New(mockapi.WithLogger(a.logger), mockapi.WithTokenTTL(flags.tokenTTL))
	if err != nil {
		return nil, "", err
	}
	password, generated := flags.adminPassword, ""
	if password == "" {
		raw, err := util.RandomBytes(9)
		if err != nil {
			return nil, "", err
		}
		password = hex.EncodeToString(raw)
		generated = password
	}
	if _, err := api.AddUser(flags.adminUser, password, session.RoleAdmin); err != nil {
		return nil, "", fmt.Errorf("creating admin account: %w", err)
	}
	if flags.seed {
		seedMockBackend(api, time.Now())
	}
	return api, generated, nil
}

func seedMockBackend(api *mockapi.Server, now time.Time) {
	price := func(v float64) *float64 { return &v }
	boards := []client.Board{
		api.AddBoard(client.BoardCreate{RefAsteelFlash: "AF-1001", Designation: "Motor controller", Client: "Valeo", Valide: true, Prix: price(42.5)}),
		api.AddBoard(client.BoardCreate{RefAsteelFlash: "AF-1002", Designation: "Power supply", Client: "Thales", Valide: true, Prix: price(18)}),
		api.AddBoard(client.BoardCreate{RefAsteelFlash: "AF-2001", Designation: "Sensor hub", Client: "Safran"}),
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := range 24 {
		b := boards[i%len(boards)]
		api.RecordTest(b.ID, day.Add(time.Duration(8*60+i*20)*time.Minute), i%5 != 0)
	}
	api.RecordDefect("solder bridge", day.Add(9*time.Hour))
	api.RecordDefect("missing component", day.Add(11*time.Hour))
	api.RecordDefect("solder bridge", day.Add(14*time.Hour))
}
