package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		Long: `Exchange a username and password for an access token. The password is
taken from --password, then BOARDHAND_PASSWORD, then the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			secret, err := readPassword(cmd.InOrStdin(), password, a.cfg.Password)
			if err != nil {
				return err
			}
			defer secret.Destroy()

			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.Authenticate(cmd.Context(), username, secret.String())
			if err != nil {
				return explain(err)
			}
			role := s.UserRole
			if role == "" {
				role = "unknown"
			}
			fmt.Fprintf(a.out, "Logged in as %s (role: %s)\n", s.Username, role)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer BOARDHAND_PASSWORD or stdin)")
	cmd.MarkFlagRequired("username")
	return cmd
}

// readPassword returns the first non-empty source in a locked buffer.
func readPassword(stdin io.Reader, flag, env string) (*memguard.LockedBuffer, error) {
	var raw []byte
	switch {
	case flag != "":
		raw = []byte(flag)
	case env != "":
		raw = []byte(env)
	default:
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		raw = []byte(strings.TrimRight(line, "\r\n"))
	}
	if len(raw) == 0 {
		return nil, errors.New("password is required")
	}
	return memguard.NewBufferFromBytes(raw), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			h, err := a.Session(cmd.Context())
			if err != nil {
				return err
			}
			h.Logout()
			fmt.Fprintln(a.out, "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			h, err := a.Session(cmd.Context())
			if err != nil {
				return err
			}
			s := h.Read()
			if !s.IsAuthenticated {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			fmt.Fprintf(a.out, "Username: %s\nRole:     %s\nAdmin:    %t\nBackend:  %s\n",
				s.Username, s.UserRole, s.IsAdmin(), a.cfg.BaseURL)
			return nil
		}),
	}
}
