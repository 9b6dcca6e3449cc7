package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/page"
	"github.com/jmcleod/boardhand/session"
)

var errNotLoggedIn = errors.New("not logged in, run `boardhand login` first")

func newMetricsCmd(a *app) *cobra.Command {
	var date, start, end string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show quality metrics for a day",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				var err error
				day, err = time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
			}
			for _, v := range []string{start, end} {
				if v == "" {
					continue
				}
				if _, err := time.Parse(time.TimeOnly, v); err != nil {
					return fmt.Errorf("invalid time %q, want HH:MM:SS", v)
				}
			}

			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			m, err := c.QualityMetrics(cmd.Context(), client.MetricsQuery{Date: day, Start: start, End: end})
			if err != nil {
				return explain(err)
			}
			return a.printJSON(m)
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to report on, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&start, "start", "", "Start of the window, HH:MM:SS")
	cmd.Flags().StringVar(&end, "end", "", "End of the window, HH:MM:SS")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var username, password, role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user (admin only)",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			h, err := a.Session(cmd.Context())
			if err != nil {
				return err
			}
			var redirect *page.Redirect
			if err := page.RequireAdmin(h); errors.As(err, &redirect) {
				if redirect.Location == session.LoginPath {
					return errNotLoggedIn
				}
				return errors.New("registering users requires the admin role")
			}

			secret, err := readPassword(cmd.InOrStdin(), password, "")
			if err != nil {
				return err
			}
			defer secret.Destroy()

			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			u, err := c.RegisterUser(cmd.Context(), client.UserCreate{
				Username: username,
				Password: secret.String(),
				Role:     role,
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(a.out, "Registered %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username for the new account")
	cmd.Flags().StringVar(&password, "password", "", "Password for the new account (default: first line of stdin)")
	cmd.Flags().StringVar(&role, "role", "", "Role: user or admin (server default user)")
	cmd.MarkFlagRequired("username")
	return cmd
}
