package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmcleod/boardhand/client"
	"github.com/jmcleod/boardhand/page"
)

func newBoardsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List and manage boards",
	}
	cmd.AddCommand(
		newBoardsListCmd(a),
		newBoardsGetCmd(a),
		newBoardsCreateCmd(a),
		newBoardsUpdateCmd(a),
		newBoardsDeleteCmd(a),
	)
	return cmd
}

func parseBoardID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid board id %q", s)
	}
	return id, nil
}

func newBoardsListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all boards",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			h, err := a.Session(cmd.Context())
			if err != nil {
				return err
			}
			if err := page.RequireAuth(h); err != nil {
				return errNotLoggedIn
			}
			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			boards, err := c.ListBoards(cmd.Context())
			if err != nil {
				return explain(err)
			}
			if asJSON {
				return a.printJSON(boards)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tREF ASTEEL\tDESIGNATION\tCLIENT\tVALID")
			for _, b := range boards {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", b.ID, b.RefAsteel, b.Designation, b.Client, b.IsValid)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newBoardsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one board",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			b, err := page.LoadBoard(cmd.Context(), c, a.holder.Read().AccessToken, id)
			if err != nil {
				return explain(err)
			}
			return a.printJSON(b)
		}),
	}
}

// readBoardJSON decodes a board payload from --file, or stdin when the
// file is "-".
func readBoardJSON(cmd *cobra.Command, file string, out any) error {
	r := cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("opening board file: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decoding board JSON: %w", err)
	}
	return nil
}

func newBoardsCreateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board from a JSON document (admin only)",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var in client.BoardCreate
			if err := readBoardJSON(cmd, file, &in); err != nil {
				return err
			}
			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			b, err := c.CreateBoard(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			return a.printJSON(b)
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with the board fields, - for stdin")
	return cmd
}

func newBoardsUpdateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a board from a JSON document (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			var in client.BoardUpdate
			if err := readBoardJSON(cmd, file, &in); err != nil {
				return err
			}
			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			b, err := c.UpdateBoard(cmd.Context(), id, in)
			if err != nil {
				return explain(err)
			}
			return a.printJSON(b)
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with the fields to change, - for stdin")
	return cmd
}

func newBoardsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a board (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			c, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteBoard(cmd.Context(), id); err != nil {
				return explain(err)
			}
			fmt.Fprintf(a.out, "Deleted board %d\n", id)
			return nil
		}),
	}
}
