package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show agent session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				State    string `json:"state"`
				LoggedIn bool   `json:"logged_in"`
				UserID   string `json:"user_id"`
			}
			if err := newControlClient().do(http.MethodGet, "/api/status", nil, &resp); err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state:     %s\n", resp.State)
			if resp.LoggedIn {
				fmt.Fprintf(cmd.OutOrStdout(), "logged in: yes (%s)\n", resp.UserID)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "logged in: no")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
