package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect the agent to the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				State string `json:"state"`
			}
			if err := newControlClient().do(http.MethodPost, "/api/connect", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state: %s\n", resp.State)
			return nil
		},
	}
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the agent from the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				State string `json:"state"`
			}
			if err := newControlClient().do(http.MethodPost, "/api/disconnect", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state: %s\n", resp.State)
			return nil
		},
	}
}

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Trigger a crawl of the synced folders and files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newControlClient().do(http.MethodPost, "/api/crawl", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "crawl requested")
			return nil
		},
	}
}
