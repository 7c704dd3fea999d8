package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var folders []string
	var files []string
	var set bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Show or set the synced folders and files",
		Long: `Without flags, prints the current sync selection. With --set, replaces
the selection with the given --folder and --file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newControlClient()
			var resp struct {
				Folders []string `json:"folders"`
				Files   []string `json:"files"`
			}
			if set {
				body := map[string]any{"folders": folders, "files": files}
				if err := client.do(http.MethodPut, "/api/sync", body, &resp); err != nil {
					return err
				}
			} else {
				if err := client.do(http.MethodGet, "/api/sync", nil, &resp); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "folders:")
			for _, f := range resp.Folders {
				fmt.Fprintf(out, "  %s\n", f)
			}
			fmt.Fprintln(out, "files:")
			for _, f := range resp.Files {
				fmt.Fprintf(out, "  %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&set, "set", false, "Replace the sync selection")
	cmd.Flags().StringSliceVar(&folders, "folder", nil, "Folder to sync (repeatable)")
	cmd.Flags().StringSliceVar(&files, "file", nil, "File to sync (repeatable)")

	return cmd
}
