// Package cmd provides the CLI commands for syncagent.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the syncagent CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syncagent",
		Short: "Local document synchronization agent",
		Long: `Syncagent watches configured folders and files, extracts and chunks
their text, and publishes the chunks to a remote broker over MQTT.
It also answers chunk retrieval requests against the local files.

Run 'syncagent run' to start the agent; the other commands talk to a
running agent over its local control API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Missing .env is fine; env vars still apply.
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConnectCmd())
	cmd.AddCommand(newDisconnectCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newLoginCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
