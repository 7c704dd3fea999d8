package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vegalabs/syncagent/internal/config"
	"github.com/vegalabs/syncagent/internal/secrets"
)

func newLoginCmd() *cobra.Command {
	var userID string
	var certFile string
	var keyFile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store broker credentials",
		Long: `Store the user ID and client certificate used to authenticate with the
broker. A running agent picks the credentials up on its next connect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := os.ReadFile(certFile)
			if err != nil {
				return fmt.Errorf("read certificate: %w", err)
			}
			key, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("read private key: %w", err)
			}

			cfg := config.Load()
			store := secrets.NewFileStore(cfg.SecretsFile)
			if err := store.SetIdentity(userID, string(cert), string(key)); err != nil {
				return fmt.Errorf("store identity: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&certFile, "cert", "", "Path to the client certificate (PEM)")
	cmd.Flags().StringVar(&keyFile, "key", "", "Path to the client private key (PEM)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("cert")
	cmd.MarkFlagRequired("key")

	return cmd
}
