package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vegalabs/syncagent/internal/agent"
	"github.com/vegalabs/syncagent/internal/config"
	"github.com/vegalabs/syncagent/internal/control"
	"github.com/vegalabs/syncagent/internal/secrets"
	"github.com/vegalabs/syncagent/internal/session"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent daemon",
		Long: `Start the synchronization agent: connect to the broker (when logged
in), serve the local control API, and handle crawl and query requests
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent()
		},
	}
}

func runAgent() error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := secrets.NewFileStore(cfg.SecretsFile)
	a := agent.New(cfg, store, log)
	a.Notify(func(st session.State) {
		log.Info("session state changed", "state", st.String())
	})

	srv := control.NewServer(a, store, log.With("component", "control"))

	httpServer := &http.Server{
		Addr:         cfg.ControlAddr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.AutoConnect {
		// Connect retries until the broker is reachable; keep it off the
		// startup path so the control API comes up immediately.
		go func() {
			if err := a.Connect(ctx); err != nil {
				log.Error("initial connect failed", "error", err)
			}
		}()
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		a.Disconnect()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting syncagent", "control_addr", cfg.ControlAddr, "broker", cfg.BrokerHost)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("control server error", "error", err)
		return err
	}
	return nil
}
