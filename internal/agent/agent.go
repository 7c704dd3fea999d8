// Package agent wires the secret store, session, and pipelines into one
// runnable unit and exposes the few calls the control surface needs.
package agent

import (
	"context"
	"log/slog"

	"github.com/vegalabs/syncagent/internal/chunk"
	"github.com/vegalabs/syncagent/internal/config"
	"github.com/vegalabs/syncagent/internal/crawl"
	"github.com/vegalabs/syncagent/internal/query"
	"github.com/vegalabs/syncagent/internal/secrets"
	"github.com/vegalabs/syncagent/internal/session"
)

// Agent is the assembled synchronization agent.
type Agent struct {
	session   *session.Session
	crawler   *crawl.Crawler
	responder *query.Responder
	log       *slog.Logger
}

// New assembles an agent from configuration and a secret store.
func New(cfg config.Config, store secrets.Store, log *slog.Logger) *Agent {
	sess := session.New(session.Config{
		BrokerHost:         cfg.BrokerHost,
		BrokerPort:         cfg.BrokerPort,
		ConnectTimeout:     cfg.ConnectTimeout,
		ReconnectInterval:  cfg.ReconnectInterval,
		CAFile:             cfg.CAFile,
		InsecureSkipVerify: cfg.TLSInsecureSkipVerify,
	}, store, log.With("component", "session"))

	opts := chunk.Options{MinSize: cfg.ChunkMinSize, MaxSize: cfg.ChunkMaxSize}
	crawler := crawl.New(sess, store, log.With("component", "crawl"), opts, cfg.ExtractTimeout)
	responder := query.New(sess, log.With("component", "query"))

	sess.OnCrawlRequest(crawler.HandleCrawlRequest)
	sess.OnQueryRequest(responder.HandleQueryRequest)

	return &Agent{
		session:   sess,
		crawler:   crawler,
		responder: responder,
		log:       log,
	}
}

// Connect establishes the broker session. A no-op when not logged in.
func (a *Agent) Connect(ctx context.Context) error {
	return a.session.Connect(ctx)
}

// Disconnect closes the broker session.
func (a *Agent) Disconnect() {
	a.session.Disconnect()
}

// State returns the current session state.
func (a *Agent) State() session.State {
	return a.session.State()
}

// Notify registers a session status observer.
func (a *Agent) Notify(fn func(session.State)) {
	a.session.Notify(fn)
}

// MakeCrawlRequest triggers a local enumeration and publishes the crawl
// announcement.
func (a *Agent) MakeCrawlRequest(ctx context.Context) error {
	return a.crawler.MakeCrawlRequest(ctx)
}
