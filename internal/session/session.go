// Package session owns the authenticated broker connection: single-flight
// connect/reconnect, per-topic routing of inbound requests, and QoS 2
// publishing for the pipelines.
package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/vegalabs/syncagent/internal/secrets"
)

// ErrNotConnected is returned by Publish when no session is established.
var ErrNotConnected = errors.New("session not connected")

// qosExactlyOnce is the acknowledgment level for every subscribe and publish:
// the broker must confirm delivery before a publish resolves.
const qosExactlyOnce byte = 2

// disconnectGrace is how long a graceful close waits for in-flight work.
const disconnectGrace = 250 * time.Millisecond

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// Topics are the per-user channels. CrawlReq and QueryReq are subscribed;
// the rest are published.
type Topics struct {
	CrawlReq string
	QueryReq string
	NewChunk string
	NewCrawl string
	QueryRes string
}

// TopicsFor derives the topic set for a user identity.
func TopicsFor(userID string) Topics {
	return Topics{
		CrawlReq: "crawl_req/" + userID,
		QueryReq: "query_req/" + userID,
		NewChunk: "new_chunk/" + userID,
		NewCrawl: "new_crawl/" + userID,
		QueryRes: "query_res/" + userID,
	}
}

// Handler consumes one inbound message payload.
type Handler func(ctx context.Context, payload []byte)

// Config is the transport configuration.
type Config struct {
	BrokerHost         string
	BrokerPort         int
	ConnectTimeout     time.Duration
	ReconnectInterval  time.Duration
	CAFile             string
	InsecureSkipVerify bool
}

// Session is the state machine over one broker connection.
type Session struct {
	cfg   Config
	store secrets.Store
	log   *slog.Logger

	onCrawl Handler
	onQuery Handler

	// mu serializes Connect and Disconnect: a second concurrent Connect
	// waits for the first rather than racing the transport.
	mu     sync.Mutex
	client mqtt.Client
	topics Topics

	state atomic.Int32

	observersMu sync.Mutex
	observers   []func(State)
}

// New creates a disconnected session. Handlers must be registered before
// Connect.
func New(cfg Config, store secrets.Store, log *slog.Logger) *Session {
	return &Session{cfg: cfg, store: store, log: log}
}

// OnCrawlRequest registers the handler for inbound crawl triggers.
func (s *Session) OnCrawlRequest(h Handler) { s.onCrawl = h }

// OnQueryRequest registers the handler for inbound queries.
func (s *Session) OnQueryRequest(h Handler) { s.onQuery = h }

// Notify registers a status observer. Observers are invoked synchronously on
// every state change and must not block.
func (s *Session) Notify(fn func(State)) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, fn)
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Connected reports whether a live session exists.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// Topics returns the topic set of the current session. Zero when
// disconnected.
func (s *Session) Topics() Topics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics
}

// Connect establishes the broker session. Reconnecting over a live session
// tears the old one down first. When no identity is stored the call is a
// silent no-op: the user simply has not logged in yet.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardownLocked()

	id, err := s.store.Identity()
	if errors.Is(err, secrets.ErrNotLoggedIn) {
		s.log.Debug("no identity material, skipping connect")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read identity: %w", err)
	}

	tlsCfg, err := s.tlsConfig(id)
	if err != nil {
		return err
	}
	topics := TopicsFor(id.UserID)

	client := mqtt.NewClient(s.clientOptions(tlsCfg, topics))
	s.setState(StateConnecting)

	token := client.Connect()
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		s.setState(StateDisconnected)
		return ctx.Err()
	case <-done:
	}
	if err := token.Error(); err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("connect %s:%d: %w", s.cfg.BrokerHost, s.cfg.BrokerPort, err)
	}

	s.client = client
	s.topics = topics
	return nil
}

// clientOptions builds the transport options. ConnectRetry covers the initial
// attempt and AutoReconnect covers a lost connection, both at the configured
// fixed interval, so an unreachable broker keeps being retried either way.
func (s *Session) clientOptions(tlsCfg *tls.Config, topics Topics) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("ssl://%s:%d", s.cfg.BrokerHost, s.cfg.BrokerPort)).
		SetClientID("syncagent-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetTLSConfig(tlsCfg).
		SetConnectRetry(true).
		SetConnectRetryInterval(s.cfg.ReconnectInterval).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(s.cfg.ReconnectInterval).
		SetOnConnectHandler(func(c mqtt.Client) {
			s.setState(StateConnected)
			s.subscribe(c, topics)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warn("connection lost", "error", err)
			s.setState(StateDisconnected)
		})
}

// Disconnect closes the session gracefully and emits Disconnected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Session) teardownLocked() {
	if s.client == nil {
		return
	}
	client := s.client
	s.client = nil
	s.topics = Topics{}
	client.Disconnect(uint(disconnectGrace.Milliseconds()))
	s.setState(StateDisconnected)
}

// Publish sends with exactly-once semantics and returns after the broker
// acknowledges delivery.
func (s *Session) Publish(ctx context.Context, topic string, payload []byte) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrNotConnected
	}

	token := client.Publish(topic, qosExactlyOnce, false, payload)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// subscribe (re)establishes the inbound subscriptions. Runs on every
// OnConnect, so a broker reconnect restores routing without intervention.
func (s *Session) subscribe(client mqtt.Client, topics Topics) {
	subs := []struct {
		topic   string
		handler Handler
	}{
		{topics.CrawlReq, s.onCrawl},
		{topics.QueryReq, s.onQuery},
	}
	for _, sub := range subs {
		token := client.Subscribe(sub.topic, qosExactlyOnce, s.route(sub.topic, sub.handler))
		token.Wait()
		if err := token.Error(); err != nil {
			s.log.Error("subscribe failed", "topic", sub.topic, "error", err)
		}
	}
}

// route adapts a Handler to the transport's callback. Handlers run on their
// own goroutine so a long crawl never stalls the client's inbound loop.
func (s *Session) route(topic string, h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		if h == nil {
			s.log.Warn("message on unhandled topic", "topic", topic)
			return
		}
		payload := msg.Payload()
		go h(context.Background(), payload)
	}
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev == next {
		return
	}
	s.log.Info("session state", "state", next.String())

	s.observersMu.Lock()
	observers := make([]func(State), len(s.observers))
	copy(observers, s.observers)
	s.observersMu.Unlock()
	for _, fn := range observers {
		fn(next)
	}
}

// tlsConfig builds the mutual-TLS configuration from identity material.
func (s *Session) tlsConfig(id secrets.Identity) (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(id.CertificatePEM), []byte(id.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	cfg := &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}
	if s.cfg.CAFile != "" {
		pemBytes, err := os.ReadFile(s.cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("no certificates in ca file %s", s.cfg.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
