package session

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegalabs/syncagent/internal/secrets"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTopicsFor(t *testing.T) {
	topics := TopicsFor("user-42")
	assert.Equal(t, "crawl_req/user-42", topics.CrawlReq)
	assert.Equal(t, "query_req/user-42", topics.QueryReq)
	assert.Equal(t, "new_chunk/user-42", topics.NewChunk)
	assert.Equal(t, "new_crawl/user-42", topics.NewCrawl)
	assert.Equal(t, "query_res/user-42", topics.QueryRes)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Disconnected", StateDisconnected.String())
	assert.Equal(t, "Connecting", StateConnecting.String())
	assert.Equal(t, "Connected", StateConnected.String())
}

func TestConnect_NoIdentityIsSilentNoop(t *testing.T) {
	store := secrets.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	s := New(Config{BrokerHost: "localhost", BrokerPort: 8883}, store, testLogger())

	var emitted []State
	s.Notify(func(st State) { emitted = append(emitted, st) })

	err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDisconnected, s.State())
	assert.Empty(t, emitted, "a not-logged-in connect must not emit status")
	assert.Equal(t, Topics{}, s.Topics())
}

func TestConnect_BadCertificateSurfacesError(t *testing.T) {
	store := secrets.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	require.NoError(t, store.SetIdentity("u", "not a certificate", "not a key"))

	s := New(Config{BrokerHost: "localhost", BrokerPort: 8883}, store, testLogger())
	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, s.State())
}

func TestClientOptions_RetriesInitialConnect(t *testing.T) {
	store := secrets.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	s := New(Config{
		BrokerHost:        "broker.example.com",
		BrokerPort:        8883,
		ConnectTimeout:    4 * time.Second,
		ReconnectInterval: time.Second,
	}, store, testLogger())

	opts := s.clientOptions(&tls.Config{}, TopicsFor("u"))
	assert.True(t, opts.ConnectRetry, "initial connect must keep retrying an unreachable broker")
	assert.Equal(t, time.Second, opts.ConnectRetryInterval)
	assert.True(t, opts.AutoReconnect)
	assert.Equal(t, time.Second, opts.MaxReconnectInterval)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "ssl", opts.Servers[0].Scheme)
	assert.Equal(t, "broker.example.com:8883", opts.Servers[0].Host)
}

func TestPublish_NotConnected(t *testing.T) {
	store := secrets.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	s := New(Config{}, store, testLogger())

	err := s.Publish(context.Background(), "new_chunk/u", []byte("x"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSetState_EmitsOnlyOnChange(t *testing.T) {
	store := secrets.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	s := New(Config{}, store, testLogger())

	var emitted []State
	s.Notify(func(st State) { emitted = append(emitted, st) })

	s.setState(StateConnecting)
	s.setState(StateConnecting)
	s.setState(StateConnected)
	s.setState(StateDisconnected)

	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, emitted)
}

func TestDisconnect_WithoutSessionIsNoop(t *testing.T) {
	store := secrets.NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	s := New(Config{}, store, testLogger())
	s.Disconnect()
	assert.Equal(t, StateDisconnected, s.State())
}
