// Package secrets holds the agent's identity material and the user's synced
// path selections. The core consumes the Store interface; the file-backed
// implementation below is the desktop default. Encryption at rest belongs to
// the host platform's keychain integration, not to this package.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotLoggedIn is returned when identity material is absent. Callers treat
// it as "nothing to do", not as a failure.
var ErrNotLoggedIn = errors.New("not logged in")

// Identity is the material needed to authenticate the broker connection.
type Identity struct {
	UserID         string
	CertificatePEM string
	PrivateKeyPEM  string
}

// Store is the capability the session and pipelines are handed.
type Store interface {
	// Identity returns the login material, normalized to PEM, or
	// ErrNotLoggedIn when any piece is absent.
	Identity() (Identity, error)
	SyncedFolderPaths() ([]string, error)
	SyncedFilePaths() ([]string, error)
}

// fileData is the on-disk layout, keyed like the desktop shell's secret
// store so both can share one file.
type fileData struct {
	UserID            string   `json:"userId,omitempty"`
	Certificate       string   `json:"certificate,omitempty"`
	PrivateKey        string   `json:"privateKey,omitempty"`
	SyncedFolderPaths []string `json:"syncedFolderPaths,omitempty"`
	SyncedFilePaths   []string `json:"syncedFilePaths,omitempty"`
}

// FileStore reads and writes a JSON secrets file. Reads go to disk every
// time so changes made by the desktop shell are picked up without restarts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens a store backed by the given path. The file may not
// exist yet; that reads as an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (fileData, error) {
	var d fileData
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return d, fmt.Errorf("read secrets: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse secrets: %w", err)
	}
	return d, nil
}

func (s *FileStore) save(d fileData) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode secrets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create secrets dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}

func (s *FileStore) Identity() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return Identity{}, err
	}
	if d.UserID == "" || d.Certificate == "" || d.PrivateKey == "" {
		return Identity{}, ErrNotLoggedIn
	}
	return Identity{
		UserID:         d.UserID,
		CertificatePEM: NormalizeCertificatePEM(d.Certificate),
		PrivateKeyPEM:  d.PrivateKey,
	}, nil
}

func (s *FileStore) SyncedFolderPaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.SyncedFolderPaths, nil
}

func (s *FileStore) SyncedFilePaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.SyncedFilePaths, nil
}

// SetIdentity stores login material. The certificate may be PEM or a bare
// base64 body; it is kept as given and normalized on read.
func (s *FileStore) SetIdentity(userID, certificate, privateKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	d.UserID = userID
	d.Certificate = certificate
	d.PrivateKey = privateKey
	return s.save(d)
}

func (s *FileStore) SetSyncedFolderPaths(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	d.SyncedFolderPaths = paths
	return s.save(d)
}

func (s *FileStore) SetSyncedFilePaths(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	d.SyncedFilePaths = paths
	return s.save(d)
}

// NormalizeCertificatePEM wraps a bare base64 certificate body with PEM
// markers, folding the body at 64 columns. Input that already carries PEM
// markers passes through untouched.
func NormalizeCertificatePEM(cert string) string {
	cert = strings.TrimSpace(cert)
	if strings.Contains(cert, "-----BEGIN") {
		return cert
	}

	// Collapse whitespace the transport may have introduced.
	body := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, cert)

	var b strings.Builder
	b.WriteString("-----BEGIN CERTIFICATE-----\n")
	for len(body) > 0 {
		n := 64
		if len(body) < n {
			n = len(body)
		}
		b.WriteString(body[:n])
		b.WriteByte('\n')
		body = body[n:]
	}
	b.WriteString("-----END CERTIFICATE-----\n")
	return b.String()
}
