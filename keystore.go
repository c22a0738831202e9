package hid

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A KeyStore persists bonding secrets between sessions, keyed by
// peer identity. Secrets are opaque blobs owned by the link layer;
// stores never interpret their contents.
//
// Absence or corruption of a stored secret is not fatal: the pairing
// negotiator degrades to a fresh handshake.
type KeyStore interface {
	// Load returns the secret stored for peer, or ErrNoSecret.
	Load(peer string) ([]byte, error)

	// Save stores the secret for peer, replacing any previous one.
	Save(peer string, secret []byte) error

	// Delete removes the secret stored for peer, if any.
	Delete(peer string) error
}

// A MemoryKeyStore is a volatile KeyStore. Bonds are forgotten when
// the process exits; useful for tests and for devices that should
// re-pair on every boot.
type MemoryKeyStore struct {
	mu      sync.Mutex
	secrets map[string][]byte
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{secrets: make(map[string][]byte)}
}

func (s *MemoryKeyStore) Load(peer string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, ok := s.secrets[peer]
	if !ok {
		return nil, ErrNoSecret
	}
	return append([]byte(nil), secret...), nil
}

func (s *MemoryKeyStore) Save(peer string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[peer] = append([]byte(nil), secret...)
	return nil
}

func (s *MemoryKeyStore) Delete(peer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, peer)
	return nil
}

// A FileKeyStore is a KeyStore backed by a JSON file. Secrets are
// base64-encoded. The whole file is rewritten on every save; bond
// updates are rare enough that this is not worth optimizing.
type FileKeyStore struct {
	path string

	mu      sync.Mutex
	secrets map[string]string // peer -> base64 secret
}

// NewFileKeyStore opens (or creates on first save) the key store at
// path. A missing or unreadable file yields an empty store rather
// than an error, so that a corrupt store degrades to fresh pairing.
func NewFileKeyStore(path string) *FileKeyStore {
	s := &FileKeyStore{path: path, secrets: make(map[string]string)}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("keystore: no secrets available at %s: %v", path, err)
		return s
	}
	if err := json.Unmarshal(b, &s.secrets); err != nil {
		log.Warnf("keystore: discarding unreadable secrets at %s: %v", path, err)
		s.secrets = make(map[string]string)
	}
	return s
}

func (s *FileKeyStore) Load(peer string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc, ok := s.secrets[peer]
	if !ok {
		return nil, ErrNoSecret
	}
	secret, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		// Corrupt entry; forget it and let pairing start fresh.
		delete(s.secrets, peer)
		return nil, ErrNoSecret
	}
	return secret, nil
}

func (s *FileKeyStore) Save(peer string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[peer] = base64.StdEncoding.EncodeToString(secret)
	return s.flush()
}

func (s *FileKeyStore) Delete(peer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[peer]; !ok {
		return nil
	}
	delete(s.secrets, peer)
	return s.flush()
}

func (s *FileKeyStore) flush() error {
	b, err := json.Marshal(s.secrets)
	if err != nil {
		return errors.Wrap(err, "encode secrets")
	}
	if err := os.WriteFile(s.path, b, 0600); err != nil {
		return errors.Wrapf(err, "write secrets to %s", s.path)
	}
	return nil
}
