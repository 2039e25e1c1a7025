package filestore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/storage"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

var _ storage.Repo = (*Store)(nil)

const (
	plainFileName  = "storage.json"
	sealedFileName = "storage.sealed"
	saltLength     = 16
	nonceLength    = 24
)

var sealedMagic = []byte("GCS1")

// Store persists all keys as one JSON document in the data folder. With a
// passphrase the document is sealed with NaCl secretbox under an argon2id key.
type Store struct {
	mu         sync.Mutex
	path       string
	passphrase string
	salt       []byte
	key        *[32]byte
	values     map[string]string // nil until loaded
}

type Option func(*Store)

// WithPassphrase seals the store at rest
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		s.passphrase = passphrase
	}
}

// New prepares a store under folder. The file is read lazily so a corrupt
// store surfaces as a Get error rather than a startup failure.
func New(folder string, options ...Option) (*Store, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, pkgerrors.Wrap(err, "[filestore.New] create data folder")
	}
	s := &Store{}
	for _, opt := range options {
		opt(s)
	}
	name := plainFileName
	if s.passphrase != "" {
		name = sealedFileName
	}
	s.path = filepath.Join(folder, name)
	return s, nil
}

// Path is the backing file
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return "", false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadOrReset()
	s.values[key] = value
	return s.flush()
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadOrReset()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// loadOrReset discards an unreadable file so the next write replaces it
func (s *Store) loadOrReset() {
	if err := s.load(); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Discarding unreadable client storage")
		s.values = make(map[string]string)
	}
}

func (s *Store) load() error {
	if s.values != nil {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.values = make(map[string]string)
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore.load] read")
	}

	if s.passphrase != "" {
		if data, err = s.open(data); err != nil {
			return err
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return errors.Wrapf(errors.ErrCorruptStorage, "[filestore.load] %s: %v", s.path, err)
	}
	s.values = values
	return nil
}

func (s *Store) flush() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore.flush] marshal")
	}
	if s.passphrase != "" {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storage-*")
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore.flush] temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(err, "[filestore.flush] write")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, "[filestore.flush] close")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return pkgerrors.Wrap(err, "[filestore.flush] rename")
	}
	return nil
}

func (s *Store) deriveKey(salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(s.passphrase), salt, 1, 64*1024, 4, 32))
	return &key
}

// seal layout: magic | salt | nonce | secretbox
func (s *Store) seal(plain []byte) ([]byte, error) {
	if s.key == nil {
		s.salt = make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, s.salt); err != nil {
			return nil, pkgerrors.Wrap(err, "[filestore.seal] salt")
		}
		s.key = s.deriveKey(s.salt)
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, pkgerrors.Wrap(err, "[filestore.seal] nonce")
	}
	out := make([]byte, 0, len(sealedMagic)+saltLength+nonceLength+len(plain)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, s.salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, s.key), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	header := len(sealedMagic) + saltLength + nonceLength
	if len(sealed) < header+secretbox.Overhead || !bytes.HasPrefix(sealed, sealedMagic) {
		return nil, errors.Wrapf(errors.ErrCorruptStorage, "[filestore.open] %s: bad header", s.path)
	}
	salt := sealed[len(sealedMagic) : len(sealedMagic)+saltLength]
	var nonce [nonceLength]byte
	copy(nonce[:], sealed[len(sealedMagic)+saltLength:header])

	key := s.deriveKey(salt)
	plain, ok := secretbox.Open(nil, sealed[header:], &nonce, key)
	if !ok {
		return nil, errors.Wrapf(errors.ErrCorruptStorage, "[filestore.open] %s: cannot unseal", s.path)
	}
	s.salt = append([]byte(nil), salt...)
	s.key = key
	return plain, nil
}
