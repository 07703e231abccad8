package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/chatrelay"
)

// Interface compliance checks.
var (
	_ chatrelay.SessionRepository = (*Store)(nil)
	_ chatrelay.CredentialStore   = (*Store)(nil)
)

// Store keeps each storage key in its own file under a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a Store rooted at dir. The directory is created on first
// write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file that holds key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// LoadActive implements chatrelay.SessionRepository.
func (s *Store) LoadActive(_ context.Context) (chatrelay.Session, error) {
	data, err := s.read(chatrelay.KeyActiveSession)
	if err != nil {
		return chatrelay.Session{}, err
	}
	return UnmarshalSession(data)
}

// SaveActive implements chatrelay.SessionRepository.
func (s *Store) SaveActive(_ context.Context, sess chatrelay.Session) error {
	data, err := MarshalSession(sess)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.write(chatrelay.KeyActiveSession, data)
}

// ClearActive implements chatrelay.SessionRepository.
func (s *Store) ClearActive(_ context.Context) error {
	return s.remove(chatrelay.KeyActiveSession)
}

// LoadRegistry implements chatrelay.SessionRepository.
func (s *Store) LoadRegistry(_ context.Context) (chatrelay.Registry, error) {
	data, err := s.read(chatrelay.KeyRegistry)
	if err != nil {
		return nil, err
	}
	return UnmarshalRegistry(data)
}

// SaveRegistry implements chatrelay.SessionRepository.
func (s *Store) SaveRegistry(_ context.Context, r chatrelay.Registry) error {
	data, err := MarshalRegistry(r)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.write(chatrelay.KeyRegistry, data)
}

// ClearRegistry implements chatrelay.SessionRepository.
func (s *Store) ClearRegistry(_ context.Context) error {
	return s.remove(chatrelay.KeyRegistry)
}

// LoadCredential implements chatrelay.CredentialStore. The token and the
// email are stored under separate keys; only the token is required.
func (s *Store) LoadCredential(_ context.Context) (chatrelay.Credential, error) {
	var c chatrelay.Credential
	if err := s.readString(chatrelay.KeyToken, &c.Token); err != nil {
		return chatrelay.Credential{}, err
	}
	if err := s.readString(chatrelay.KeyUserEmail, &c.Email); err != nil && !errors.Is(err, chatrelay.ErrNotFound) {
		return chatrelay.Credential{}, err
	}
	return c, nil
}

// SaveCredential implements chatrelay.CredentialStore.
func (s *Store) SaveCredential(_ context.Context, c chatrelay.Credential) error {
	for key, v := range map[string]string{chatrelay.KeyToken: c.Token, chatrelay.KeyUserEmail: c.Email} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		if err := s.write(key, data); err != nil {
			return err
		}
	}
	return nil
}

// ClearCredential implements chatrelay.CredentialStore.
func (s *Store) ClearCredential(_ context.Context) error {
	return errors.Join(s.remove(chatrelay.KeyToken), s.remove(chatrelay.KeyUserEmail))
}

func (s *Store) readString(key string, dst *string) error {
	data, err := s.read(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *Store) read(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, chatrelay.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// write replaces the key's file atomically via a temp file and rename.
func (s *Store) write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
