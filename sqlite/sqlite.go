// Package sqlite persists chat sessions and credentials in a SQLite key-value
// table. Values use the same JSON encoding as the json package, so a store
// can be migrated by copying values between backends.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fwojciec/chatrelay"
	chatjson "github.com/fwojciec/chatrelay/json"
	_ "modernc.org/sqlite"
)

// Interface compliance checks.
var (
	_ chatrelay.SessionRepository = (*Store)(nil)
	_ chatrelay.CredentialStore   = (*Store)(nil)
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// Store is a SQLite-backed SessionRepository and CredentialStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init database: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadActive implements chatrelay.SessionRepository.
func (s *Store) LoadActive(ctx context.Context) (chatrelay.Session, error) {
	data, err := s.get(ctx, chatrelay.KeyActiveSession)
	if err != nil {
		return chatrelay.Session{}, err
	}
	return chatjson.UnmarshalSession(data)
}

// SaveActive implements chatrelay.SessionRepository.
func (s *Store) SaveActive(ctx context.Context, sess chatrelay.Session) error {
	data, err := chatjson.MarshalSession(sess)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.put(ctx, chatrelay.KeyActiveSession, data)
}

// ClearActive implements chatrelay.SessionRepository.
func (s *Store) ClearActive(ctx context.Context) error {
	return s.delete(ctx, chatrelay.KeyActiveSession)
}

// LoadRegistry implements chatrelay.SessionRepository.
func (s *Store) LoadRegistry(ctx context.Context) (chatrelay.Registry, error) {
	data, err := s.get(ctx, chatrelay.KeyRegistry)
	if err != nil {
		return nil, err
	}
	return chatjson.UnmarshalRegistry(data)
}

// SaveRegistry implements chatrelay.SessionRepository.
func (s *Store) SaveRegistry(ctx context.Context, r chatrelay.Registry) error {
	data, err := chatjson.MarshalRegistry(r)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.put(ctx, chatrelay.KeyRegistry, data)
}

// ClearRegistry implements chatrelay.SessionRepository.
func (s *Store) ClearRegistry(ctx context.Context) error {
	return s.delete(ctx, chatrelay.KeyRegistry)
}

// LoadCredential implements chatrelay.CredentialStore.
func (s *Store) LoadCredential(ctx context.Context) (chatrelay.Credential, error) {
	token, err := s.get(ctx, chatrelay.KeyToken)
	if err != nil {
		return chatrelay.Credential{}, err
	}
	email, err := s.get(ctx, chatrelay.KeyUserEmail)
	if err != nil && !errors.Is(err, chatrelay.ErrNotFound) {
		return chatrelay.Credential{}, err
	}
	return chatrelay.Credential{Token: string(token), Email: string(email)}, nil
}

// SaveCredential implements chatrelay.CredentialStore. Both keys are written
// in one transaction.
func (s *Store) SaveCredential(ctx context.Context, c chatrelay.Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	for key, v := range map[string]string{chatrelay.KeyToken: c.Token, chatrelay.KeyUserEmail: c.Email} {
		if _, err := tx.ExecContext(ctx, upsert, key, []byte(v)); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ClearCredential implements chatrelay.CredentialStore.
func (s *Store) ClearCredential(ctx context.Context) error {
	return errors.Join(s.delete(ctx, chatrelay.KeyToken), s.delete(ctx, chatrelay.KeyUserEmail))
}

const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, chatrelay.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) put(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsert, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys returns the stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
