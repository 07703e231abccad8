package mock

import (
	"context"

	"github.com/fwojciec/chatrelay"
)

var (
	_ chatrelay.SessionRepository = (*SessionRepository)(nil)
	_ chatrelay.CredentialStore   = (*CredentialStore)(nil)
)

// SessionRepository is a test double for chatrelay.SessionRepository.
// Set the function fields for the methods you need.
type SessionRepository struct {
	LoadActiveFn    func(ctx context.Context) (chatrelay.Session, error)
	SaveActiveFn    func(ctx context.Context, s chatrelay.Session) error
	ClearActiveFn   func(ctx context.Context) error
	LoadRegistryFn  func(ctx context.Context) (chatrelay.Registry, error)
	SaveRegistryFn  func(ctx context.Context, r chatrelay.Registry) error
	ClearRegistryFn func(ctx context.Context) error
}

// LoadActive delegates to LoadActiveFn.
func (r *SessionRepository) LoadActive(ctx context.Context) (chatrelay.Session, error) {
	return r.LoadActiveFn(ctx)
}

// SaveActive delegates to SaveActiveFn.
func (r *SessionRepository) SaveActive(ctx context.Context, s chatrelay.Session) error {
	return r.SaveActiveFn(ctx, s)
}

// ClearActive delegates to ClearActiveFn.
func (r *SessionRepository) ClearActive(ctx context.Context) error {
	return r.ClearActiveFn(ctx)
}

// LoadRegistry delegates to LoadRegistryFn.
func (r *SessionRepository) LoadRegistry(ctx context.Context) (chatrelay.Registry, error) {
	return r.LoadRegistryFn(ctx)
}

// SaveRegistry delegates to SaveRegistryFn.
func (r *SessionRepository) SaveRegistry(ctx context.Context, reg chatrelay.Registry) error {
	return r.SaveRegistryFn(ctx, reg)
}

// ClearRegistry delegates to ClearRegistryFn.
func (r *SessionRepository) ClearRegistry(ctx context.Context) error {
	return r.ClearRegistryFn(ctx)
}

// CredentialStore is a test double for chatrelay.CredentialStore.
type CredentialStore struct {
	LoadCredentialFn  func(ctx context.Context) (chatrelay.Credential, error)
	SaveCredentialFn  func(ctx context.Context, c chatrelay.Credential) error
	ClearCredentialFn func(ctx context.Context) error
}

// LoadCredential delegates to LoadCredentialFn.
func (s *CredentialStore) LoadCredential(ctx context.Context) (chatrelay.Credential, error) {
	return s.LoadCredentialFn(ctx)
}

// SaveCredential delegates to SaveCredentialFn.
func (s *CredentialStore) SaveCredential(ctx context.Context, c chatrelay.Credential) error {
	return s.SaveCredentialFn(ctx, c)
}

// ClearCredential delegates to ClearCredentialFn.
func (s *CredentialStore) ClearCredential(ctx context.Context) error {
	return s.ClearCredentialFn(ctx)
}
