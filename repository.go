package chatrelay

import "context"

// Storage keys. File-backed and database-backed stores use the same names.
const (
	KeyActiveSession = "chatHistory"
	KeyRegistry      = "storedChatHistories"
	KeyToken         = "token"
	KeyUserEmail     = "userEmail"
)

// SessionRepository persists the active session and the session registry.
// Load methods return an error wrapping ErrNotFound when nothing is stored.
type SessionRepository interface {
	LoadActive(ctx context.Context) (Session, error)
	SaveActive(ctx context.Context, s Session) error
	ClearActive(ctx context.Context) error

	LoadRegistry(ctx context.Context) (Registry, error)
	SaveRegistry(ctx context.Context, r Registry) error
	ClearRegistry(ctx context.Context) error
}

// CredentialStore persists the signed-in user's credential.
// LoadCredential returns an error wrapping ErrNotFound when nothing is stored.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (Credential, error)
	SaveCredential(ctx context.Context, c Credential) error
	ClearCredential(ctx context.Context) error
}
