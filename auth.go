package chatrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// AuthState is a position in the sign-in flow.
type AuthState int

const (
	AuthAnonymous      AuthState = iota // No credential.
	AuthModalOpen                       // Login form shown.
	AuthAuthenticating                  // Login request in flight.
	AuthAuthenticated                   // Credential held.
)

func (s AuthState) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthModalOpen:
		return "modal_open"
	case AuthAuthenticating:
		return "authenticating"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthGate owns the user's credential and the login state machine. It is safe
// for concurrent use.
type AuthGate struct {
	auth   Authenticator
	store  CredentialStore
	logger *slog.Logger

	mu    sync.Mutex
	state AuthState
	cred  Credential
}

// AuthOption configures an AuthGate.
type AuthOption func(*AuthGate)

// WithAuthLogger sets the logger used for storage failures.
func WithAuthLogger(l *slog.Logger) AuthOption {
	return func(g *AuthGate) { g.logger = l }
}

// NewAuthGate creates a gate in the anonymous state. Call Restore to pick up a
// previously stored credential.
func NewAuthGate(auth Authenticator, store CredentialStore, opts ...AuthOption) *AuthGate {
	g := &AuthGate{auth: auth, store: store, logger: slog.Default()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Restore loads a stored credential. A missing credential leaves the gate
// anonymous and is not an error.
func (g *AuthGate) Restore(ctx context.Context) error {
	cred, err := g.store.LoadCredential(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore credential: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if cred.Valid() {
		g.cred = cred
		g.state = AuthAuthenticated
	}
	return nil
}

// OpenModal shows the login form. It has no effect while authenticated or
// while a login is in flight.
func (g *AuthGate) OpenModal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == AuthAnonymous {
		g.state = AuthModalOpen
	}
}

// CancelModal dismisses the login form.
func (g *AuthGate) CancelModal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == AuthModalOpen {
		g.state = AuthAnonymous
	}
}

// Login exchanges email and password for a credential and persists it. On
// failure the gate returns to AuthModalOpen.
func (g *AuthGate) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	g.mu.Lock()
	if g.state == AuthAuthenticating {
		g.mu.Unlock()
		return ErrBusy
	}
	g.state = AuthAuthenticating
	g.mu.Unlock()

	cred, err := g.auth.Login(ctx, email, password)
	if err == nil && !cred.Valid() {
		err = fmt.Errorf("login returned no token: %w", ErrBadResponse)
	}
	if err == nil {
		if cred.Email == "" {
			cred.Email = email
		}
		if serr := g.store.SaveCredential(ctx, cred); serr != nil {
			err = fmt.Errorf("save credential: %w", serr)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = AuthModalOpen
		return fmt.Errorf("login: %w", err)
	}
	g.cred = cred
	g.state = AuthAuthenticated
	return nil
}

// SignOut forgets the credential.
func (g *AuthGate) SignOut(ctx context.Context) error {
	g.mu.Lock()
	g.cred = Credential{}
	g.state = AuthAnonymous
	g.mu.Unlock()
	if err := g.store.ClearCredential(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Reject handles a 401/403 from the relay for a request sent with token: the
// credential is cleared and the login form is opened. A rejection of a token
// that has since been replaced is ignored.
func (g *AuthGate) Reject(ctx context.Context, token string) {
	g.mu.Lock()
	if g.cred.Token != token {
		g.mu.Unlock()
		return
	}
	g.cred = Credential{}
	if g.state != AuthAuthenticating {
		g.state = AuthModalOpen
	}
	g.mu.Unlock()
	if err := g.store.ClearCredential(ctx); err != nil {
		g.logger.WarnContext(ctx, "clear credential failed", "error", err)
	}
}

// State returns the current state.
func (g *AuthGate) State() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Token returns the bearer token, or "" when anonymous.
func (g *AuthGate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cred.Token
}

// Email returns the signed-in user's email, or "".
func (g *AuthGate) Email() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cred.Email
}
