package chatrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SummaryPrompt prefixes the first user input when asking the relay for a
// session title.
const SummaryPrompt = "Summarize the topic of this message in five words or fewer, without punctuation: "

// imageVerbs matches the words that make the relay generate images.
var imageVerbs = regexp.MustCompile(`(?i)paint|draw|generate`)

var imageVerbSynonyms = map[string]string{
	"paint":    "illustrate",
	"draw":     "sketch",
	"generate": "create",
}

// SummaryInput builds the summary request for a session's first message.
// Image keywords are swapped for synonyms so a summary never triggers image
// generation.
func SummaryInput(first string) string {
	return SummaryPrompt + imageVerbs.ReplaceAllStringFunc(first, func(w string) string {
		return imageVerbSynonyms[strings.ToLower(w)]
	})
}

// Manager owns the active session and the session registry on the client. It
// persists every change through a SessionRepository and routes relay calls
// through an AuthGate. It is safe for concurrent use; submissions are
// serialized, so at most one turn is pending at a time.
type Manager struct {
	repo   SessionRepository
	relay  RelayClient
	gate   *AuthGate
	now    func() time.Time
	newID  func() string
	temp   *float64
	logger *slog.Logger

	mu       sync.Mutex
	active   *Session
	registry Registry
	pending  *turnRef
}

// turnRef locates the outstanding turn even if the user switches sessions
// while it is in flight.
type turnRef struct {
	sessionID string
	index     int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides the session ID generator (random UUIDs by default).
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) { m.newID = fn }
}

// WithTemperature sets the temperature sent with every request. Without it the
// relay applies its default.
func WithTemperature(t float64) ManagerOption {
	return func(m *Manager) { m.temp = &t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager with an empty registry. Call Load to restore
// persisted state.
func NewManager(repo SessionRepository, relay RelayClient, gate *AuthGate, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:     repo,
		relay:    relay,
		gate:     gate,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
		registry: Registry{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load restores the active session and the registry. Turns left pending by a
// previous process can never complete and are marked failed.
func (m *Manager) Load(ctx context.Context) error {
	reg, err := m.repo.LoadRegistry(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		reg = Registry{}
	case err != nil:
		return fmt.Errorf("load registry: %w", err)
	}
	if reg == nil {
		reg = Registry{}
	}

	var active *Session
	s, err := m.repo.LoadActive(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return fmt.Errorf("load active session: %w", err)
	default:
		active = &s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = reg
	m.active = active
	m.pending = nil
	if active == nil {
		return nil
	}
	stale := false
	for i := range active.Turns {
		if active.Turns[i].Pending() {
			active.Turns[i].Fail(MsgFailedConnect)
			stale = true
		}
	}
	if stale {
		return m.commitLocked(ctx)
	}
	return nil
}

// Begin appends a pending turn to the active session, creating the session if
// none is active, and persists it. It returns the new turn's index.
func (m *Manager) Begin(ctx context.Context, text string, attachment *Attachment) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("message is empty: %w", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		return 0, ErrBusy
	}

	now := m.now()
	if m.active == nil {
		m.active = &Session{ID: m.newID(), CreatedAt: now}
	}
	m.active.Turns = append(m.active.Turns, NewTurn(text, attachment, now))
	m.active.UpdatedAt = now
	idx := len(m.active.Turns) - 1
	m.pending = &turnRef{sessionID: m.active.ID, index: idx}

	if err := m.commitLocked(ctx); err != nil {
		return idx, err
	}
	return idx, nil
}

// Complete issues the relay call for the pending turn at index and records the
// outcome on it. The returned turn reflects the recorded outcome; the error is
// the relay or storage failure, if any.
//
// A 401/403 clears the credential through the AuthGate and records
// MsgAuthFailed. Any other non-OK status records MsgFailedResponse (or the
// relay's own message when rate limited). A request that never reached the
// relay records MsgFailedConnect and leaves the credential alone.
func (m *Manager) Complete(ctx context.Context, index int) (Turn, error) {
	m.mu.Lock()
	ref := m.pending
	if ref == nil || ref.index != index {
		m.mu.Unlock()
		return Turn{}, fmt.Errorf("no pending turn at %d: %w", index, ErrTurnNotFound)
	}
	s := m.sessionLocked(ref.sessionID)
	if s == nil || ref.index >= len(s.Turns) {
		m.pending = nil
		m.mu.Unlock()
		return Turn{}, fmt.Errorf("no pending turn at %d: %w", index, ErrTurnNotFound)
	}
	req := InteractRequest{Input: s.Turns[ref.index].User, Temperature: m.temp}
	m.mu.Unlock()

	token := m.gate.Token()
	resp, callErr := m.relay.Interact(ctx, token, req)
	if errors.Is(callErr, ErrUnauthorized) {
		m.gate.Reject(ctx, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == ref {
		m.pending = nil
	}

	s = m.sessionLocked(ref.sessionID)
	if s == nil || ref.index >= len(s.Turns) {
		// Cleared while the call was in flight.
		return Turn{}, callErr
	}
	t := &s.Turns[ref.index]
	if callErr != nil {
		t.Fail(failureMessage(callErr))
		m.logger.WarnContext(ctx, "relay call failed", "session", ref.sessionID, "error", callErr)
	} else {
		t.Fulfill(resp.Text, resp.Images)
	}
	s.UpdatedAt = m.now()
	turn := *t

	var err error
	if m.active != nil && m.active.ID == ref.sessionID {
		err = m.commitLocked(ctx)
	} else {
		m.registry.Put(s.Clone())
		err = m.saveRegistryLocked(ctx)
	}
	return turn, errors.Join(callErr, err)
}

// Submit is Begin followed by Complete.
func (m *Manager) Submit(ctx context.Context, text string, attachment *Attachment) (Turn, error) {
	idx, err := m.Begin(ctx, text, attachment)
	if err != nil {
		return Turn{}, err
	}
	return m.Complete(ctx, idx)
}

// Edit replaces the user text of the turn at index in the active session.
// Other turns, including later responses, are left as they are.
func (m *Manager) Edit(ctx context.Context, index int, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message is empty: %w", ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || index < 0 || index >= len(m.active.Turns) {
		return fmt.Errorf("edit turn %d: %w", index, ErrTurnNotFound)
	}
	m.active.Turns[index].User = text
	m.active.UpdatedAt = m.now()
	return m.commitLocked(ctx)
}

// Select makes the registry session id active. A session without a summary
// gets one from the relay; summary failures are logged and otherwise ignored,
// except 401/403 which go through the AuthGate.
func (m *Manager) Select(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	s, ok := m.registry.Get(id)
	if !ok {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("select %q: %w", id, ErrSessionNotFound)
	}
	active := s.Clone()
	m.active = &active
	if err := m.repo.SaveActive(ctx, active); err != nil {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("save active session: %w", err)
	}
	needSummary := s.Summary == "" && len(s.Turns) > 0
	m.mu.Unlock()

	if !needSummary {
		return active, nil
	}

	req := InteractRequest{Input: SummaryInput(s.Turns[0].User), Temperature: m.temp}
	token := m.gate.Token()
	resp, err := m.relay.Interact(ctx, token, req)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			m.gate.Reject(ctx, token)
		}
		m.logger.WarnContext(ctx, "summary failed", "session", id, "error", err)
		return active, nil
	}
	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return active, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.registry.Get(id); ok {
		r.Summary = summary
		m.registry.Put(r)
	}
	if m.active != nil && m.active.ID == id {
		m.active.Summary = summary
		active = m.active.Clone()
		return active, m.commitLocked(ctx)
	}
	active.Summary = summary
	return active, m.saveRegistryLocked(ctx)
}

// NewChat clears the active session. The previous session stays in the
// registry; a turn still in flight there completes into the registry.
func (m *Manager) NewChat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	if err := m.repo.ClearActive(ctx); err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

// ClearAll deletes the active session and the whole registry.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	m.registry = Registry{}
	m.pending = nil
	return errors.Join(m.repo.ClearActive(ctx), m.repo.ClearRegistry(ctx))
}

// Active returns a copy of the active session.
func (m *Manager) Active() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Session{}, false
	}
	return m.active.Clone(), true
}

// History returns every registered session, most recently updated first.
func (m *Manager) History() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.List()
}

// Responding reports whether a relay call is outstanding.
func (m *Manager) Responding() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

func (m *Manager) sessionLocked(id string) *Session {
	if m.active != nil && m.active.ID == id {
		return m.active
	}
	if s, ok := m.registry.Get(id); ok {
		return &s
	}
	return nil
}

// commitLocked persists the active session and copies it into the registry.
func (m *Manager) commitLocked(ctx context.Context) error {
	if m.active == nil {
		return nil
	}
	s := m.active.Clone()
	if err := m.repo.SaveActive(ctx, s); err != nil {
		return fmt.Errorf("save active session: %w", err)
	}
	m.registry.Put(s)
	return m.saveRegistryLocked(ctx)
}

func (m *Manager) saveRegistryLocked(ctx context.Context) error {
	if err := m.repo.SaveRegistry(ctx, m.registry); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

func failureMessage(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return MsgAuthFailed
	case errors.Is(err, ErrRateLimited):
		if errors.As(err, &se) && se.Message != "" {
			return se.Message
		}
		return MsgFailedResponse
	case errors.Is(err, ErrConnect):
		return MsgFailedConnect
	default:
		return MsgFailedResponse
	}
}
