// Package bubbletea provides a Bubble Tea TUI for the chatrelay client.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatrelay"
)

// Chat is the session manager surface the TUI drives.
type Chat interface {
	Begin(ctx context.Context, text string, attachment *chatrelay.Attachment) (int, error)
	Complete(ctx context.Context, index int) (chatrelay.Turn, error)
	Edit(ctx context.Context, index int, text string) error
	Select(ctx context.Context, id string) (chatrelay.Session, error)
	NewChat(ctx context.Context) error
	ClearAll(ctx context.Context) error
	Active() (chatrelay.Session, bool)
	History() []chatrelay.Session
	Responding() bool
}

// Gate is the auth surface the TUI drives.
type Gate interface {
	State() chatrelay.AuthState
	Email() string
	OpenModal()
	CancelModal()
	Login(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

var (
	_ Chat = (*chatrelay.Manager)(nil)
	_ Gate = (*chatrelay.AuthGate)(nil)
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// TurnDoneMsg signals that the relay call for a turn has settled. The turn
// itself carries the user-facing outcome; Err is the underlying failure.
type TurnDoneMsg struct {
	Index int
	Err   error
}

// SelectDoneMsg signals that a history session was made active.
type SelectDoneMsg struct {
	Session chatrelay.Session
	Err     error
}

// LoginDoneMsg signals that a login attempt has settled.
type LoginDoneMsg struct {
	Err error
}
