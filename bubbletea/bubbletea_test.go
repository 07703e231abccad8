package bubbletea_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatrelay"
	bt "github.com/fwojciec/chatrelay/bubbletea"
	chatjson "github.com/fwojciec/chatrelay/json"
	"github.com/fwojciec/chatrelay/mock"
	"github.com/stretchr/testify/require"
)

type interactFunc func(ctx context.Context, token string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error)

type fixture struct {
	store   *chatjson.Store
	gate    *chatrelay.AuthGate
	manager *chatrelay.Manager
}

// newFixture wires a real Manager and AuthGate over a temp-dir store. The
// authenticator accepts the password "secret".
func newFixture(t *testing.T, interact interactFunc, signedIn bool) *fixture {
	t.Helper()
	ctx := context.Background()
	store := chatjson.NewStore(t.TempDir())
	if signedIn {
		require.NoError(t, store.SaveCredential(ctx, chatrelay.Credential{Token: "tok", Email: "me@x.io"}))
	}
	auth := &mock.Authenticator{
		LoginFn: func(_ context.Context, email, password string) (chatrelay.Credential, error) {
			if password != "secret" {
				return chatrelay.Credential{}, &chatrelay.StatusError{Code: 401, Err: chatrelay.ErrUnauthorized}
			}
			return chatrelay.Credential{Token: "fresh", Email: email}, nil
		},
	}
	gate := chatrelay.NewAuthGate(auth, store)
	require.NoError(t, gate.Restore(ctx))

	var (
		mu    sync.Mutex
		seq   int
		clock = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	)
	manager := chatrelay.NewManager(store, &mock.RelayClient{InteractFn: interact}, gate,
		chatrelay.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("s%d", seq)
		}),
		chatrelay.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	require.NoError(t, manager.Load(ctx))
	return &fixture{store: store, gate: gate, manager: manager}
}

// echo answers summary requests with "Test summary" and everything else
// with "re: " plus the input.
func echo(_ context.Context, _ string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
	if strings.HasPrefix(req.Input, chatrelay.SummaryPrompt) {
		return chatrelay.InteractResponse{Text: "Test summary"}, nil
	}
	return chatrelay.InteractResponse{Text: "re: " + req.Input}, nil
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, f *fixture, opts ...bt.Option) bt.Model {
	t.Helper()
	return initModelWithSize(t, f, 80, 24, opts...)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, f *fixture, width, height int, opts ...bt.Option) bt.Model {
	t.Helper()
	m := bt.New(f.manager, f.gate, chatrelay.DefaultTheme(), opts...)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: width, Height: height})
	return m
}

// update sends a message and returns the updated Model and its command.
func update(t *testing.T, m bt.Model, msg tea.Msg) (bt.Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model, cmd
}

// press sends a key and settles the commands it starts.
func press(t *testing.T, m bt.Model, key tea.KeyType) bt.Model {
	t.Helper()
	m, cmd := update(t, m, tea.KeyMsg{Type: key})
	return settle(t, m, cmd)
}

// typeText sends runes as one key message.
func typeText(t *testing.T, m bt.Model, s string) bt.Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

// send enters text in the input and presses Enter.
func send(t *testing.T, m bt.Model, text string) bt.Model {
	t.Helper()
	m.Input.SetValue(text)
	return press(t, m, tea.KeyEnter)
}

// settle runs cmd and feeds the resulting completion messages back into the
// model until none remain. Other messages are dropped.
func settle(t *testing.T, m bt.Model, cmd tea.Cmd) bt.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case bt.TurnDoneMsg, bt.SelectDoneMsg, bt.LoginDoneMsg:
			var next tea.Cmd
			m, next = update(t, m, msg)
			queue = append(queue, next)
		}
	}
	return m
}
