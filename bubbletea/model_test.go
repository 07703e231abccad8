package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/chatrelay"
	bt "github.com/fwojciec/chatrelay/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	f := newFixture(t, echo, true)
	m := bt.New(f.manager, f.gate, chatrelay.DefaultTheme())

	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Window(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height) // 24 - input - status - 2 separators
		assert.NotEmpty(t, m.View())
	})

	t.Run("resize updates viewport dimensions", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Equal(t, 120, m.Viewport.Width)
		assert.Equal(t, 36, m.Viewport.Height)
	})

	t.Run("resize re-renders the transcript", func(t *testing.T) {
		t.Parallel()
		long := "word1 word2 word3 word4 word5 word6 word7 word8"
		f := newFixture(t, func(context.Context, string, chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
			return chatrelay.InteractResponse{Text: long}, nil
		}, true)
		m := initModelWithSize(t, f, 30, 20)
		m = send(t, m, "hi")

		m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})
		found := false
		for _, line := range strings.Split(m.Viewport.View(), "\n") {
			if strings.Contains(line, "word1") && strings.Contains(line, "word8") {
				found = true
			}
		}
		assert.True(t, found, "expected word1 and word8 on one line after resize:\n%s", m.Viewport.View())
	})
}

func TestModel_Keys(t *testing.T) {
	t.Parallel()

	t.Run("ctrl+c quits", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m.Input.SetValue("   ")
		_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
		_, ok := f.manager.Active()
		assert.False(t, ok)
	})
}

func TestModel_Submit(t *testing.T) {
	t.Parallel()

	t.Run("turns are appended in order", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)

		m = send(t, m, "Hello")
		m = send(t, m, "How are you?")

		s, ok := f.manager.Active()
		require.True(t, ok)
		require.Len(t, s.Turns, 2)
		assert.Equal(t, "Hello", s.Turns[0].User)
		assert.Equal(t, "re: Hello", s.Turns[0].Assistant)
		assert.Equal(t, "How are you?", s.Turns[1].User)
		assert.Empty(t, m.Input.Value())
		assert.False(t, m.Running())

		view := m.Viewport.View()
		assert.Contains(t, view, "re: Hello")
		assert.Contains(t, view, "re: How are you?")
	})

	t.Run("loading line shows while the call is in flight", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m.Input.SetValue("Hello")
		m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		assert.True(t, m.Running())
		assert.Contains(t, stripANSI(m.Viewport.View()), bt.LoadingText)
		assert.Contains(t, stripANSI(m.View()), "Waiting for response")

		m = settle(t, m, cmd)
		assert.NotContains(t, stripANSI(m.Viewport.View()), bt.LoadingText)
	})

	t.Run("forbidden response opens the login modal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(context.Context, string, chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
			return chatrelay.InteractResponse{}, &chatrelay.StatusError{Code: 403, Err: chatrelay.ErrUnauthorized}
		}, true)
		m := initModel(t, f)

		m = send(t, m, "Hello")

		assert.Equal(t, "login", bt.ModeName(m))
		assert.Equal(t, chatrelay.AuthModalOpen, f.gate.State())
		assert.Empty(t, f.gate.Token())
		assert.NoError(t, m.Err())
		s, _ := f.manager.Active()
		assert.Equal(t, chatrelay.MsgAuthFailed, s.Turns[0].Error)
		assert.Empty(t, s.Turns[0].Assistant)
		assert.Contains(t, m.View(), "Sign in")
	})

	t.Run("connect failure leaves auth alone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(context.Context, string, chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
			return chatrelay.InteractResponse{}, chatrelay.ErrConnect
		}, true)
		m := initModel(t, f)

		m = send(t, m, "Hello")

		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Equal(t, chatrelay.AuthAuthenticated, f.gate.State())
		assert.Contains(t, stripANSI(m.Viewport.View()), chatrelay.MsgFailedConnect)
	})
}

func TestModel_Attach(t *testing.T) {
	t.Parallel()

	doc := &chatrelay.Attachment{Name: "report.pdf", MIMEType: "application/pdf", Data: []byte("%PDF")}

	t.Run("queued attachment goes with the next turn", func(t *testing.T) {
		t.Parallel()
		var got string
		f := newFixture(t, echo, true)
		m := initModel(t, f, bt.WithAttachFunc(func(pattern string) (*chatrelay.Attachment, error) {
			got = pattern
			return doc, nil
		}))

		m = send(t, m, "/attach docs/*.pdf")
		assert.Equal(t, "docs/*.pdf", got)
		assert.Equal(t, doc, m.Attachment())
		assert.Contains(t, stripANSI(m.View()), "📃 report.pdf")

		m = send(t, m, "summarize this")
		assert.Nil(t, m.Attachment())
		s, _ := f.manager.Active()
		require.Len(t, s.Turns, 1)
		assert.Equal(t, doc, s.Turns[0].Attachment)
		assert.Contains(t, stripANSI(m.Viewport.View()), "📃 report.pdf")
	})

	t.Run("failed attach keeps the input and reports", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f, bt.WithAttachFunc(func(string) (*chatrelay.Attachment, error) {
			return nil, errors.New("no file matches")
		}))

		m = send(t, m, "/attach *.png")
		assert.Nil(t, m.Attachment())
		assert.Equal(t, "/attach *.png", m.Input.Value())
		assert.ErrorContains(t, m.Err(), "no file matches")
	})

	t.Run("detach drops the queued attachment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f, bt.WithAttachFunc(func(string) (*chatrelay.Attachment, error) { return doc, nil }))

		m = send(t, m, "/attach report.pdf")
		m = send(t, m, "/detach")
		assert.Nil(t, m.Attachment())
	})
}

func TestModel_Edit(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*fixture, bt.Model) {
		t.Helper()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m = send(t, m, "first")
		m = send(t, m, "second")
		return f, m
	}

	t.Run("enter replaces exactly the focused turn", func(t *testing.T) {
		t.Parallel()
		f, m := setup(t)
		m.Input.SetValue("draft")

		m = press(t, m, tea.KeyCtrlE)
		assert.Equal(t, "edit", bt.ModeName(m))
		assert.Equal(t, 1, bt.Focus(m))
		assert.Equal(t, "second", m.Input.Value())
		assert.Contains(t, stripANSI(m.Viewport.View()), "✎ second")

		m = press(t, m, tea.KeyUp)
		assert.Equal(t, 0, bt.Focus(m))
		assert.Equal(t, "first", m.Input.Value())

		m.Input.SetValue("first, edited")
		m = press(t, m, tea.KeyEnter)

		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Equal(t, "draft", m.Input.Value())
		s, _ := f.manager.Active()
		assert.Equal(t, "first, edited", s.Turns[0].User)
		assert.Equal(t, "re: first", s.Turns[0].Assistant)
		assert.Equal(t, "second", s.Turns[1].User)

		stored, err := f.store.LoadActive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first, edited", stored.Turns[0].User)
	})

	t.Run("esc cancels without changes", func(t *testing.T) {
		t.Parallel()
		f, m := setup(t)

		m = press(t, m, tea.KeyCtrlE)
		m.Input.SetValue("changed")
		m = press(t, m, tea.KeyEsc)

		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Equal(t, -1, bt.Focus(m))
		s, _ := f.manager.Active()
		assert.Equal(t, "second", s.Turns[1].User)
	})

	t.Run("blank edit is rejected", func(t *testing.T) {
		t.Parallel()
		_, m := setup(t)

		m = press(t, m, tea.KeyCtrlE)
		m.Input.SetValue(" ")
		m = press(t, m, tea.KeyEnter)

		assert.Equal(t, "edit", bt.ModeName(m))
		assert.ErrorIs(t, m.Err(), chatrelay.ErrValidation)
	})

	t.Run("nothing to edit in an empty chat", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		m = press(t, m, tea.KeyCtrlE)
		assert.Equal(t, "chat", bt.ModeName(m))
	})
}

func TestModel_History(t *testing.T) {
	t.Parallel()

	t.Run("new chat then select restores turns and fetches a summary", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m = send(t, m, "Hello")
		m = send(t, m, "How are you?")

		m = press(t, m, tea.KeyCtrlN)
		_, ok := f.manager.Active()
		assert.False(t, ok)
		assert.NotContains(t, m.Viewport.View(), "Hello")

		m = press(t, m, tea.KeyCtrlO)
		assert.Equal(t, "history", bt.ModeName(m))
		assert.Contains(t, m.View(), "Hello")

		m = press(t, m, tea.KeyEnter)
		assert.Equal(t, "chat", bt.ModeName(m))
		s, ok := f.manager.Active()
		require.True(t, ok)
		require.Len(t, s.Turns, 2)
		assert.Equal(t, "Hello", s.Turns[0].User)
		assert.Equal(t, "How are you?", s.Turns[1].User)
		assert.Equal(t, "Test summary", s.Summary)
		assert.Contains(t, m.Viewport.View(), "re: How are you?")
	})

	t.Run("cursor moves between entries", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m = send(t, m, "older")
		m = press(t, m, tea.KeyCtrlN)
		m = send(t, m, "newer")

		m = press(t, m, tea.KeyCtrlO)
		m = press(t, m, tea.KeyDown)
		m = press(t, m, tea.KeyEnter)

		s, _ := f.manager.Active()
		assert.Equal(t, "older", s.Turns[0].User)
	})

	t.Run("clear all removes everything", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m = send(t, m, "Hello")

		m = press(t, m, tea.KeyCtrlO)
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Empty(t, f.manager.History())
		assert.NotContains(t, m.Viewport.View(), "Hello")
		_, err := f.store.LoadRegistry(context.Background())
		assert.ErrorIs(t, err, chatrelay.ErrNotFound)
	})

	t.Run("esc closes the drawer", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		m = press(t, m, tea.KeyCtrlO)
		assert.Contains(t, m.View(), "No saved chats")
		m = press(t, m, tea.KeyEsc)
		assert.Equal(t, "chat", bt.ModeName(m))
	})
}

func TestModel_RunCode(t *testing.T) {
	t.Parallel()

	t.Run("submits the last snippet as a new turn", func(t *testing.T) {
		t.Parallel()
		var inputs []string
		f := newFixture(t, func(_ context.Context, _ string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
			inputs = append(inputs, req.Input)
			return chatrelay.InteractResponse{Text: "```sh\necho hi\n```"}, nil
		}, true)
		m := initModel(t, f)
		m = send(t, m, "show me a command")
		require.Len(t, bt.Code(m), 1)

		m = press(t, m, tea.KeyCtrlR)

		require.Len(t, inputs, 2)
		assert.Equal(t, "```sh\necho hi\n```", inputs[1])
		s, _ := f.manager.Active()
		assert.Len(t, s.Turns, 2)
	})

	t.Run("no code is an error", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		m = press(t, m, tea.KeyCtrlR)
		assert.ErrorContains(t, m.Err(), "no code to run")
	})
}

func TestModel_Viewer(t *testing.T) {
	t.Parallel()

	t.Run("opens on the latest images and cycles", func(t *testing.T) {
		t.Parallel()
		img := pngBytes(t, 4, 4)
		f := newFixture(t, func(context.Context, string, chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
			return chatrelay.InteractResponse{Text: "Here.", Images: [][]byte{img, img}}, nil
		}, true)
		m := initModel(t, f)
		m = send(t, m, "draw two cats")

		m = press(t, m, tea.KeyCtrlV)
		assert.Equal(t, "viewer", bt.ModeName(m))
		assert.Contains(t, m.View(), "image 1/2")

		m = press(t, m, tea.KeyRight)
		assert.Equal(t, 1, bt.ImageIndex(m))
		m = press(t, m, tea.KeyRight)
		assert.Equal(t, 1, bt.ImageIndex(m))
		m = press(t, m, tea.KeyLeft)
		assert.Equal(t, 0, bt.ImageIndex(m))

		m = press(t, m, tea.KeyEsc)
		assert.Equal(t, "chat", bt.ModeName(m))
	})

	t.Run("edit focus chooses the turn", func(t *testing.T) {
		t.Parallel()
		img := pngBytes(t, 4, 4)
		f := newFixture(t, func(_ context.Context, _ string, req chatrelay.InteractRequest) (chatrelay.InteractResponse, error) {
			if req.Input == "paint" {
				return chatrelay.InteractResponse{Text: "ok", Images: [][]byte{img}}, nil
			}
			return chatrelay.InteractResponse{Text: "ok"}, nil
		}, true)
		m := initModel(t, f)
		m = send(t, m, "paint")
		m = send(t, m, "thanks")

		m = press(t, m, tea.KeyCtrlE)
		m = press(t, m, tea.KeyCtrlV)
		assert.Equal(t, "edit", bt.ModeName(m))
		assert.ErrorContains(t, m.Err(), "no images")

		m = press(t, m, tea.KeyUp)
		m = press(t, m, tea.KeyCtrlV)
		assert.Equal(t, "viewer", bt.ModeName(m))
		assert.Contains(t, m.View(), "image 1/1")
	})

	t.Run("nothing to view", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newFixture(t, echo, true))
		m = send(t, m, "hello")
		m = press(t, m, tea.KeyCtrlV)
		assert.Equal(t, "chat", bt.ModeName(m))
		assert.ErrorContains(t, m.Err(), "no images")
	})
}

func TestModel_Login(t *testing.T) {
	t.Parallel()

	open := func(t *testing.T) (*fixture, bt.Model) {
		t.Helper()
		f := newFixture(t, echo, false)
		m := initModel(t, f)
		m = press(t, m, tea.KeyCtrlL)
		require.Equal(t, "login", bt.ModeName(m))
		return f, m
	}

	t.Run("successful login closes the modal", func(t *testing.T) {
		t.Parallel()
		f, m := open(t)

		m = typeText(t, m, "me@x.io")
		m = press(t, m, tea.KeyTab)
		m = typeText(t, m, "secret")
		m = press(t, m, tea.KeyEnter)

		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Equal(t, chatrelay.AuthAuthenticated, f.gate.State())
		assert.Equal(t, "fresh", f.gate.Token())
		assert.Contains(t, m.View(), "me@x.io")

		cred, err := f.store.LoadCredential(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "me@x.io", cred.Email)
	})

	t.Run("wrong password keeps the modal open", func(t *testing.T) {
		t.Parallel()
		f, m := open(t)

		m = typeText(t, m, "me@x.io")
		m = press(t, m, tea.KeyEnter) // moves to password
		m = typeText(t, m, "nope")
		m = press(t, m, tea.KeyEnter)

		assert.Equal(t, "login", bt.ModeName(m))
		assert.Equal(t, chatrelay.AuthModalOpen, f.gate.State())
		assert.Contains(t, m.View(), "Wrong email or password.")
	})

	t.Run("esc cancels", func(t *testing.T) {
		t.Parallel()
		f, m := open(t)
		m = press(t, m, tea.KeyEsc)
		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Equal(t, chatrelay.AuthAnonymous, f.gate.State())
	})

	t.Run("ctrl+l signs out when authenticated", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, echo, true)
		m := initModel(t, f)
		m = press(t, m, tea.KeyCtrlL)
		assert.Equal(t, "chat", bt.ModeName(m))
		assert.Equal(t, chatrelay.AuthAnonymous, f.gate.State())
		_, err := f.store.LoadCredential(context.Background())
		assert.ErrorIs(t, err, chatrelay.ErrNotFound)
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("full turn cycle", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, echo, true)
		m := bt.New(f.manager, f.gate, chatrelay.DefaultTheme())
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("re: hi")) &&
				bytes.Contains(out, []byte("enter send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())
		s, _ := f.manager.Active()
		assert.Len(t, s.Turns, 1)
	})

	t.Run("stored session renders on start", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, echo, true)
		_, err := f.manager.Submit(context.Background(), "hello there", nil)
		require.NoError(t, err)

		m := bt.New(f.manager, f.gate, chatrelay.DefaultTheme())
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("re: hello there"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})
}
