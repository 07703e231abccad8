package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatrelay"
	"github.com/fwojciec/chatrelay/fs"
	"github.com/fwojciec/chatrelay/goldmark"
)

var _ tea.Model = Model{}

// ChatHint is the key legend shown in the status line when idle.
const ChatHint = "enter send · ctrl+o history · ctrl+e edit · ctrl+r run · ctrl+v images · ctrl+l account · ctrl+c quit"

type mode int

const (
	modeChat mode = iota
	modeHistory
	modeEdit
	modeLogin
	modeViewer
)

// AttachFunc resolves an /attach argument to a file.
type AttachFunc func(pattern string) (*chatrelay.Attachment, error)

// Option configures a Model.
type Option func(*Model)

// WithAttachFunc sets how /attach arguments are resolved. The default
// resolves them against the working directory.
func WithAttachFunc(fn AttachFunc) Option {
	return func(m *Model) { m.attach = fn }
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model

	chat    Chat
	gate    Gate
	styles  Styles
	attach  AttachFunc
	spinner spinner.Model

	mode       mode
	attachment *chatrelay.Attachment
	code       []goldmark.CodeBlock

	// Edit mode.
	focus int
	draft string

	// History drawer.
	history []chatrelay.Session
	cursor  int

	login loginForm

	// Image viewer.
	images     [][]byte
	imageIndex int

	width int
	err   error
	ready bool
}

// New creates a TUI Model over a session manager and an auth gate.
func New(chat Chat, gate Gate, theme chatrelay.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:   ti,
		chat:    chat,
		gate:    gate,
		styles:  NewStyles(theme),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		login:   newLoginForm(),
		focus:   -1,
		attach: func(pattern string) (*chatrelay.Attachment, error) {
			return fs.Attach(".", pattern)
		},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Running returns whether a relay call is in flight.
func (m Model) Running() bool { return m.chat.Responding() }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Attachment returns the attachment queued for the next submission.
func (m Model) Attachment() *chatrelay.Attachment { return m.attachment }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.gate.State() == chatrelay.AuthModalOpen {
		return tea.Batch(textinput.Blink, func() tea.Msg { return openLoginMsg{} })
	}
	return textinput.Blink
}

type openLoginMsg struct{}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.chat.Responding() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TurnDoneMsg:
		if msg.Err != nil && !relayFailure(msg.Err) {
			m.err = msg.Err
		}
		m = m.refresh()
		return m.openLoginIfRejected()

	case SelectDoneMsg:
		m.mode = modeChat
		m.err = msg.Err
		m = m.refresh()
		return m.openLoginIfRejected()

	case LoginDoneMsg:
		if msg.Err != nil {
			m.login.err = loginError(msg.Err)
			return m, nil
		}
		m.mode = modeChat
		m.err = nil
		return m, m.Input.Focus()

	case openLoginMsg:
		return m.openLogin()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	switch m.mode {
	case modeChat, modeEdit:
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	case modeLogin:
		m.login, cmd = m.login.update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	switch m.mode {
	case modeHistory:
		b.WriteString(place(m.width, m.Viewport.Height, renderHistory(m.history, m.cursor, m.width, m.styles)))
	case modeLogin:
		b.WriteString(place(m.width, m.Viewport.Height, m.login.view(m.gate.State(), m.styles)))
	case modeViewer:
		b.WriteString(place(m.width, m.Viewport.Height, m.viewerView()))
	default:
		b.WriteString(m.Viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.mode {
	case modeHistory:
		return m.handleHistoryKey(msg)
	case modeEdit:
		return m.handleEditKey(msg)
	case modeLogin:
		return m.handleLoginKey(msg)
	case modeViewer:
		return m.handleViewerKey(msg)
	}

	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.handleInput(text)

	case tea.KeyCtrlO:
		m.history = m.chat.History()
		m.cursor = 0
		m.mode = modeHistory
		return m, nil

	case tea.KeyCtrlN:
		return m.newChat()

	case tea.KeyCtrlE:
		return m.startEdit()

	case tea.KeyCtrlR:
		return m.runCode()

	case tea.KeyCtrlV:
		return m.openViewer()

	case tea.KeyCtrlL:
		if m.gate.State() == chatrelay.AuthAuthenticated {
			return m.signOut()
		}
		return m.openLogin()
	}

	// Only non-character keys scroll the viewport; 'j'/'k' are text.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleInput dispatches slash commands and submits everything else.
func (m Model) handleInput(text string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(text, " ")
	switch name {
	case "/attach":
		att, err := m.attach(strings.TrimSpace(arg))
		m.err = err
		if err == nil {
			m.attachment = att
			m.Input.SetValue("")
		}
		return m, nil
	case "/detach":
		m.attachment = nil
		m.Input.SetValue("")
		return m, nil
	case "/new":
		m.Input.SetValue("")
		return m.newChat()
	case "/clear":
		m.Input.SetValue("")
		m.err = m.chat.ClearAll(context.Background())
		m.attachment = nil
		return m.refresh(), nil
	case "/login":
		m.Input.SetValue("")
		return m.openLogin()
	case "/logout":
		m.Input.SetValue("")
		return m.signOut()
	}
	return m.submit(text)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	idx, err := m.chat.Begin(context.Background(), text, m.attachment)
	if err != nil {
		m.err = err
		if errors.Is(err, chatrelay.ErrBusy) || errors.Is(err, chatrelay.ErrValidation) {
			return m, nil
		}
		// The turn was appended but not persisted; still complete it.
	} else {
		m.err = nil
	}
	m.Input.SetValue("")
	m.attachment = nil
	m = m.refresh()
	return m, tea.Batch(completeTurn(m.chat, idx), m.spinner.Tick)
}

func (m Model) newChat() (tea.Model, tea.Cmd) {
	m.err = m.chat.NewChat(context.Background())
	m.attachment = nil
	return m.refresh(), nil
}

func (m Model) runCode() (tea.Model, tea.Cmd) {
	if len(m.code) == 0 {
		m.err = errors.New("no code to run")
		return m, nil
	}
	c := m.code[len(m.code)-1]
	return m.submit(fmt.Sprintf("```%s\n%s```", c.Language, c.Source))
}

func (m Model) signOut() (tea.Model, tea.Cmd) {
	m.err = m.gate.SignOut(context.Background())
	return m, nil
}

func (m Model) openLogin() (tea.Model, tea.Cmd) {
	m.gate.OpenModal()
	if m.gate.State() != chatrelay.AuthModalOpen {
		return m, nil
	}
	m.mode = modeLogin
	m.Input.Blur()
	var cmd tea.Cmd
	m.login, cmd = m.login.reset()
	return m, cmd
}

// openLoginIfRejected shows the login modal after the gate rejected the
// credential.
func (m Model) openLoginIfRejected() (tea.Model, tea.Cmd) {
	if m.mode == modeLogin || m.gate.State() != chatrelay.AuthModalOpen {
		return m, nil
	}
	return m.openLogin()
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeChat
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.history)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.history) == 0 {
			return m, nil
		}
		return m, selectSession(m.chat, m.history[m.cursor].ID)
	case "n":
		m.mode = modeChat
		return m.newChat()
	case "x":
		m.mode = modeChat
		m.err = m.chat.ClearAll(context.Background())
		m.history = nil
		return m.refresh(), nil
	}
	return m, nil
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	s, ok := m.chat.Active()
	if !ok || len(s.Turns) == 0 || m.chat.Responding() {
		return m, nil
	}
	m.mode = modeEdit
	m.draft = m.Input.Value()
	return m.focusTurn(s, len(s.Turns)-1), nil
}

func (m Model) focusTurn(s chatrelay.Session, i int) Model {
	m.focus = i
	m.Input.SetValue(s.Turns[i].User)
	m.Input.CursorEnd()
	return m.refresh()
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.endEdit(), nil
	case tea.KeyEnter:
		if err := m.chat.Edit(context.Background(), m.focus, m.Input.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		return m.endEdit(), nil
	case tea.KeyCtrlV:
		s, ok := m.chat.Active()
		if ok && m.focus < len(s.Turns) {
			return m.viewTurnImages(s.Turns[m.focus]), nil
		}
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		s, ok := m.chat.Active()
		if !ok {
			return m.endEdit(), nil
		}
		i := m.focus - 1
		if msg.Type == tea.KeyDown {
			i = m.focus + 1
		}
		if i >= 0 && i < len(s.Turns) {
			m = m.focusTurn(s, i)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) endEdit() Model {
	m.mode = modeChat
	m.focus = -1
	m.Input.SetValue(m.draft)
	m.draft = ""
	return m.refresh()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.gate.CancelModal()
		m.mode = modeChat
		return m, m.Input.Focus()
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.login, cmd = m.login.next()
		return m, cmd
	case tea.KeyEnter:
		if m.login.focus == 0 {
			var cmd tea.Cmd
			m.login, cmd = m.login.next()
			return m, cmd
		}
		if m.gate.State() == chatrelay.AuthAuthenticating {
			return m, nil
		}
		m.login.err = ""
		return m, login(m.gate, m.login.email.Value(), m.login.password.Value())
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

// openViewer shows the images of the most recent turn that has any.
func (m Model) openViewer() (tea.Model, tea.Cmd) {
	s, ok := m.chat.Active()
	if !ok {
		return m, nil
	}
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if len(s.Turns[i].Images) > 0 {
			return m.viewTurnImages(s.Turns[i]), nil
		}
	}
	m.err = errors.New("no images to view")
	return m, nil
}

func (m Model) viewTurnImages(t chatrelay.Turn) Model {
	if len(t.Images) == 0 {
		m.err = errors.New("no images to view")
		return m
	}
	if m.mode == modeEdit {
		m = m.endEdit()
	}
	m.images = t.Images
	m.imageIndex = 0
	m.mode = modeViewer
	return m
}

func (m Model) handleViewerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = modeChat
		m.images = nil
	case "left", "h":
		if m.imageIndex > 0 {
			m.imageIndex--
		}
	case "right", "l":
		if m.imageIndex < len(m.images)-1 {
			m.imageIndex++
		}
	}
	return m, nil
}

func (m Model) viewerView() string {
	caption := m.styles.Muted.Render(fmt.Sprintf("image %d/%d · ←/→ · esc close", m.imageIndex+1, len(m.images)))
	img, err := RenderImage(m.images[m.imageIndex], m.width, max(m.Viewport.Height-1, 1))
	if err != nil {
		img = m.styles.Error.Render(err.Error())
	}
	return img + "\n" + caption
}

// refresh re-renders the active session into the viewport.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	var turns []chatrelay.Turn
	if s, ok := m.chat.Active(); ok {
		turns = s.Turns
	}
	focus := -1
	if m.mode == modeEdit {
		focus = m.focus
	}
	t := renderTranscript(turns, m.chat.Responding(), m.Viewport.Width, m.styles, focus)
	m.code = t.Code
	m.Viewport.SetContent(t.View)
	if m.mode != modeEdit {
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	switch m.mode {
	case modeEdit:
		return m.styles.Accent.Render(fmt.Sprintf("Editing turn %d · enter save · ↑/↓ choose · esc cancel", m.focus+1))
	case modeHistory, modeViewer, modeLogin:
		return ""
	}
	if m.chat.Responding() {
		return m.spinner.View() + m.styles.Muted.Render(" Waiting for response...")
	}

	var parts []string
	if m.attachment != nil {
		glyph := m.attachment.Glyph()
		if glyph == "" {
			glyph = "🖼"
		}
		parts = append(parts, m.styles.Attachment.Render(glyph+" "+m.attachment.Name))
	}
	if email := m.gate.Email(); email != "" {
		parts = append(parts, m.styles.Success.Render(email))
	} else {
		parts = append(parts, m.styles.Muted.Render("signed out"))
	}
	parts = append(parts, m.styles.Muted.Render(ChatHint))
	return strings.Join(parts, m.styles.Muted.Render(" · "))
}

// relayFailure reports whether err is a relay outcome already recorded on
// the turn.
func relayFailure(err error) bool {
	return errors.Is(err, chatrelay.ErrUnauthorized) ||
		errors.Is(err, chatrelay.ErrConnect) ||
		errors.Is(err, chatrelay.ErrRateLimited) ||
		errors.Is(err, chatrelay.ErrBadResponse)
}

func loginError(err error) string {
	switch {
	case errors.Is(err, chatrelay.ErrValidation):
		return "Email and password are required."
	case errors.Is(err, chatrelay.ErrUnauthorized):
		return "Wrong email or password."
	case errors.Is(err, chatrelay.ErrConnect):
		return chatrelay.MsgFailedConnect
	default:
		return chatrelay.MsgFailedResponse
	}
}

// completeTurn issues the relay call for the turn at index.
func completeTurn(chat Chat, index int) tea.Cmd {
	return func() tea.Msg {
		_, err := chat.Complete(context.Background(), index)
		return TurnDoneMsg{Index: index, Err: err}
	}
}

func selectSession(chat Chat, id string) tea.Cmd {
	return func() tea.Msg {
		s, err := chat.Select(context.Background(), id)
		return SelectDoneMsg{Session: s, Err: err}
	}
}

func login(gate Gate, email, password string) tea.Cmd {
	return func() tea.Msg {
		return LoginDoneMsg{Err: gate.Login(context.Background(), email, password)}
	}
}
