package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shutter/internal/apierr"
	"github.com/five82/shutter/internal/logtail"
	"github.com/five82/shutter/internal/pending"
	"github.com/five82/shutter/internal/profile"
	"github.com/five82/shutter/internal/session"
	"github.com/five82/shutter/internal/state"
	"github.com/five82/shutter/internal/transport"
)

// Editor runs the profile operations started from the UI.
// This interface is implemented by *profile.Service.
type Editor interface {
	UpdateProfile(ctx context.Context, update transport.ProfileUpdate) (transport.Profile, error)
	UploadAvatar(ctx context.Context, upload transport.AvatarUpload) (transport.Profile, error)
	Refresh(ctx context.Context) error
}

// SessionReporter exposes the revalidation state shown in the header.
type SessionReporter interface {
	State() session.State
	Failures() int
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Identity  *state.Store
	Editor    Editor
	Pending   *pending.Registry
	Session   SessionReporter
	Focus     func() // called when the terminal regains focus
	PollTick  time.Duration
	ThemeName string
	LogPath   string // diagnostics log shown by the diagnostics panel
}

type field int

const (
	fieldName field = iota
	fieldEmail
	fieldBio
	fieldAvatar
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Email", "Bio", "Avatar file"}

// fieldKeys maps inputs to the server's fieldErrors keys.
var fieldKeys = [fieldCount]string{"name", "email", "bio", "data"}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	identity *state.Store
	editor   Editor
	session  SessionReporter
	focus    func()
	pollTick time.Duration
	logPath  string

	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	showHelp bool

	snapshot    state.Snapshot
	lastUpdated time.Time

	inputs      [fieldCount]textinput.Model
	focused     field
	dirty       bool
	draft       transport.ProfileUpdate
	fieldErrors map[string]string

	spinner        spinner.Model
	pendingSaves   int
	pendingUploads int

	message    string
	messageErr bool

	showLogs bool
	logLines []string
	logErr   error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = 250 * time.Millisecond
	}

	m := Model{
		ctx:      ctx,
		identity: opts.Identity,
		editor:   opts.Editor,
		session:  opts.Session,
		focus:    opts.Focus,
		pollTick: pollTick,
		logPath:  opts.LogPath,
		theme:    GetTheme(opts.ThemeName),
		keys:     DefaultKeyMap(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = strings.ToLower(fieldLabels[i])
		m.inputs[i] = in
	}
	m.inputs[fieldBio].CharLimit = 500
	m.focusField(fieldName)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tickCmd(m.pollTick)}
	if m.identity != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.identity))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		for i := range m.inputs {
			m.inputs[i].Width = max(20, m.width-24)
		}
		return m, nil

	case tea.FocusMsg:
		if m.focus != nil {
			m.focus()
		}
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.identity != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.identity))
		}
		if m.showLogs {
			cmds = append(cmds, readLogCmd(m.logPath, m.logLineCount()))
		}
		return m, tea.Batch(cmds...)

	case logLinesMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		return m, nil

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		if !m.dirty {
			m.loadInputs()
		}
		return m, nil

	case pendingMsg:
		wasIdle := m.pendingTotal() == 0
		switch msg.kind {
		case profile.KindUpdateProfile:
			m.pendingSaves = msg.count
		case profile.KindUploadAvatar:
			m.pendingUploads = msg.count
		}
		if wasIdle && m.pendingTotal() > 0 {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if m.pendingTotal() == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Diagnostics):
		m.showLogs = !m.showLogs
		if m.showLogs {
			return m, readLogCmd(m.logPath, m.logLineCount())
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.focusField((m.focused + 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focusField((m.focused + fieldCount - 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.Discard):
		m.dirty = false
		m.fieldErrors = nil
		m.loadInputs()
		m.setMessage("edits discarded", false)
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.Upload):
		return m.upload()
	case key.Matches(msg, m.keys.Refresh):
		if m.editor == nil {
			return m, nil
		}
		m.setMessage("refetching identity", false)
		return m, refreshCmd(m.ctx, m.editor)
	}

	before := m.inputs[m.focused].Value()
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	if m.focused != fieldAvatar && m.inputs[m.focused].Value() != before {
		m.dirty = true
	}
	return m, cmd
}

func (m Model) save() (tea.Model, tea.Cmd) {
	if m.editor == nil {
		return m, nil
	}
	m.draft = transport.ProfileUpdate{
		Name:  m.inputs[fieldName].Value(),
		Email: m.inputs[fieldEmail].Value(),
		Bio:   m.inputs[fieldBio].Value(),
	}
	// The cached identity now carries the draft; follow it again.
	m.dirty = false
	m.fieldErrors = nil
	m.setMessage("saving profile", false)
	return m, saveCmd(m.ctx, m.editor, m.draft)
}

func (m Model) upload() (tea.Model, tea.Cmd) {
	if m.editor == nil {
		return m, nil
	}
	path := strings.TrimSpace(m.inputs[fieldAvatar].Value())
	if path == "" {
		m.focusField(fieldAvatar)
		m.setMessage("enter an image path to upload", true)
		return m, nil
	}
	m.fieldErrors = nil
	m.setMessage("uploading "+path, false)
	return m, uploadCmd(m.ctx, m.editor, path)
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.identity != nil {
		cmd = fetchSnapshotCmd(m.identity)
	}

	if msg.err == nil {
		m.fieldErrors = nil
		switch msg.op {
		case opSave:
			m.setMessage("profile saved", false)
		case opUpload:
			m.inputs[fieldAvatar].SetValue("")
			m.setMessage("avatar uploaded", false)
		case opRefresh:
			m.setMessage("identity refreshed", false)
		}
		return m, cmd
	}

	m.fieldErrors = apierr.FieldErrors(msg.err)
	m.setMessage(describeError(msg.op, msg.err), true)
	if msg.op == opSave {
		// Keep the rejected draft on screen so it can be fixed and resent.
		m.inputs[fieldName].SetValue(m.draft.Name)
		m.inputs[fieldEmail].SetValue(m.draft.Email)
		m.inputs[fieldBio].SetValue(m.draft.Bio)
		m.dirty = true
	}
	return m, cmd
}

func (m *Model) focusField(f field) {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focused = f
	m.inputs[f].Focus()
}

// loadInputs copies the mirrored profile into the editable fields.
func (m *Model) loadInputs() {
	p := m.snapshot.Profile
	m.inputs[fieldName].SetValue(p.Name)
	m.inputs[fieldEmail].SetValue(p.Email)
	m.inputs[fieldBio].SetValue(p.Bio)
}

func (m *Model) setMessage(text string, isErr bool) {
	m.message = text
	m.messageErr = isErr
}

func (m Model) logLineCount() int {
	return max(5, m.height/3)
}

func (m Model) pendingTotal() int {
	return m.pendingSaves + m.pendingUploads
}

func describeError(op string, err error) string {
	switch {
	case errors.Is(err, apierr.ErrValidation):
		return op + " rejected: fix the highlighted fields"
	case errors.Is(err, apierr.ErrNetwork):
		return op + " failed: server unreachable"
	case errors.Is(err, transport.ErrUnauthorized):
		return op + " failed: session expired"
	case errors.Is(err, profile.ErrNoIdentity):
		return op + " failed: profile not loaded yet"
	default:
		return op + " failed: " + err.Error()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logLinesMsg struct {
	lines []string
	err   error
}

type pendingMsg struct {
	kind  string
	count int
}

const (
	opSave    = "save"
	opUpload  = "upload"
	opRefresh = "refresh"
)

type resultMsg struct {
	op  string
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func readLogCmd(path string, n int) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, n)
		return logLinesMsg{lines: lines, err: err}
	}
}

func saveCmd(ctx context.Context, editor Editor, update transport.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		_, err := editor.UpdateProfile(ctx, update)
		return resultMsg{op: opSave, err: err}
	}
}

func uploadCmd(ctx context.Context, editor Editor, path string) tea.Cmd {
	return func() tea.Msg {
		upload, err := readAvatar(path)
		if err == nil {
			_, err = editor.UploadAvatar(ctx, upload)
		}
		return resultMsg{op: opUpload, err: err}
	}
}

func refreshCmd(ctx context.Context, editor Editor) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{op: opRefresh, err: editor.Refresh(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m := New(opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	if opts.Pending != nil {
		for _, kind := range []string{profile.KindUpdateProfile, profile.KindUploadAvatar} {
			unsubscribe := opts.Pending.Subscribe(kind, func(vars []any) {
				p.Send(pendingMsg{kind: kind, count: len(vars)})
			})
			defer unsubscribe()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
