// Package tui is the interactive list: it draws view.Page rows with Bubble
// Tea and turns key presses into Sync operations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada-remote/internal/edit"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/state"
	"github.com/Makepad-fr/tada-remote/internal/ui"
	"github.com/Makepad-fr/tada-remote/internal/view"
)

// Options carries what the model needs from outside.
type Options struct {
	Logger *slog.Logger
	// Copy writes text to the clipboard. Defaults to the system clipboard.
	Copy func(string) error
}

// resultMsg delivers one finished Sync operation back to Update. seq is
// zero for operations that are not guarded per id.
type resultMsg struct {
	op  remote.Op
	id  model.ID
	seq uint64
	res state.Result
	err error
}

// Model is the Bubble Tea model. State changes only happen in Update.
type Model struct {
	ctx    context.Context
	sync   *state.Sync
	logger *slog.Logger
	copy   func(string) error

	st   state.State
	seq  state.Sequencer
	edit edit.Controller
	page view.Page

	list    list.Model
	keys    keyMap
	ti      textinput.Model // shared text input (used for add & edit)
	spinner spinner.Model

	adding  bool   // true when inline add is active
	addErr  string // last add validation error
	pending int    // requests in flight
	loaded  bool   // first fetch finished, successfully or not
	errText string // last user-visible failure
	status  string

	width, height int
}

func New(ctx context.Context, sync *state.Sync, opt Options) Model {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Copy == nil {
		opt.Copy = clipboard.WriteAll
	}

	keys := defaultKeyMap()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = keys.listKeys
	l.AdditionalFullHelpKeys = keys.listKeys
	// q is ours; esc only clears the filter
	l.KeyMap.Quit = key.NewBinding(key.WithDisabled())

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.Current().Accent

	w, h := ui.TermSize()
	m := Model{
		pending: 1, // initial fetch, started by Init
		ctx:     ctx,
		sync:    sync,
		logger:  opt.Logger,
		copy:    opt.Copy,
		list:    l,
		keys:    keys,
		ti:      ti,
		spinner: sp,
		width:   w,
		height:  h,
	}
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, sync *state.Sync, opt Options) error {
	p := tea.NewProgram(New(ctx, sync, opt), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.call(remote.OpList, "", 0, m.fetchAll), m.spinner.Tick)
}

func (m Model) fetchAll(ctx context.Context) (state.Result, error) {
	return m.sync.FetchAll(ctx)
}

func (m Model) call(op remote.Op, id model.ID, seq uint64, run func(context.Context) (state.Result, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := run(ctx)
		return resultMsg{op: op, id: id, seq: seq, res: res, err: err}
	}
}

// dispatch starts op in the background. guarded ops get a sequence number
// for id so their response is dropped once a newer one for id was applied.
func (m *Model) dispatch(op remote.Op, id model.ID, guarded bool, run func(context.Context) (state.Result, error)) tea.Cmd {
	var seq uint64
	if guarded {
		seq = m.seq.Begin(id)
	}
	m.pending++
	cmd := m.call(op, id, seq, run)
	if m.pending == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.adding {
			return m.updateAdding(msg)
		}
		if m.edit.Phase() != edit.Viewing {
			return m.updateEditing(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	if msg.op == remote.OpList {
		m.loaded = true
	}
	if msg.seq != 0 && m.seq.Stale(msg.id, msg.seq) {
		m.logger.Debug("stale response dropped", "op", msg.op, "id", msg.id, "seq", msg.seq)
		if msg.op == remote.OpEdit {
			// a newer response for the row already landed; close the input
			m.edit.Drop()
			m.ti.SetValue("")
			m.ti.Blur()
		}
		cmd := m.refresh()
		return m, cmd
	}

	if msg.err != nil {
		m.errText = remote.UserMessage(msg.op, msg.err)
		m.status = ""
		if msg.op == remote.OpEdit {
			// the stale input stays until the next successful commit or cancel
			m.edit.Failed(msg.err)
		}
		cmd := m.refresh()
		return m, cmd
	}

	if msg.seq != 0 {
		m.seq.Applied(msg.id, msg.seq)
	}
	m.st = msg.res.Apply(m.st)
	m.errText = ""
	switch msg.op {
	case remote.OpCreate:
		m.adding = false
		m.addErr = ""
		m.ti.SetValue("")
		m.ti.Blur()
		m.status = "added"
	case remote.OpEdit:
		m.edit.Succeeded()
		m.ti.SetValue("")
		m.ti.Blur()
		m.status = "saved"
	case remote.OpToggle:
		m.status = "updated"
	case remote.OpDelete:
		m.status = "deleted"
	case remote.OpList:
		m.status = fmt.Sprintf("loaded %d", m.st.Len())
	}
	cmd := m.refresh()
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		text := strings.TrimSpace(m.ti.Value())
		if text == "" {
			m.addErr = remote.UserMessage(remote.OpCreate, remote.ErrEmptyText)
			return m, nil
		}
		m.addErr = ""
		cmd := m.dispatch(remote.OpCreate, "", false, func(ctx context.Context) (state.Result, error) {
			return m.sync.Create(ctx, text)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Cancel):
		m.adding = false
		m.addErr = ""
		m.ti.SetValue("")
		m.ti.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.edit.Phase() == edit.Committing {
		// input is frozen until the server answers
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Save):
		id, text, err := m.edit.Commit()
		if err != nil {
			// empty: re-prompt, keep focus in the field
			m.ti.Focus()
			cmd := m.refresh()
			return m, cmd
		}
		send := m.dispatch(remote.OpEdit, id, true, func(ctx context.Context) (state.Result, error) {
			return m.sync.UpdateText(ctx, id, text)
		})
		cmd := m.refresh()
		return m, tea.Batch(cmd, send)
	case key.Matches(msg, m.keys.Cancel):
		_, _ = m.edit.Cancel()
		m.ti.SetValue("")
		m.ti.Blur()
		cmd := m.refresh()
		return m, cmd
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.edit.SetWorking(m.ti.Value())
	redraw := m.refresh()
	return m, tea.Batch(cmd, redraw)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// while typing a filter every key belongs to the list
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.addErr = ""
		m.ti.SetValue("")
		m.ti.Placeholder = "New todo..."
		m.ti.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.dispatch(remote.OpList, "", false, m.fetchAll)
		return m, cmd
	}

	row, ok := m.selected()
	switch {
	case key.Matches(msg, m.keys.Toggle):
		if !ok {
			return m, nil
		}
		id := row.ID
		cmd := m.dispatch(remote.OpToggle, id, true, func(ctx context.Context) (state.Result, error) {
			return m.sync.Toggle(ctx, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if !ok {
			return m, nil
		}
		id := row.ID
		cmd := m.dispatch(remote.OpDelete, id, true, func(ctx context.Context) (state.Result, error) {
			return m.sync.Remove(ctx, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		if !ok {
			return m, nil
		}
		if err := m.edit.Begin(row.ID, row.Text); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.errText = ""
		m.ti.SetValue(row.Text)
		m.ti.CursorEnd()
		m.ti.Placeholder = "Edit todo..."
		m.ti.Focus()
		cmd := m.refresh()
		return m, tea.Batch(textinput.Blink, cmd)

	case key.Matches(msg, m.keys.Copy):
		if !ok {
			return m, nil
		}
		if err := m.copy(row.Text); err != nil {
			m.logger.Warn("clipboard write failed", "err", err)
			m.errText = "Failed to copy todo"
			return m, nil
		}
		m.status = "copied"
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) selected() (view.Row, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return view.Row{}, false
	}
	return it.row, true
}

// refresh rebuilds the page from state and the edit session, then feeds the
// rows to the list.
func (m *Model) refresh() tea.Cmd {
	var session *edit.Session
	if s, ok := m.edit.Active(); ok {
		if m.st.Index(s.ID) < 0 {
			m.edit.Drop()
			m.ti.SetValue("")
			m.ti.Blur()
		} else {
			session = &s
		}
	}
	m.page = view.Build(m.st, session)

	items := make([]list.Item, 0, len(m.page.Rows))
	for _, r := range m.page.Rows {
		items = append(items, listItem{row: r})
	}
	m.list.Title = m.header()
	return m.list.SetItems(items)
}
