// Package tui is the interactive notification inbox.
package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/univ-portal/portal-inbox/internal/errors"
	"github.com/univ-portal/portal-inbox/internal/portal"
	"github.com/univ-portal/portal-inbox/internal/render"
	"github.com/univ-portal/portal-inbox/internal/sync"
)

const (
	headerFooterLines     = 4
	defaultViewportWidth  = 80
	defaultViewportHeight = 22
	statusClearDuration   = 5 * time.Second
)

// Inbox is the orchestrator surface the model drives.
type Inbox interface {
	RefreshNotifications(ctx context.Context) (sync.View, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

type viewLoadedMsg struct {
	view sync.View
	err  error
}

type actionDoneMsg struct {
	success string
	err     error
}

type clearStatusMsg struct{ at time.Time }

// ViewLoaded wraps a view published by a background poll loop.
func ViewLoaded(v sync.View) tea.Msg { return viewLoadedMsg{view: v} }

// SyncFailed wraps a background poll error.
func SyncFailed(err error) tea.Msg { return viewLoadedMsg{err: err} }

// Model is the bubbletea model of the inbox.
type Model struct {
	ctx      context.Context
	inbox    Inbox
	keys     KeyMap
	help     help.Model
	status   *errors.TUIHandler
	now      func() time.Time
	view     sync.View
	lines    []render.Line
	expanded map[string]bool
	cursor   int
	offset   int
	width    int
	height   int
	loaded   bool
}

// NewModel creates the inbox model. ctx bounds every portal call.
func NewModel(ctx context.Context, inbox Inbox) *Model {
	if inbox == nil {
		panic("tui.NewModel: inbox must not be nil")
	}
	return &Model{
		ctx:      ctx,
		inbox:    inbox,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		status:   errors.NewTUIHandler(nil),
		now:      time.Now,
		expanded: make(map[string]bool),
		width:    defaultViewportWidth,
		height:   defaultViewportHeight,
	}
}

// Init loads the first view.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampOffset()
		return m, nil
	case viewLoadedMsg:
		return m, m.handleViewLoaded(msg)
	case actionDoneMsg:
		if msg.err != nil {
			return m, m.setStatus(m.describe(msg.err), errors.MessageTypeError)
		}
		return m, tea.Batch(m.setStatus(msg.success, errors.MessageTypeSuccess), m.refresh())
	case clearStatusMsg:
		if latest, ok := m.status.Latest(); ok && !latest.Timestamp.After(msg.at) {
			m.status.Clear()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleViewLoaded(msg viewLoadedMsg) tea.Cmd {
	if msg.err != nil {
		if stderrors.Is(msg.err, sync.ErrBusy) {
			return m.setStatus("Synchronisation en cours", errors.MessageTypeInfo)
		}
		return m.setStatus(m.describe(msg.err), errors.MessageTypeError)
	}
	m.view = msg.view
	m.loaded = true
	m.rebuild()
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.MarkRead):
		return m, m.markRead()
	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.action("Toutes les notifications sont lues", func(ctx context.Context) error {
			return m.inbox.MarkAllRead(ctx)
		})
	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) refresh() tea.Cmd {
	ctx, inbox := m.ctx, m.inbox
	return func() tea.Msg {
		v, err := inbox.RefreshNotifications(ctx)
		return viewLoadedMsg{view: v, err: err}
	}
}

func (m *Model) action(success string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{success: success, err: fn(ctx)}
	}
}

func (m *Model) selected() (render.Line, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return render.Line{}, false
	}
	return m.lines[m.cursor], true
}

// markRead marks the selected record read. On a group row it marks every
// unread member.
func (m *Model) markRead() tea.Cmd {
	line, ok := m.selected()
	if !ok {
		return nil
	}
	var ids []string
	if line.IsGroup() {
		for _, n := range line.Item.GroupItems {
			if !n.IsRead {
				ids = append(ids, n.ID)
			}
		}
	} else if n := line.Notification(); !n.IsRead {
		ids = append(ids, n.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	return m.action(fmt.Sprintf("%d notification(s) marquée(s) comme lue(s)", len(ids)), func(ctx context.Context) error {
		for _, id := range ids {
			if err := m.inbox.MarkRead(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Model) deleteSelected() tea.Cmd {
	line, ok := m.selected()
	if !ok {
		return nil
	}
	if line.IsGroup() {
		return m.setStatus("Dépliez le groupe pour supprimer une notification", errors.MessageTypeWarning)
	}
	id := line.Notification().ID
	return m.action("Notification supprimée", func(ctx context.Context) error {
		return m.inbox.Delete(ctx, id)
	})
}

func (m *Model) toggle() {
	line, ok := m.selected()
	if !ok || !line.Item.IsGrouped {
		return
	}
	k := render.GroupKey(line.Item)
	if m.expanded[k] {
		delete(m.expanded, k)
	} else {
		m.expanded[k] = true
	}
	m.rebuild()
	// Keep the cursor on the group header after collapsing from a member row.
	for i, l := range m.lines {
		if l.IsGroup() && render.GroupKey(l.Item) == k {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

func (m *Model) rebuild() {
	m.lines = render.Lines(m.view.Items, func(k string) bool { return m.expanded[k] })
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampOffset()
}

func (m *Model) move(delta int) {
	if len(m.lines) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
	m.clampOffset()
}

func (m *Model) listHeight() int {
	h := m.height - headerFooterLines
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) clampOffset() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) setStatus(text string, typ errors.MessageType) tea.Cmd {
	switch typ {
	case errors.MessageTypeError:
		m.status.Error(text)
	case errors.MessageTypeWarning:
		m.status.Warning(text)
	case errors.MessageTypeSuccess:
		m.status.Success(text)
	default:
		m.status.Info(text)
	}
	at := m.now()
	return tea.Tick(statusClearDuration, func(time.Time) tea.Msg { return clearStatusMsg{at: at} })
}

func (m *Model) describe(err error) string {
	switch {
	case portal.IsAuthError(err):
		return "Session expirée : " + err.Error()
	case portal.IsTransient(err):
		return "Hors ligne, nouvel essai au prochain rafraîchissement"
	default:
		return err.Error()
	}
}

// View renders the inbox.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(render.Summary(m.view.Total, m.view.Unread, m.view.Strategy))
	b.WriteByte('\n')
	b.WriteString(render.Header(m.width))
	b.WriteByte('\n')

	switch {
	case !m.loaded:
		b.WriteString("Chargement...\n")
	case len(m.lines) == 0:
		b.WriteString("Aucune notification\n")
	default:
		end := m.offset + m.listHeight()
		if end > len(m.lines) {
			end = len(m.lines)
		}
		now := m.now()
		for i := m.offset; i < end; i++ {
			b.WriteString(render.Row(render.RowState{
				Line:     m.lines[i],
				Width:    m.width,
				Selected: i == m.cursor,
				Now:      now,
			}))
			b.WriteByte('\n')
		}
	}

	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine() string {
	msg, ok := m.status.Latest()
	if !ok {
		return ""
	}
	style := lipgloss.NewStyle()
	switch msg.Type {
	case errors.MessageTypeError:
		style = style.Foreground(lipgloss.Color("1"))
	case errors.MessageTypeWarning:
		style = style.Foreground(lipgloss.Color("3"))
	case errors.MessageTypeSuccess:
		style = style.Foreground(lipgloss.Color("2"))
	}
	return style.Render(msg.Text)
}

// NewProgram wraps the inbox model in a bubbletea program. Background poll
// results reach it through Send with ViewLoaded and SyncFailed.
func NewProgram(ctx context.Context, inbox Inbox, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(NewModel(ctx, inbox), opts...)
}
