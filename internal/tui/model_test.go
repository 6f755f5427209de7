package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/errors"
	"github.com/univ-portal/portal-inbox/internal/portal"
	"github.com/univ-portal/portal-inbox/internal/sync"
)

type fakeInbox struct {
	view       sync.View
	refreshErr error
	actionErr  error
	refreshes  int
	read       []string
	allRead    int
	deleted    []string
}

func (f *fakeInbox) RefreshNotifications(context.Context) (sync.View, error) {
	f.refreshes++
	return f.view, f.refreshErr
}

func (f *fakeInbox) MarkRead(_ context.Context, id string) error {
	f.read = append(f.read, id)
	return f.actionErr
}

func (f *fakeInbox) MarkAllRead(context.Context) error {
	f.allRead++
	return f.actionErr
}

func (f *fakeInbox) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.actionErr
}

var now = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func sampleView() sync.View {
	members := []domain.Notification{
		{ID: "a1", Title: "Absence", Type: domain.TypeAdmin, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "a2", Title: "Dossier", Type: domain.TypeAdmin, CreatedAt: now.Add(-2 * time.Hour), IsRead: true},
	}
	return sync.View{
		Items: []domain.DisplayItem{
			{Notification: domain.Notification{ID: "c1", Title: "Cours annulé", Type: domain.TypeCours, CreatedAt: now.Add(-time.Hour)}},
			{
				Notification: domain.Notification{ID: "a1", Title: "2 notifications de Administration", Type: domain.TypeAdmin, CreatedAt: members[0].CreatedAt},
				IsGrouped:    true,
				GroupCount:   2,
				GroupItems:   members,
			},
		},
		Strategy: domain.GroupDaily,
		Total:    3,
		Unread:   2,
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T) (*Model, *fakeInbox) {
	t.Helper()
	inbox := &fakeInbox{view: sampleView()}
	m := NewModel(context.Background(), inbox)
	m.now = func() time.Time { return now }
	cmd := m.Init()
	require.NotNil(t, cmd)
	m.Update(cmd())
	require.True(t, m.loaded)
	return m, inbox
}

func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func TestNewModelPanicsWithoutInbox(t *testing.T) {
	assert.Panics(t, func() { NewModel(context.Background(), nil) })
}

func TestInitLoadsView(t *testing.T) {
	m, inbox := loadedModel(t)
	assert.Equal(t, 1, inbox.refreshes)
	require.Len(t, m.lines, 2)

	out := m.View()
	assert.Contains(t, out, "3 notifications, 2 non lues")
	assert.Contains(t, out, "Cours annulé")
	assert.Contains(t, out, "2 notifications de Administration")
	assert.NotContains(t, out, "Absence")
}

func TestToggleExpandsAndCollapsesGroup(t *testing.T) {
	m, _ := loadedModel(t)

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.lines, 4)
	assert.Contains(t, m.View(), "Absence")

	press(m, keyRunes("j"))
	press(m, keyRunes("j"))
	assert.Equal(t, 3, m.cursor)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, m.lines, 2)
	assert.Equal(t, 1, m.cursor, "cursor returns to the group header")
}

func TestToggleOnSingleIsNoop(t *testing.T) {
	m, _ := loadedModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, m.lines, 2)
}

func TestExpansionSurvivesRefresh(t *testing.T) {
	m, inbox := loadedModel(t)
	press(m, keyRunes("j"))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	cmd := press(m, keyRunes("r"))
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 2, inbox.refreshes)
	assert.Len(t, m.lines, 4)
}

func TestMarkReadSingle(t *testing.T) {
	m, inbox := loadedModel(t)
	cmd := press(m, keyRunes("m"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []string{"c1"}, inbox.read)

	_, next := m.Update(msg)
	assert.NotNil(t, next)
	latest, ok := m.status.Latest()
	require.True(t, ok)
	assert.Equal(t, errors.MessageTypeSuccess, latest.Type)
}

func TestMarkReadGroupMarksUnreadMembers(t *testing.T) {
	m, inbox := loadedModel(t)
	press(m, keyRunes("j"))
	cmd := press(m, keyRunes("m"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"a1"}, inbox.read)
}

func TestMarkReadOnReadMemberIsNoop(t *testing.T) {
	m, inbox := loadedModel(t)
	press(m, keyRunes("j"))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	press(m, keyRunes("j"))
	press(m, keyRunes("j"))
	assert.Nil(t, press(m, keyRunes("m")))
	assert.Empty(t, inbox.read)
}

func TestMarkAllRead(t *testing.T) {
	m, inbox := loadedModel(t)
	cmd := press(m, keyRunes("M"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, inbox.allRead)
}

func TestDelete(t *testing.T) {
	m, inbox := loadedModel(t)

	press(m, keyRunes("j"))
	require.NotNil(t, press(m, keyRunes("d")))
	latest, _ := m.status.Latest()
	assert.Equal(t, errors.MessageTypeWarning, latest.Type)
	assert.Empty(t, inbox.deleted)

	press(m, keyRunes("k"))
	cmd := press(m, keyRunes("d"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"c1"}, inbox.deleted)
}

func TestActionErrorShowsStatus(t *testing.T) {
	m, inbox := loadedModel(t)
	inbox.actionErr = &portal.AuthError{StatusCode: 401, Reason: "expired"}

	cmd := press(m, keyRunes("m"))
	m.Update(cmd())
	latest, ok := m.status.Latest()
	require.True(t, ok)
	assert.Equal(t, errors.MessageTypeError, latest.Type)
	assert.Contains(t, latest.Text, "Session expirée")
}

func TestRefreshFailureKeepsView(t *testing.T) {
	m, _ := loadedModel(t)

	m.Update(SyncFailed(portal.ErrUnavailable))
	assert.Len(t, m.lines, 2)
	latest, _ := m.status.Latest()
	assert.Contains(t, latest.Text, "Hors ligne")

	m.Update(SyncFailed(sync.ErrBusy))
	latest, _ = m.status.Latest()
	assert.Equal(t, errors.MessageTypeInfo, latest.Type)
	assert.Contains(t, m.View(), "Synchronisation en cours")
}

func TestViewLoadedFromPoller(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(ViewLoaded(sync.View{Strategy: domain.GroupNone}))
	assert.Empty(t, m.lines)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "Aucune notification")
}

func TestClearStatus(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(SyncFailed(portal.ErrUnavailable))
	m.Update(clearStatusMsg{at: time.Now().Add(time.Second)})
	_, ok := m.status.Latest()
	assert.False(t, ok)
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	inbox := &fakeInbox{}
	for i := 0; i < 30; i++ {
		inbox.view.Items = append(inbox.view.Items, domain.DisplayItem{Notification: domain.Notification{ID: string(rune('a' + i))}})
	}
	m := NewModel(context.Background(), inbox)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m.Update(m.Init()())

	for i := 0; i < 20; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 20, m.cursor)
	assert.Equal(t, 20-m.listHeight()+1, m.offset)
	for i := 0; i < 40; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, m.offset)
}

func TestQuitAndHelp(t *testing.T) {
	m, _ := loadedModel(t)
	press(m, keyRunes("?"))
	assert.True(t, m.help.ShowAll)

	cmd := press(m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
