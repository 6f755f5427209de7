// Package render turns display items into terminal text.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/domain"
)

const (
	readWidth            = 2
	typeWidth            = 16
	ageWidth             = 5
	spacesBetweenColumns = 6
	defaultTitleWidth    = 50
	groupIndentSize      = 2
	groupCollapsedSymbol = "▸"
	groupExpandedSymbol  = "▾"
	unreadSymbol         = "●"
	readSymbol           = "○"
)

// Line is one visible row: a display item, or a member of an expanded group.
type Line struct {
	Item domain.DisplayItem
	// Member is set on rows listed under an expanded group.
	Member   *domain.Notification
	Expanded bool
}

// Notification returns the record the line stands for. For a group row this
// is the group's template record.
func (l Line) Notification() domain.Notification {
	if l.Member != nil {
		return *l.Member
	}
	return l.Item.Notification
}

// IsGroup reports whether the line is a group header.
func (l Line) IsGroup() bool {
	return l.Member == nil && l.Item.IsGrouped
}

// GroupKey identifies a grouped item across refreshes, as long as its
// template record stays the same.
func GroupKey(item domain.DisplayItem) string {
	return string(item.Type) + "|" + item.ID
}

// Lines flattens items into rows, listing the members of every group for
// which expanded returns true. A nil expanded keeps every group collapsed.
func Lines(items []domain.DisplayItem, expanded func(key string) bool) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		open := item.IsGrouped && expanded != nil && expanded(GroupKey(item))
		lines = append(lines, Line{Item: item, Expanded: open})
		if !open {
			continue
		}
		for i := range item.GroupItems {
			member := item.GroupItems[i]
			lines = append(lines, Line{Item: item, Member: &member})
		}
	}
	return lines
}

// RowState defines the inputs needed to render a line.
type RowState struct {
	Line     Line
	Width    int
	Selected bool
	Now      time.Time
}

// Header renders the column header.
func Header(width int) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ansiColorNumber(colors.Blue)))

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s",
		readWidth, "",
		typeWidth, "TYPE",
		calculateTitleWidth(width), "TITRE",
		ageWidth, "ÂGE",
	)
	return headerStyle.Render(header)
}

// Row renders a single line.
func Row(state RowState) string {
	if state.Line.IsGroup() {
		return groupRow(state)
	}
	n := state.Line.Notification()

	rowStyle := lipgloss.NewStyle()
	if !n.IsRead {
		rowStyle = rowStyle.Bold(true)
	}
	if state.Selected {
		rowStyle = rowStyle.Background(lipgloss.Color(ansiColorNumber(colors.Blue))).Foreground(lipgloss.Color("0"))
	}

	title := n.Title
	if state.Line.Member != nil {
		title = strings.Repeat(" ", groupIndentSize) + title
	}
	titleWidth := calculateTitleWidth(state.Width)

	row := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s",
		readWidth, readIcon(n.IsRead),
		typeWidth, truncate(n.Type.Label(), typeWidth),
		titleWidth, truncate(title, titleWidth),
		ageWidth, calculateAge(n.CreatedAt, state.Now),
	)
	return rowStyle.Render(row)
}

func groupRow(state RowState) string {
	item := state.Line.Item
	symbol := groupCollapsedSymbol
	if state.Line.Expanded {
		symbol = groupExpandedSymbol
	}

	label := fmt.Sprintf("%s %s (%s)", symbol, item.Title, formatGroupCount(item.GroupCount, item.UnreadCount()))
	if age := calculateAge(item.CreatedAt, state.Now); age != "" {
		label += "  " + age
	}
	if state.Width > 0 {
		label = truncate(label, state.Width)
	}

	styles := defaultGroupRowStyles()
	switch {
	case state.Selected:
		return styles.Selected.Render(label)
	case item.UnreadCount() > 0:
		return styles.Unread.Render(label)
	default:
		return styles.Base.Render(label)
	}
}

// Summary renders the one-line inbox summary.
func Summary(total, unread int, strategy domain.GroupingStrategy) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return style.Render(fmt.Sprintf("%d notifications, %d non lues · regroupement: %s", total, unread, strategy))
}

func formatGroupCount(total, unread int) string {
	if unread > 0 {
		return fmt.Sprintf("%d/%d", total, unread)
	}
	return fmt.Sprintf("%d", total)
}

func calculateTitleWidth(width int) int {
	if width <= 0 {
		return defaultTitleWidth
	}
	w := width - readWidth - typeWidth - ageWidth - spacesBetweenColumns
	if w < 10 {
		return defaultTitleWidth
	}
	return w
}

type groupRowStyles struct {
	Base     lipgloss.Style
	Unread   lipgloss.Style
	Selected lipgloss.Style
}

func defaultGroupRowStyles() groupRowStyles {
	return groupRowStyles{
		Base: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ansiColorNumber(colors.Blue))),
		Unread: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ansiColorNumber(colors.Yellow))),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color(ansiColorNumber(colors.Blue))).
			Foreground(lipgloss.Color("0")),
	}
}

func readIcon(read bool) string {
	if read {
		return readSymbol
	}
	return unreadSymbol
}

func truncate(value string, width int) string {
	if width <= 0 || utf8.RuneCountInString(value) <= width {
		return value
	}
	if width <= 3 {
		return string([]rune(value)[:width])
	}
	return string([]rune(value)[:width-3]) + "..."
}

func calculateAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.IsZero() {
		now = time.Now()
	}

	duration := now.Sub(t)
	if duration < 0 {
		duration = 0
	}

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	}
	return fmt.Sprintf("%dd", int(duration.Hours()/24))
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(ansi string) string {
	if len(ansi) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(ansi, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
