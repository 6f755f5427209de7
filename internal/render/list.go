package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/univ-portal/portal-inbox/internal/domain"
)

// ListOptions controls List output.
type ListOptions struct {
	Width int
	Now   time.Time
	// Expand lists the members of every group.
	Expand bool
	// Details prints content and action links under each record.
	Details bool
}

// List writes a plain listing of items to w.
func List(w io.Writer, items []domain.DisplayItem, opts ListOptions) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "Aucune notification")
		return err
	}

	var expanded func(string) bool
	if opts.Expand {
		expanded = func(string) bool { return true }
	}
	contentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var b strings.Builder
	b.WriteString(Header(opts.Width))
	b.WriteByte('\n')
	for _, line := range Lines(items, expanded) {
		b.WriteString(Row(RowState{Line: line, Width: opts.Width, Now: opts.Now}))
		b.WriteByte('\n')
		if !opts.Details || line.IsGroup() {
			continue
		}
		n := line.Notification()
		indent := strings.Repeat(" ", readWidth+2)
		if n.Content != "" {
			b.WriteString(contentStyle.Render(indent + n.Content))
			b.WriteByte('\n')
		}
		if n.HasAction() {
			label := n.ActionLabel
			if label == "" {
				label = "Lien"
			}
			b.WriteString(contentStyle.Render(fmt.Sprintf("%s%s: %s", indent, label, n.ActionLink)))
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
