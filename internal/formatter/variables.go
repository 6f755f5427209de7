package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// VariableContext contains all data needed for template variable resolution.
type VariableContext struct {
	UnreadCount int
	TotalCount  int
	ReadCount   int
	// QueuedCount is the number of notifications waiting in the offline queue.
	QueuedCount int

	// LatestTitle is the title of the newest unread notification.
	LatestTitle string
	Grouping    domain.GroupingStrategy

	// TypeCounts holds unread counts per notification type.
	TypeCounts map[domain.NotificationType]int
}

// NewContext builds a context from notification records and the offline
// queue length.
func NewContext(records []domain.Notification, queued int, grouping domain.GroupingStrategy) VariableContext {
	ctx := VariableContext{
		TotalCount:  len(records),
		QueuedCount: queued,
		Grouping:    grouping,
		TypeCounts:  make(map[domain.NotificationType]int),
	}
	var latest *domain.Notification
	for i := range records {
		n := &records[i]
		if n.IsRead {
			ctx.ReadCount++
			continue
		}
		ctx.UnreadCount++
		ctx.TypeCounts[n.Type]++
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	if latest != nil {
		ctx.LatestTitle = latest.Title
	}
	return ctx
}

// VariableResolver resolves template variables to their values.
type VariableResolver interface {
	Resolve(varName string, ctx VariableContext) (string, error)
}

type variableResolver struct{}

// NewVariableResolver creates a new variable resolver instance.
func NewVariableResolver() VariableResolver {
	return &variableResolver{}
}

// typeVariables maps <type>-count variables onto notification types.
var typeVariables = map[string]domain.NotificationType{
	"admin-count":    domain.TypeAdmin,
	"cours-count":    domain.TypeCours,
	"examen-count":   domain.TypeExamen,
	"schedule-count": domain.TypeSchedule,
}

// Resolve returns the string value for a variable from the context.
func (vr *variableResolver) Resolve(varName string, ctx VariableContext) (string, error) {
	switch varName {
	case "unread-count":
		return strconv.Itoa(ctx.UnreadCount), nil
	case "total-count":
		return strconv.Itoa(ctx.TotalCount), nil
	case "read-count":
		return strconv.Itoa(ctx.ReadCount), nil
	case "queued-count":
		return strconv.Itoa(ctx.QueuedCount), nil
	case "latest-title":
		return ctx.LatestTitle, nil
	case "has-unread":
		return strconv.FormatBool(ctx.UnreadCount > 0), nil
	case "has-queued":
		return strconv.FormatBool(ctx.QueuedCount > 0), nil
	case "grouping":
		return ctx.Grouping.String(), nil
	}
	if t, ok := typeVariables[varName]; ok {
		return strconv.Itoa(ctx.TypeCounts[t]), nil
	}
	return "", fmt.Errorf("unknown variable: %s (available: %s)", varName, strings.Join(Variables(), ", "))
}

// Variables lists every variable name the resolver knows.
func Variables() []string {
	names := []string{
		"unread-count", "total-count", "read-count", "queued-count",
		"latest-title", "has-unread", "has-queued", "grouping",
	}
	typed := make([]string, 0, len(typeVariables))
	for name := range typeVariables {
		typed = append(typed, name)
	}
	sort.Strings(typed)
	return append(names, typed...)
}
