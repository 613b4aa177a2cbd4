package dto

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// projectPalette holds the project badge colors.
var projectPalette = []string{
	"#EF4444", "#F59E0B", "#10B981", "#3B82F6", "#8B5CF6",
	"#EC4899", "#14B8A6", "#F97316", "#06B6D4", "#6366F1",
}

// DateLayout is the wire format of task due dates.
const DateLayout = "2006-01-02"

// ColorForName picks a stable palette color from a name hash.
func ColorForName(name string) string {
	var hash int32
	for _, r := range name {
		hash = int32(r) + ((hash << 5) - hash)
	}
	idx := int(hash)
	if idx < 0 {
		idx = -idx
	}
	return projectPalette[idx%len(projectPalette)]
}

// RelativeTime renders t relative to now, falling back to a date after a week.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < time.Minute {
		return "Just now"
	}
	if diff < time.Hour {
		return plural(int(diff/time.Minute), "minute")
	}
	if diff < 24*time.Hour {
		return plural(int(diff/time.Hour), "hour")
	}
	if days := int(diff / (24 * time.Hour)); days < 7 {
		return plural(days, "day")
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Initials returns up to two uppercase initials of a display name.
func Initials(name string) string {
	out := make([]rune, 0, 2)
	for _, part := range strings.Fields(name) {
		out = append(out, unicode.ToUpper([]rune(part)[0]))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// ParsePriority accepts any casing of a known priority. Unknown input is
// returned unchanged for the service to reject.
func ParsePriority(raw string) domain.TaskPriority {
	for _, p := range []domain.TaskPriority{domain.TaskPriorityLow, domain.TaskPriorityMedium, domain.TaskPriorityHigh} {
		if strings.EqualFold(raw, string(p)) {
			return p
		}
	}
	return domain.TaskPriority(raw)
}

// ParseStatus accepts any casing of a known status, with or without
// separators ("in_progress", "in-progress").
func ParseStatus(raw string) domain.TaskStatus {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(raw)
	for _, s := range []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress, domain.TaskStatusCompleted} {
		if strings.EqualFold(key, string(s)) {
			return s
		}
	}
	return domain.TaskStatus(raw)
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func formatDueDate(due *time.Time) *string {
	if due == nil {
		return nil
	}
	s := due.Format(DateLayout)
	return &s
}
