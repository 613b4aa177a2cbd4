package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

func TestBuildTaskUpdateOnlySetsPatchedColumns(t *testing.T) {
	title := "Write docs"
	status := domain.TaskStatusCompleted

	query, args, err := buildTaskUpdate("task-1", TaskPatch{Title: &title, Status: &status})
	if err != nil {
		t.Fatalf("buildTaskUpdate: %v", err)
	}

	want := "UPDATE tasks t SET updated_at = NOW(), title = $1, status = $2 WHERE t.id = $3 RETURNING " + taskColumns
	if query != want {
		t.Fatalf("query = %q\nwant    %q", query, want)
	}
	if len(args) != 3 || args[0] != title || args[1] != "Completed" || args[2] != "task-1" {
		t.Fatalf("args = %v", args)
	}
	for _, column := range []string{"description =", "priority =", "assigned_to =", "due_date ="} {
		if strings.Contains(query, column) {
			t.Errorf("query %q must not set %s", query, column)
		}
	}
}

func TestBuildTaskUpdateDueDate(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := buildTaskUpdate("task-1", TaskPatch{DueDate: &due})
	if err != nil {
		t.Fatalf("buildTaskUpdate: %v", err)
	}
	if !strings.Contains(query, "due_date = $1") || args[0] != due {
		t.Fatalf("query = %q args = %v", query, args)
	}

	query, args, err = buildTaskUpdate("task-1", TaskPatch{DueDate: &due, ClearDueDate: true})
	if err != nil {
		t.Fatalf("buildTaskUpdate: %v", err)
	}
	if !strings.Contains(query, "due_date = $1") || args[0] != nil {
		t.Fatalf("clearing due date: query = %q args = %v", query, args)
	}
}

func TestBuildProjectUpdate(t *testing.T) {
	desc := ""
	query, args, err := buildProjectUpdate("p1", ProjectPatch{Description: &desc})
	if err != nil {
		t.Fatalf("buildProjectUpdate: %v", err)
	}
	if !strings.HasPrefix(query, "UPDATE projects SET updated_at = NOW(), description = $1 WHERE id = $2") {
		t.Fatalf("query = %q", query)
	}
	if len(args) != 2 || args[0] != "" || args[1] != "p1" {
		t.Fatalf("args = %v", args)
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(TaskPatch{}).Empty() || !(ProjectPatch{}).Empty() {
		t.Fatal("zero patches must be empty")
	}
	if (TaskPatch{ClearDueDate: true}).Empty() {
		t.Fatal("clearing the due date is a change")
	}
}
