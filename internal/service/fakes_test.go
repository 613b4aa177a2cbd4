package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/events"
	"github.com/spec-kit/taskflow-service/internal/repository"
)

// store is a shared in-memory database for the fake repositories.
type store struct {
	mu       sync.Mutex
	seq      int
	now      time.Time
	users    map[string]*domain.User
	projects map[string]*domain.Project
	lists    map[string]*domain.TaskList
	tasks    map[string]*domain.Task
	comments []domain.TaskComment
	history  []domain.TaskHistory
}

func newStore() *store {
	return &store{
		now:      time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC),
		users:    map[string]*domain.User{},
		projects: map[string]*domain.Project{},
		lists:    map[string]*domain.TaskList{},
		tasks:    map[string]*domain.Task{},
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// tick advances the fake clock so rows get distinct timestamps.
func (s *store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *store) addUser(name, email string, role domain.Role) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: s.nextID("user"), Name: name, Email: email, Role: role, CreatedAt: s.tick()}
	s.users[u.ID] = u
	return u
}

func (s *store) addProject(owner *domain.User, name string) (*domain.Project, *domain.TaskList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Project{ID: s.nextID("project"), Name: name, CreatedBy: owner.ID, CreatedAt: s.tick()}
	s.projects[p.ID] = p
	l := &domain.TaskList{ID: s.nextID("list"), ProjectID: p.ID, Name: domain.DefaultTaskListName, CreatedAt: s.now}
	s.lists[l.ID] = l
	return p, l
}

func (s *store) addTask(list *domain.TaskList, assignee *domain.User, title string, status domain.TaskStatus) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &domain.Task{
		ID:         s.nextID("task"),
		ListID:     list.ID,
		Title:      title,
		AssignedTo: assignee.ID,
		Priority:   domain.TaskPriorityMedium,
		Status:     status,
		CreatedAt:  s.tick(),
	}
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = t
	return t
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
}

type fakeUserRepo struct{ s *store }

func (r fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return uniqueViolation()
		}
	}
	user.ID = r.s.nextID("user")
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, u := range r.s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return uniqueViolation()
		}
	}
	user.UpdatedAt = r.s.tick()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeUserRepo) List(_ context.Context) ([]domain.UserSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.UserSummary
	for _, u := range r.s.users {
		summary := domain.UserSummary{User: *u}
		for _, t := range r.s.tasks {
			if t.AssignedTo == u.ID {
				summary.TaskCount++
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeUserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.users, id)
	return nil
}

type fakeProjectRepo struct{ s *store }

func (r fakeProjectRepo) CreateWithDefaultList(_ context.Context, project *domain.Project, listName string) (*domain.TaskList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project.ID = r.s.nextID("project")
	project.CreatedAt = r.s.tick()
	project.UpdatedAt = project.CreatedAt
	cp := *project
	r.s.projects[project.ID] = &cp
	list := &domain.TaskList{ID: r.s.nextID("list"), ProjectID: project.ID, Name: listName, CreatedAt: project.CreatedAt}
	r.s.lists[list.ID] = list
	return list, nil
}

func (r fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r fakeProjectRepo) ListSummariesByOwner(_ context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ProjectSummary
	for _, p := range r.s.projects {
		if p.CreatedBy != ownerID {
			continue
		}
		summary := domain.ProjectSummary{Project: *p}
		for _, t := range r.s.tasks {
			if l, ok := r.s.lists[t.ListID]; ok && l.ProjectID == p.ID {
				summary.TaskCount++
				if t.Status == domain.TaskStatusCompleted {
					summary.CompletedCount++
				}
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r fakeProjectRepo) Update(_ context.Context, id string, patch repository.ProjectPatch) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = r.s.tick()
	cp := *p
	return &cp, nil
}

func (r fakeProjectRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.projects, id)
	for lid, l := range r.s.lists {
		if l.ProjectID == id {
			delete(r.s.lists, lid)
			for tid, t := range r.s.tasks {
				if t.ListID == lid {
					delete(r.s.tasks, tid)
				}
			}
		}
	}
	return nil
}

type fakeTaskListRepo struct{ s *store }

func (r fakeTaskListRepo) Create(_ context.Context, list *domain.TaskList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[list.ProjectID]; !ok {
		return &pgconn.PgError{Code: "23503"}
	}
	list.ID = r.s.nextID("list")
	list.CreatedAt = r.s.tick()
	cp := *list
	r.s.lists[list.ID] = &cp
	return nil
}

func (r fakeTaskListRepo) GetByID(_ context.Context, id string) (*domain.TaskList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (r fakeTaskListRepo) ListByProject(_ context.Context, projectID string) ([]domain.TaskList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TaskList
	for _, l := range r.s.lists {
		if l.ProjectID == projectID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeTaskRepo struct{ s *store }

func (r fakeTaskRepo) withContext(t *domain.Task) domain.TaskWithContext {
	out := domain.TaskWithContext{Task: *t}
	if l, ok := r.s.lists[t.ListID]; ok {
		out.ListName = l.Name
		if p, ok := r.s.projects[l.ProjectID]; ok {
			out.ProjectID = p.ID
			out.ProjectName = p.Name
			out.ProjectOwnerID = p.CreatedBy
		}
	}
	return out
}

func (r fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.ID = r.s.nextID("task")
	task.CreatedAt = r.s.tick()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.TaskWithContext, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := r.withContext(t)
	return &out, nil
}

func (r fakeTaskRepo) ListAssigned(_ context.Context, userID string) ([]domain.TaskWithContext, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TaskWithContext
	for _, t := range r.s.tasks {
		if t.AssignedTo == userID {
			out = append(out, r.withContext(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeTaskRepo) ListByProject(_ context.Context, projectID string) ([]domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Task
	for _, t := range r.s.tasks {
		if l, ok := r.s.lists[t.ListID]; ok && l.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakeTaskRepo) Update(_ context.Context, id string, patch repository.TaskPatch) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = *patch.AssignedTo
	}
	switch {
	case patch.ClearDueDate:
		t.DueDate = nil
	case patch.DueDate != nil:
		due := *patch.DueDate
		t.DueDate = &due
	}
	t.UpdatedAt = r.s.tick()
	cp := *t
	return &cp, nil
}

func (r fakeTaskRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.tasks, id)
	return nil
}

type fakeCommentRepo struct{ s *store }

func (r fakeCommentRepo) Create(_ context.Context, comment *domain.TaskComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment.ID = r.s.nextID("comment")
	comment.CreatedAt = r.s.tick()
	if u, ok := r.s.users[comment.UserID]; ok {
		comment.UserName = u.Name
		comment.UserEmail = u.Email
	}
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r fakeCommentRepo) ListByTask(_ context.Context, taskID string) ([]domain.TaskComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TaskComment
	for i := len(r.s.comments) - 1; i >= 0; i-- {
		if r.s.comments[i].TaskID == taskID {
			out = append(out, r.s.comments[i])
		}
	}
	return out, nil
}

func (r fakeCommentRepo) ListRecentForAssignee(_ context.Context, userID string, limit int) ([]domain.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Activity
	for i := len(r.s.comments) - 1; i >= 0 && len(out) < limit; i-- {
		c := r.s.comments[i]
		t, ok := r.s.tasks[c.TaskID]
		if !ok || t.AssignedTo != userID {
			continue
		}
		out = append(out, domain.Activity{Action: domain.ActivityCommented, TaskTitle: t.Title, UserName: c.UserName, At: c.CreatedAt})
	}
	return out, nil
}

type fakeHistoryRepo struct {
	s   *store
	err error
}

func (r fakeHistoryRepo) Record(_ context.Context, entry *domain.TaskHistory) error {
	if r.err != nil {
		return r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.nextID("history")
	entry.ChangedAt = r.s.tick()
	if u, ok := r.s.users[entry.ChangedBy]; ok {
		entry.ChangedByName = u.Name
	}
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r fakeHistoryRepo) ListByTask(_ context.Context, taskID string) ([]domain.TaskHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TaskHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].TaskID == taskID {
			out = append(out, r.s.history[i])
		}
	}
	return out, nil
}

func (r fakeHistoryRepo) ListRecentForAssignee(_ context.Context, userID string, limit int) ([]domain.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Activity
	for i := len(r.s.history) - 1; i >= 0 && len(out) < limit; i-- {
		h := r.s.history[i]
		t, ok := r.s.tasks[h.TaskID]
		if !ok || t.AssignedTo != userID {
			continue
		}
		out = append(out, domain.Activity{Action: string(h.ChangeType), TaskTitle: t.Title, UserName: h.ChangedByName, At: h.ChangedAt})
	}
	return out, nil
}

type fakeThrottle struct {
	failures map[string]int
	max      int
	err      error
	resets   int
}

func newFakeThrottle(max int) *fakeThrottle {
	return &fakeThrottle{failures: map[string]int{}, max: max}
}

func (f *fakeThrottle) Blocked(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.failures[key] >= f.max, nil
}

func (f *fakeThrottle) RecordFailure(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.failures[key]++
	return nil
}

func (f *fakeThrottle) Reset(_ context.Context, key string) error {
	f.resets++
	delete(f.failures, key)
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")

func identityOf(u *domain.User) *domain.Identity {
	return &domain.Identity{SubjectID: u.ID, Email: u.Email, Role: u.Role}
}
