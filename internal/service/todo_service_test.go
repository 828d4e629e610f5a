package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"todo-api/internal/domain"
)

type mockTodoRepo struct {
	todosByID   map[string]domain.Todo
	tagsByID    map[string]domain.Tag
	lastCutoff  time.Time
	deleteCount int64
}

func newMockTodoRepo() *mockTodoRepo {
	return &mockTodoRepo{
		todosByID: make(map[string]domain.Todo),
		tagsByID:  make(map[string]domain.Tag),
	}
}

func (m *mockTodoRepo) Create(_ context.Context, todo domain.Todo, _ []string) error {
	m.todosByID[todo.ID] = todo
	return nil
}

func (m *mockTodoRepo) GetByID(_ context.Context, id string) (domain.Todo, error) {
	todo, ok := m.todosByID[id]
	if !ok {
		return domain.Todo{}, pgx.ErrNoRows
	}
	return todo, nil
}

func (m *mockTodoRepo) ListByUser(_ context.Context, userID string) ([]domain.Todo, error) {
	var todos []domain.Todo
	for _, todo := range m.todosByID {
		if todo.UserID == userID {
			todos = append(todos, todo)
		}
	}
	return todos, nil
}

func (m *mockTodoRepo) Update(_ context.Context, todo domain.Todo) error {
	if _, ok := m.todosByID[todo.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.todosByID[todo.ID] = todo
	return nil
}

func (m *mockTodoRepo) SetCompleted(_ context.Context, id string, completed bool, updatedAt time.Time) error {
	todo, ok := m.todosByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	todo.IsCompleted = completed
	todo.UpdatedAt = &updatedAt
	m.todosByID[id] = todo
	return nil
}

func (m *mockTodoRepo) Archive(_ context.Context, userID, id string, archivedAt time.Time) (bool, error) {
	todo, ok := m.todosByID[id]
	if !ok || todo.UserID != userID || todo.IsArchived {
		return false, nil
	}
	todo.IsArchived = true
	todo.ArchivedAt = &archivedAt
	m.todosByID[id] = todo
	return true, nil
}

func (m *mockTodoRepo) DeleteOldArchived(_ context.Context, cutoff time.Time) (int64, error) {
	m.lastCutoff = cutoff
	var deleted int64
	for id, todo := range m.todosByID {
		if todo.IsArchived && todo.ArchivedAt != nil && todo.ArchivedAt.Before(cutoff) {
			delete(m.todosByID, id)
			deleted++
		}
	}
	m.deleteCount = deleted
	return deleted, nil
}

func (m *mockTodoRepo) ListTags(_ context.Context) ([]domain.Tag, error) {
	var tags []domain.Tag
	for _, tag := range m.tagsByID {
		tags = append(tags, tag)
	}
	return tags, nil
}

func (m *mockTodoRepo) GetTagsByIDs(_ context.Context, ids []string) ([]domain.Tag, error) {
	var tags []domain.Tag
	for _, id := range ids {
		if tag, ok := m.tagsByID[id]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func TestTodoServiceCreate(t *testing.T) {
	repo := newMockTodoRepo()
	repo.tagsByID["t1"] = domain.Tag{ID: "t1", Name: "work"}
	svc := NewTodoService(zap.NewNop(), repo)

	todo, err := svc.Create(context.Background(), "u1", TodoInput{
		Name:     "  Buy milk  ",
		Priority: int(domain.PriorityHigh),
		TagIDs:   []string{"t1", "unknown"},
	})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if todo.Name != "Buy milk" || todo.UserID != "u1" {
		t.Fatalf("unexpected todo: %+v", todo)
	}
	if todo.Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority, got %v", todo.Priority)
	}
	// Solo se vinculan tags existentes.
	if len(todo.Tags) != 1 || todo.Tags[0].ID != "t1" {
		t.Fatalf("expected only known tags linked, got %+v", todo.Tags)
	}
}

func TestTodoServiceCreate_RequiresName(t *testing.T) {
	svc := NewTodoService(zap.NewNop(), newMockTodoRepo())
	if _, err := svc.Create(context.Background(), "u1", TodoInput{Name: "   "}); !errors.Is(err, ErrInvalidTodo) {
		t.Fatalf("expected ErrInvalidTodo, got %v", err)
	}
}

func TestTodoServiceCreate_DefaultsPriority(t *testing.T) {
	repo := newMockTodoRepo()
	svc := NewTodoService(zap.NewNop(), repo)

	todo, err := svc.Create(context.Background(), "u1", TodoInput{Name: "x", Priority: 99})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if todo.Priority != domain.PriorityMedium {
		t.Fatalf("expected out-of-range priority to default to medium, got %v", todo.Priority)
	}
}

func TestTodoServiceUpdate_OwnershipEnforced(t *testing.T) {
	repo := newMockTodoRepo()
	repo.todosByID["td1"] = domain.Todo{ID: "td1", UserID: "u1", Name: "old"}
	svc := NewTodoService(zap.NewNop(), repo)

	if _, err := svc.Update(context.Background(), "u2", "td1", TodoInput{Name: "new"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := svc.Update(context.Background(), "u1", "td1", TodoInput{Name: "new", Priority: int(domain.PriorityLow)})
	if err != nil {
		t.Fatalf("update todo: %v", err)
	}
	if updated.Name != "new" || updated.UpdatedAt == nil {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestTodoServiceToggleCompletion(t *testing.T) {
	repo := newMockTodoRepo()
	repo.todosByID["td1"] = domain.Todo{ID: "td1", UserID: "u1", Name: "task"}
	svc := NewTodoService(zap.NewNop(), repo)

	toggled, err := svc.ToggleCompletion(context.Background(), "u1", "td1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsCompleted {
		t.Fatalf("expected todo completed")
	}

	toggled, err = svc.ToggleCompletion(context.Background(), "u1", "td1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsCompleted {
		t.Fatalf("expected todo back to pending")
	}
}

func TestTodoServiceArchive_NotFound(t *testing.T) {
	svc := NewTodoService(zap.NewNop(), newMockTodoRepo())
	if err := svc.Archive(context.Background(), "u1", "missing"); !errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestTodoServiceDeleteOldArchived(t *testing.T) {
	repo := newMockTodoRepo()
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-5 * 24 * time.Hour)
	repo.todosByID["old"] = domain.Todo{ID: "old", UserID: "u1", IsArchived: true, ArchivedAt: &old}
	repo.todosByID["recent"] = domain.Todo{ID: "recent", UserID: "u1", IsArchived: true, ArchivedAt: &recent}
	repo.todosByID["live"] = domain.Todo{ID: "live", UserID: "u1"}
	svc := NewTodoService(zap.NewNop(), repo)

	deleted, err := svc.DeleteOldArchived(context.Background())
	if err != nil {
		t.Fatalf("delete old archived: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if _, ok := repo.todosByID["old"]; ok {
		t.Fatalf("expected old archived todo deleted")
	}
	if _, ok := repo.todosByID["recent"]; !ok {
		t.Fatalf("expected recent archived todo kept")
	}

	// Idempotente: repetir no borra nada mas.
	deleted, err = svc.DeleteOldArchived(context.Background())
	if err != nil || deleted != 0 {
		t.Fatalf("expected idempotent rerun, got deleted=%d err=%v", deleted, err)
	}
}

func TestTodoServicePriorities(t *testing.T) {
	svc := NewTodoService(zap.NewNop(), newMockTodoRepo())
	priorities := svc.Priorities()
	if len(priorities) != 3 {
		t.Fatalf("expected 3 priorities, got %d", len(priorities))
	}
	if priorities[0].Name != "Low" || priorities[2].Name != "High" {
		t.Fatalf("unexpected priorities: %+v", priorities)
	}
}
