package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/service"
)

type mockTodoRepo struct {
	todosByID map[string]domain.Todo
	tagsByID  map[string]domain.Tag
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
	var deleted int64
	for id, todo := range m.todosByID {
		if todo.IsArchived && todo.ArchivedAt != nil && todo.ArchivedAt.Before(cutoff) {
			delete(m.todosByID, id)
			deleted++
		}
	}
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

// asUser simula al guard poniendo el usuario autenticado en el contexto.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(authUserIDKey, userID)
		c.Next()
	}
}

func newTodoRouter(repo *mockTodoRepo, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTodoHandler(zap.NewNop(), service.NewTodoService(zap.NewNop(), repo))

	r := gin.New()
	todos := r.Group("/api/v1/todos", asUser(userID))
	todos.GET("", h.ListMine)
	todos.GET("/priorities", h.Priorities)
	todos.GET("/tags", h.Tags)
	todos.GET("/:id", h.GetByID)
	todos.POST("", h.Create)
	todos.PUT("/:id", h.Update)
	todos.PATCH("/:id/toggle-completion", h.ToggleCompletion)
	todos.PUT("/:id/archive", h.Archive)
	return r
}

func TestTodoHandlerCreateAndList(t *testing.T) {
	repo := newMockTodoRepo()
	repo.tagsByID["t1"] = domain.Tag{ID: "t1", Name: "work"}
	r := newTodoRouter(repo, "u1")

	rec := performRequest(r, http.MethodPost, "/api/v1/todos", map[string]any{
		"name":        "Buy milk",
		"description": "2 liters",
		"priority":    int(domain.PriorityHigh),
		"tags":        []string{"t1"},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(r, http.MethodGet, "/api/v1/todos", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data []domain.Todo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Name != "Buy milk" {
		t.Fatalf("unexpected todos: %+v", body.Data)
	}
}

func TestTodoHandlerCreate_MissingName(t *testing.T) {
	r := newTodoRouter(newMockTodoRepo(), "u1")
	rec := performRequest(r, http.MethodPost, "/api/v1/todos", map[string]any{
		"description": "no name",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTodoHandlerUpdate_OtherUsersTodo(t *testing.T) {
	repo := newMockTodoRepo()
	repo.todosByID["td1"] = domain.Todo{ID: "td1", UserID: "owner", Name: "theirs"}
	r := newTodoRouter(repo, "intruder")

	rec := performRequest(r, http.MethodPut, "/api/v1/todos/td1", map[string]any{
		"name": "mine now",
	}, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestTodoHandlerGetByID_NotFound(t *testing.T) {
	r := newTodoRouter(newMockTodoRepo(), "u1")
	rec := performRequest(r, http.MethodGet, "/api/v1/todos/missing", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTodoHandlerToggleAndArchive(t *testing.T) {
	repo := newMockTodoRepo()
	repo.todosByID["td1"] = domain.Todo{ID: "td1", UserID: "u1", Name: "task"}
	r := newTodoRouter(repo, "u1")

	rec := performRequest(r, http.MethodPatch, "/api/v1/todos/td1/toggle-completion", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !repo.todosByID["td1"].IsCompleted {
		t.Fatalf("expected todo marked completed")
	}

	rec = performRequest(r, http.MethodPut, "/api/v1/todos/td1/archive", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !repo.todosByID["td1"].IsArchived {
		t.Fatalf("expected todo archived")
	}

	// Archivar dos veces no encuentra un todo archivable.
	rec = performRequest(r, http.MethodPut, "/api/v1/todos/td1/archive", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on double archive, got %d", rec.Code)
	}
}

func TestTodoHandlerPriorities(t *testing.T) {
	r := newTodoRouter(newMockTodoRepo(), "u1")
	rec := performRequest(r, http.MethodGet, "/api/v1/todos/priorities", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data []service.PriorityInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Data) != 3 {
		t.Fatalf("expected 3 priorities, got %+v", body.Data)
	}
}
