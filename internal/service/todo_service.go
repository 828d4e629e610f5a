package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/repository"
)

// TodoService coordina reglas de negocio para todos y tags.
type TodoService struct {
	logger *zap.Logger
	todos  repository.TodoRepository
}

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrForbidden    = errors.New("you do not have access to this todo")
	ErrInvalidTodo  = errors.New("todo name is required")
)

// Los todos archivados se conservan 30 dias antes de la limpieza.
const archivedRetention = 30 * 24 * time.Hour

func NewTodoService(logger *zap.Logger, todos repository.TodoRepository) *TodoService {
	return &TodoService{logger: logger, todos: todos}
}

type TodoInput struct {
	Name        string
	Description string
	Priority    int
	TagIDs      []string
}

// PriorityInfo expone el catalogo de prioridades hacia la API.
type PriorityInfo struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (s *TodoService) Create(ctx context.Context, userID string, input TodoInput) (domain.Todo, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Todo{}, ErrInvalidTodo
	}

	todo := domain.Todo{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Priority:    clampPriority(input.Priority),
		CreatedAt:   time.Now().UTC(),
	}

	var tagIDs []string
	if len(input.TagIDs) > 0 {
		tags, err := s.todos.GetTagsByIDs(ctx, input.TagIDs)
		if err != nil {
			return domain.Todo{}, err
		}
		for _, tag := range tags {
			tagIDs = append(tagIDs, tag.ID)
		}
		todo.Tags = tags
	}

	if err := s.todos.Create(ctx, todo, tagIDs); err != nil {
		return domain.Todo{}, err
	}
	return todo, nil
}

func (s *TodoService) GetByID(ctx context.Context, id string) (domain.Todo, error) {
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Todo{}, ErrTodoNotFound
		}
		return domain.Todo{}, err
	}
	return todo, nil
}

func (s *TodoService) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	return s.todos.ListByUser(ctx, userID)
}

// Update solo permite modificar todos del propio usuario.
func (s *TodoService) Update(ctx context.Context, userID, todoID string, input TodoInput) (domain.Todo, error) {
	existing, err := s.ownedTodo(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Todo{}, ErrInvalidTodo
	}

	now := time.Now().UTC()
	existing.Name = name
	existing.Description = strings.TrimSpace(input.Description)
	existing.Priority = clampPriority(input.Priority)
	existing.UpdatedAt = &now

	if err := s.todos.Update(ctx, existing); err != nil {
		return domain.Todo{}, err
	}
	return existing, nil
}

func (s *TodoService) ToggleCompletion(ctx context.Context, userID, todoID string) (domain.Todo, error) {
	existing, err := s.ownedTodo(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}

	now := time.Now().UTC()
	existing.IsCompleted = !existing.IsCompleted
	existing.UpdatedAt = &now

	if err := s.todos.SetCompleted(ctx, existing.ID, existing.IsCompleted, now); err != nil {
		return domain.Todo{}, err
	}
	return existing, nil
}

func (s *TodoService) Archive(ctx context.Context, userID, todoID string) error {
	ok, err := s.todos.Archive(ctx, userID, todoID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return ErrTodoNotFound
	}
	return nil
}

// Priorities devuelve el catalogo estatico de prioridades.
func (s *TodoService) Priorities() []PriorityInfo {
	levels := []domain.PriorityLevel{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh}
	infos := make([]PriorityInfo, 0, len(levels))
	for _, p := range levels {
		infos = append(infos, PriorityInfo{Name: p.String(), Value: int(p)})
	}
	return infos
}

func (s *TodoService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.todos.ListTags(ctx)
}

// DeleteOldArchived elimina todos archivados hace mas de 30 dias.
func (s *TodoService) DeleteOldArchived(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-archivedRetention)
	return s.todos.DeleteOldArchived(ctx, cutoff)
}

func (s *TodoService) ownedTodo(ctx context.Context, userID, todoID string) (domain.Todo, error) {
	existing, err := s.todos.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Todo{}, ErrTodoNotFound
		}
		return domain.Todo{}, err
	}
	if existing.UserID != userID {
		return domain.Todo{}, ErrForbidden
	}
	return existing, nil
}

func clampPriority(value int) domain.PriorityLevel {
	if value < int(domain.PriorityLow) || value > int(domain.PriorityHigh) {
		return domain.PriorityMedium
	}
	return domain.PriorityLevel(value)
}
