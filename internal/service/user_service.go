package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"todo-api/internal/domain"
	"todo-api/internal/repository"
)

// UserService arma el perfil del usuario autenticado.
type UserService struct {
	users repository.UserRepository
	todos repository.TodoRepository
}

func NewUserService(users repository.UserRepository, todos repository.TodoRepository) *UserService {
	return &UserService{users: users, todos: todos}
}

// UserProfile es el resumen del usuario junto a sus todos.
type UserProfile struct {
	ID        string        `json:"id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Todos     []domain.Todo `json:"todos"`
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserProfile{}, ErrUserNotFound
		}
		return UserProfile{}, err
	}

	todos, err := s.todos.ListByUser(ctx, userID)
	if err != nil {
		return UserProfile{}, err
	}

	return UserProfile{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Todos:     todos,
	}, nil
}
