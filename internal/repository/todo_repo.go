package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo-api/internal/domain"
)

// TodoRepository define el contrato de persistencia para todos y tags.
type TodoRepository interface {
	Create(ctx context.Context, todo domain.Todo, tagIDs []string) error
	GetByID(ctx context.Context, id string) (domain.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) error
	SetCompleted(ctx context.Context, id string, completed bool, updatedAt time.Time) error
	Archive(ctx context.Context, userID, id string, archivedAt time.Time) (bool, error)
	DeleteOldArchived(ctx context.Context, cutoff time.Time) (int64, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]domain.Tag, error)
}

const todoColumns = `
	id, user_id, name, description, is_completed, is_archived,
	priority, created_at, updated_at, archived_at
`

// PgTodoRepository implementa TodoRepository usando pgxpool.
type PgTodoRepository struct {
	pool *pgxpool.Pool
}

func NewPgTodoRepository(pool *pgxpool.Pool) *PgTodoRepository {
	return &PgTodoRepository{pool: pool}
}

// Create inserta el todo y sus vinculos a tags dentro de una transaccion.
func (r *PgTodoRepository) Create(ctx context.Context, todo domain.Todo, tagIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertTodo = `
		INSERT INTO todos (id, user_id, name, description, is_completed, is_archived, priority, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, insertTodo,
		todo.ID,
		todo.UserID,
		todo.Name,
		todo.Description,
		todo.IsCompleted,
		todo.IsArchived,
		int(todo.Priority),
		todo.CreatedAt,
	); err != nil {
		return err
	}

	const insertLink = `INSERT INTO todo_tags (todo_id, tag_id) VALUES ($1, $2)`
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx, insertLink, todo.ID, tagID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgTodoRepository) GetByID(ctx context.Context, id string) (domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	todo, err := r.scanTodo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Todo{}, err
	}
	tags, err := r.loadTags(ctx, []string{todo.ID})
	if err != nil {
		return domain.Todo{}, err
	}
	todo.Tags = tags[todo.ID]
	return todo, nil
}

func (r *PgTodoRepository) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []domain.Todo
	var ids []string
	for rows.Next() {
		todo, err := r.scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
		ids = append(ids, todo.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		todos[i].Tags = tags[todos[i].ID]
	}
	return todos, nil
}

func (r *PgTodoRepository) Update(ctx context.Context, todo domain.Todo) error {
	const query = `
		UPDATE todos SET name = $2, description = NULLIF($3, ''), priority = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.Name,
		todo.Description,
		int(todo.Priority),
		todo.UpdatedAt,
	)
	return err
}

func (r *PgTodoRepository) SetCompleted(ctx context.Context, id string, completed bool, updatedAt time.Time) error {
	const query = `UPDATE todos SET is_completed = $2, updated_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, completed, updatedAt)
	return err
}

// Archive solo afecta todos del propio usuario que no esten archivados.
func (r *PgTodoRepository) Archive(ctx context.Context, userID, id string, archivedAt time.Time) (bool, error) {
	const query = `
		UPDATE todos SET is_archived = TRUE, archived_at = $3
		WHERE id = $1 AND user_id = $2 AND is_archived = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, id, userID, archivedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOldArchived borra todos archivados antes del corte; es idempotente.
func (r *PgTodoRepository) DeleteOldArchived(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM todos WHERE is_archived = TRUE AND archived_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgTodoRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	const query = `SELECT id, name FROM tags ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *PgTodoRepository) GetTagsByIDs(ctx context.Context, ids []string) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name FROM tags WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *PgTodoRepository) loadTags(ctx context.Context, todoIDs []string) (map[string][]domain.Tag, error) {
	if len(todoIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT tt.todo_id, t.id, t.name
		FROM todo_tags tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.todo_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := r.pool.Query(ctx, query, todoIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTodo := make(map[string][]domain.Tag)
	for rows.Next() {
		var todoID string
		var tag domain.Tag
		if err := rows.Scan(&todoID, &tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		byTodo[todoID] = append(byTodo[todoID], tag)
	}
	return byTodo, rows.Err()
}

func (r *PgTodoRepository) scanTodo(row pgx.Row) (domain.Todo, error) {
	var t domain.Todo
	var description *string
	var priority int
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&description,
		&t.IsCompleted,
		&t.IsArchived,
		&priority,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ArchivedAt,
	)
	if err != nil {
		return domain.Todo{}, err
	}
	if description != nil {
		t.Description = *description
	}
	t.Priority = domain.PriorityLevel(priority)
	return t, nil
}

func scanTags(rows pgx.Rows) ([]domain.Tag, error) {
	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
