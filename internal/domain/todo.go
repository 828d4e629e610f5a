package domain

import "time"

// PriorityLevel es la prioridad de un todo.
type PriorityLevel int

const (
	PriorityLow PriorityLevel = iota
	PriorityMedium
	PriorityHigh
)

func (p PriorityLevel) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	}
	return "Unknown"
}

// Todo es una tarea de un usuario, con tags opcionales.
type Todo struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	IsCompleted bool          `json:"is_completed"`
	IsArchived  bool          `json:"is_archived"`
	Priority    PriorityLevel `json:"priority"`
	Tags        []Tag         `json:"tags,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty"`
}

// Tag es una etiqueta global asignable a todos.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
