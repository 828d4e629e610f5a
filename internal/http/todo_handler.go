package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/service"
)

// TodoHandler mantiene dependencias para endpoints de todos.
type TodoHandler struct {
	logger   *zap.Logger
	todoServ *service.TodoService
}

func NewTodoHandler(logger *zap.Logger, todoServ *service.TodoService) *TodoHandler {
	return &TodoHandler{logger: logger, todoServ: todoServ}
}

type todoRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	Tags        []string `json:"tags"`
}

// ListMine maneja GET /todos.
func (h *TodoHandler) ListMine(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	todos, err := h.todoServ.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list todos failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not list todos")
		return
	}
	respondSuccess(c, http.StatusOK, "Success", todos)
}

// GetByID maneja GET /todos/:id.
func (h *TodoHandler) GetByID(c *gin.Context) {
	todo, err := h.todoServ.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("get todo failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not get todo")
		return
	}
	respondSuccess(c, http.StatusOK, "Success", todo)
}

// Create maneja POST /todos.
func (h *TodoHandler) Create(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create todo request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	todo, err := h.todoServ.Create(c.Request.Context(), userID, service.TodoInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		TagIDs:      req.Tags,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidTodo) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create todo failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not create todo")
		return
	}
	respondSuccess(c, http.StatusCreated, "Success", todo)
}

// Update maneja PUT /todos/:id.
func (h *TodoHandler) Update(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update todo request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	todo, err := h.todoServ.Update(c.Request.Context(), userID, c.Param("id"), service.TodoInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		TagIDs:      req.Tags,
	})
	if err != nil {
		h.respondTodoError(c, err, "update todo failed")
		return
	}
	respondSuccess(c, http.StatusOK, "Success", todo)
}

// ToggleCompletion maneja PATCH /todos/:id/toggle-completion.
func (h *TodoHandler) ToggleCompletion(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	todo, err := h.todoServ.ToggleCompletion(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondTodoError(c, err, "toggle completion failed")
		return
	}
	respondSuccess(c, http.StatusOK, "Success", todo)
}

// Archive maneja PUT /todos/:id/archive.
func (h *TodoHandler) Archive(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.todoServ.Archive(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondTodoError(c, err, "archive todo failed")
		return
	}
	respondSuccess(c, http.StatusOK, "Todo archived", nil)
}

// Priorities maneja GET /todos/priorities.
func (h *TodoHandler) Priorities(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Success", h.todoServ.Priorities())
}

// Tags maneja GET /todos/tags.
func (h *TodoHandler) Tags(c *gin.Context) {
	tags, err := h.todoServ.ListTags(c.Request.Context())
	if err != nil {
		h.logger.Error("list tags failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not list tags")
		return
	}
	respondSuccess(c, http.StatusOK, "Success", tags)
}

func (h *TodoHandler) respondTodoError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTodo):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, zap.Error(err))
		respondError(c, http.StatusInternalServerError, "unexpected error")
	}
}
