package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService) *UserHandler {
	return &UserHandler{logger: logger, userServ: userServ}
}

// CurrentUser maneja GET /users/current-user.
func (h *UserHandler) CurrentUser(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.userServ.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	respondSuccess(c, http.StatusOK, "Success", profile)
}
