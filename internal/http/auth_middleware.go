package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"todo-api/internal/repository"
	"todo-api/internal/service"
)

const authUserIDKey = "auth_user_id"

// AuthRequired valida el access token y aplica la revocacion server-side:
// un token firmado y vigente se rechaza igual si su jti ya no coincide con
// el current_session_id almacenado del usuario.
func AuthRequired(tokens *service.TokenService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Authentication failed")
			return
		}

		userID := strings.TrimSpace(claims.Subject)
		jti := strings.TrimSpace(claims.ID)
		if userID == "" || jti == "" {
			abortUnauthorized(c, "Token is missing required claims")
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || user.CurrentSessionID != jti {
			abortUnauthorized(c, "Token has been revoked or is invalid")
			return
		}

		c.Set(authUserIDKey, user.ID)
		c.Next()
	}
}

// CurrentUserID obtiene el id del usuario autenticado desde el contexto.
func CurrentUserID(c *gin.Context) (string, bool) {
	val, ok := c.Get(authUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, message)
	c.Abort()
}
