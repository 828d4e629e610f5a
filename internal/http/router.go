package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	todoH *TodoHandler,
	userH *UserHandler,
	guard gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "todo-api Healthy!")
	})

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/send-otp", authH.SendOTP)
	auth.POST("/verify-otp", authH.VerifyOTP)
	auth.POST("/refresh-token", authH.RefreshToken)

	// Todo lo demas pasa por el guard de revocacion.
	todos := v1.Group("/todos", guard)
	todos.GET("", todoH.ListMine)
	todos.GET("/priorities", todoH.Priorities)
	todos.GET("/tags", todoH.Tags)
	todos.GET("/:id", todoH.GetByID)
	todos.POST("", todoH.Create)
	todos.PUT("/:id", todoH.Update)
	todos.PATCH("/:id/toggle-completion", todoH.ToggleCompletion)
	todos.PUT("/:id/archive", todoH.Archive)

	users := v1.Group("/users", guard)
	users.GET("/current-user", userH.CurrentUser)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
