package http

import "github.com/gin-gonic/gin"

// apiResponse es el sobre JSON comun: {status, message, data}.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, apiResponse{Status: "success", Message: message, Data: data})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, apiResponse{Status: "error", Message: message, Data: nil})
}
