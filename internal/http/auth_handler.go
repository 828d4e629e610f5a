package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/service"
)

// Headers por los que viajan los tokens; nunca van en el body.
const (
	accessTokenHeader  = "X-Access-Token"
	refreshTokenHeader = "X-Refresh-Token"
)

// AuthHandler mantiene dependencias para endpoints de autenticacion.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
	}
}

type userSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.authServ.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("register failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not register user")
		return
	}

	respondSuccess(c, http.StatusCreated,
		"Registration successful. Please verify the OTP sent to your email.",
		userSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName, Email: user.Email},
	)
}

// Login maneja POST /auth/login. Los tokens salen por headers.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	user, pair, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNotVerified):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("login failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "could not login")
		}
		return
	}

	c.Header(accessTokenHeader, pair.AccessToken)
	c.Header(refreshTokenHeader, pair.RefreshToken)
	respondSuccess(c, http.StatusOK, "Success",
		userSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName, Email: user.Email},
	)
}

// SendOTP maneja POST /auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send otp request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.authServ.SendOTP(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrAlreadyVerified):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRateLimited):
			respondError(c, http.StatusTooManyRequests, "too many requests")
		default:
			h.logger.Error("send otp failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "could not send otp")
		}
		return
	}

	respondSuccess(c, http.StatusOK, "OTP sent successfully", nil)
}

// VerifyOTP maneja POST /auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Otp    string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify otp request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	ok, err := h.authServ.VerifyOTP(c.Request.Context(), req.UserID, req.Otp)
	if err != nil {
		h.logger.Error("verify otp failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not verify otp")
		return
	}
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	respondSuccess(c, http.StatusOK, "Verification successful", nil)
}

// RefreshToken maneja POST /auth/refresh-token. El token entra y los
// nuevos salen por headers.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	rawToken := c.GetHeader(refreshTokenHeader)

	_, pair, err := h.authServ.Refresh(c.Request.Context(), rawToken)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("refresh token failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not refresh token")
		return
	}

	c.Header(accessTokenHeader, pair.AccessToken)
	c.Header(refreshTokenHeader, pair.RefreshToken)
	respondSuccess(c, http.StatusOK, "Success", nil)
}
