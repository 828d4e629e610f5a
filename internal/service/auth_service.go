package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/email"
	"todo-api/internal/repository"
)

// AuthService coordina registro, verificacion OTP, login y rotacion de
// refresh tokens. Cada usuario tiene a lo sumo una sesion activa.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	tokens      *TokenService
	emailSender email.Sender
	otpLimiter  OTPRateLimiter
	refreshTTL  time.Duration
}

// TokenPair agrupa el access token firmado y el refresh token opaco.
// Nunca se persiste: solo el hash del refresh token llega a la base.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

var (
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("invalid or expired refresh token")
)

const otpTTL = 10 * time.Minute

func NewAuthService(logger *zap.Logger, users repository.UserRepository, tokens *TokenService, emailSender email.Sender, otpLimiter OTPRateLimiter, refreshTTL time.Duration) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if otpLimiter == nil {
		otpLimiter = NewOTPRateLimiter(otpTTL, 3)
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		tokens:      tokens,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
		refreshTTL:  refreshTTL,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register crea un usuario sin verificar con OTP vigente por 10 minutos.
// El envio del correo es desacoplado: su fallo no revierte el registro.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	emailAddr := strings.TrimSpace(input.Email)

	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return domain.User{}, ErrDuplicateEmail
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}
	otp, err := GenerateOTP()
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	otpExpiry := now.Add(otpTTL)
	user := domain.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        emailAddr,
		PasswordHash: passwordHash,
		Otp:          otp,
		OtpExpiry:    &otpExpiry,
		IsVerified:   false,
		CreatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.sendOTPDetached(user.Email, otp, otpExpiry)
	return user, nil
}

// Login autentica por email y contraseña y abre una sesion nueva.
// Usuario inexistente y contraseña incorrecta devuelven el mismo error
// para no permitir enumeracion de cuentas.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, TokenPair, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, TokenPair{}, err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return domain.User{}, TokenPair{}, ErrNotVerified
	}

	return s.startSession(ctx, user)
}

// SendOTP regenera el codigo para un usuario aun sin verificar.
func (s *AuthService) SendOTP(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return ErrUserNotFound
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	otp, err := GenerateOTP()
	if err != nil {
		return err
	}
	otpExpiry := time.Now().UTC().Add(otpTTL)
	if err := s.users.UpdateOTP(ctx, user.ID, otp, otpExpiry); err != nil {
		return err
	}

	s.sendOTPDetached(user.Email, otp, otpExpiry)
	return nil
}

// VerifyOTP devuelve false ante usuario inexistente, ya verificado, codigo
// distinto o expirado; no distingue causas hacia el caller.
func (s *AuthService) VerifyOTP(ctx context.Context, userID, code string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if user.IsVerified {
		return false, nil
	}
	if user.Otp == "" || user.OtpExpiry == nil {
		return false, nil
	}
	if time.Now().UTC().After(*user.OtpExpiry) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(user.Otp), []byte(code)) != 1 {
		return false, nil
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh rota la sesion: el token presentado queda invalidado por el
// overwrite del hash almacenado, igual que los access tokens previos.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (domain.User, TokenPair, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.User{}, TokenPair{}, ErrUnauthorized
	}

	user, err := s.users.GetByRefreshTokenHash(ctx, HashRefreshToken(rawToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, TokenPair{}, ErrUnauthorized
		}
		return domain.User{}, TokenPair{}, err
	}
	if user.RefreshTokenExpiry == nil || time.Now().UTC().After(*user.RefreshTokenExpiry) {
		return domain.User{}, TokenPair{}, ErrUnauthorized
	}

	return s.startSession(ctx, user)
}

// startSession emite un par nuevo y persiste hash, expiracion y session id
// en una sola escritura.
func (s *AuthService) startSession(ctx context.Context, user domain.User) (domain.User, TokenPair, error) {
	access, jti, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	refresh, err := s.tokens.NewRefreshToken()
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	refreshHash := HashRefreshToken(refresh)
	refreshExpiry := time.Now().UTC().Add(s.refreshTTL)
	if err := s.users.UpdateSession(ctx, user.ID, refreshHash, refreshExpiry, jti); err != nil {
		return domain.User{}, TokenPair{}, err
	}

	user.RefreshTokenHash = refreshHash
	user.RefreshTokenExpiry = &refreshExpiry
	user.CurrentSessionID = jti
	return user, TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sendOTPDetached(toEmail, otp string, expiresAt time.Time) {
	if s.emailSender == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.emailSender.SendOTP(ctx, toEmail, otp, expiresAt); err != nil {
			if s.logger != nil {
				s.logger.Warn("send otp email failed", zap.Error(err), zap.String("email", toEmail))
			}
		}
	}()
}
