package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"todo-api/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (domain.User, error)
	UpdateOTP(ctx context.Context, id, otp string, otpExpiry time.Time) error
	MarkVerified(ctx context.Context, id string) error
	UpdateSession(ctx context.Context, id, refreshTokenHash string, refreshTokenExpiry time.Time, sessionID string) error
}

const userColumns = `
	id, first_name, last_name, email, password_hash,
	otp, otp_expiry, refresh_token_hash, refresh_token_expiry,
	current_session_id, is_verified, created_at
`

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, first_name, last_name, email, password_hash, otp, otp_expiry, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Otp,
		user.OtpExpiry,
		user.IsVerified,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.queryUser(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.queryUser(ctx, query, email)
}

// GetByRefreshTokenHash busca por el digest del refresh token presentado;
// la columna lleva un indice, nunca se persiste el token en claro.
func (r *PgUserRepository) GetByRefreshTokenHash(ctx context.Context, hash string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE refresh_token_hash = $1`
	return r.queryUser(ctx, query, hash)
}

func (r *PgUserRepository) UpdateOTP(ctx context.Context, id, otp string, otpExpiry time.Time) error {
	const query = `
		UPDATE users SET otp = $2, otp_expiry = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, otp, otpExpiry)
	return err
}

// MarkVerified limpia otp y otp_expiry junto con la marca de verificacion.
func (r *PgUserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET is_verified = TRUE, otp = NULL, otp_expiry = NULL
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// UpdateSession reemplaza hash, expiracion y session id en un solo UPDATE;
// la atomicidad de fila garantiza la transicion completa o ninguna.
func (r *PgUserRepository) UpdateSession(ctx context.Context, id, refreshTokenHash string, refreshTokenExpiry time.Time, sessionID string) error {
	const query = `
		UPDATE users SET refresh_token_hash = $2, refresh_token_expiry = $3, current_session_id = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, refreshTokenHash, refreshTokenExpiry, sessionID)
	return err
}

func (r *PgUserRepository) queryUser(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	var otp, refreshHash, sessionID *string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&otp,
		&u.OtpExpiry,
		&refreshHash,
		&u.RefreshTokenExpiry,
		&sessionID,
		&u.IsVerified,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if otp != nil {
		u.Otp = *otp
	}
	if refreshHash != nil {
		u.RefreshTokenHash = *refreshHash
	}
	if sessionID != nil {
		u.CurrentSessionID = *sessionID
	}
	return u, nil
}
