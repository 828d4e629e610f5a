package domain

import "time"

// User modela identidad, credenciales y estado de sesión.
//
// Una sola sesión activa por usuario: el hash del último refresh token
// emitido y el jti del último access token sobreescriben a los anteriores.
type User struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Otp                string     `json:"-"`
	OtpExpiry          *time.Time `json:"-"`
	RefreshTokenHash   string     `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	CurrentSessionID   string     `json:"-"`
	IsVerified         bool       `json:"is_verified"`
	CreatedAt          time.Time  `json:"created_at"`
}
