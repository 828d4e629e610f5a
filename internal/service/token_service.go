package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todo-api/internal/domain"
)

// TokenService emite y valida access tokens JWT y genera refresh tokens
// opacos. El jti de cada access token identifica la sesion vigente.
type TokenService struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

type AccessClaims struct {
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(secret, issuer, audience string, accessTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &TokenService{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

// IssueAccessToken firma un token corto con sub=user.ID y un jti nuevo.
func (s *TokenService) IssueAccessToken(user domain.User) (string, string, error) {
	if len(s.secret) == 0 {
		return "", "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	jti := uuid.NewString()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// NewRefreshToken devuelve un secreto opaco aleatorio sin estructura.
func (s *TokenService) NewRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ParseAccessToken valida firma, issuer, audience y expiracion.
func (s *TokenService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if len(s.secret) == 0 {
		return AccessClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return AccessClaims{}, ErrTokenInvalid
	}

	var claims AccessClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrTokenExpired
		}
		return AccessClaims{}, ErrTokenInvalid
	}
	if !s.isValidClaims(claims) {
		return AccessClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) isValidClaims(claims AccessClaims) bool {
	if strings.TrimSpace(claims.Subject) == "" {
		return false
	}
	if claims.Issuer != s.issuer {
		return false
	}
	for _, aud := range claims.Audience {
		if aud == s.audience {
			return true
		}
	}
	return false
}
