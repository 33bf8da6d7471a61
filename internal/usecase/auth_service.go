package usecase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService guards the diagnostic endpoints. Tokens are HS256 with a
// subject claim; no user store is involved.
type AuthService struct {
	JWTSecret string
}

func (s *AuthService) Issue(subject string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}

func (s *AuthService) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrBadRequest("invalid token")
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadRequest("invalid claims")
	}
	sub, _ := m["sub"].(string)
	return sub, nil
}
