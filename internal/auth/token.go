package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devbyzero/flowlens-gateway/internal/config"
)

// Claims carried by operator tokens for the debug API.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates operator tokens. There is no user
// store; possession of the shared debug secret is the trust anchor.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a manager from debug configuration.
func NewTokenManager(cfg config.DebugConfig) *TokenManager {
	ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(cfg.APISecret), ttl: ttl}
}

// Issue signs a short-lived operator token.
func (m *TokenManager) Issue(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and verifies a token, returning its claims.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
