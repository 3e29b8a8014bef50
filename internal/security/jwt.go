package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT validation errors.
var (
	// ErrInvalidToken indicates a token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token has expired.
	ErrExpiredToken = errors.New("token expired")
)

// SessionClaims carries the authorization decision made at login.
// Capabilities are resolved once and trusted for the token lifetime.
type SessionClaims struct {
	Role         string   `json:"role"`
	StationID    string   `json:"station_id,omitempty"`
	AdminID      uint64   `json:"admin_id,omitempty"`
	Username     string   `json:"username,omitempty"`
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// HasCapability reports whether the session was granted key.
func (c *SessionClaims) HasCapability(key string) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Capabilities {
		if granted == key {
			return true
		}
	}
	return false
}

// GenerateSessionToken signs claims with the configured expiry.
func GenerateSessionToken(secret string, claims SessionClaims, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates a session JWT and returns its claims.
func ParseSessionToken(secret string, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
