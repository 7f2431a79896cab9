package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Operator roles
const (
	RoleAdmin    = "admin"    // manages operators and drives writes
	RoleOperator = "operator" // drives issue, revoke and admin-set writes
	RoleViewer   = "viewer"   // reads journal and wallet status only
)

// ErrSecretNotInitialized is returned before InitJWT has been called
var ErrSecretNotInitialized = errors.New("JWT secret not initialized")

// Claims represents JWT claims for a portal operator
type Claims struct {
	UID      uint   `json:"uid"`
	Username string `json:"sub"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// CanWrite reports whether the role may submit contract transactions
func (c *Claims) CanWrite() bool {
	return c.Role == RoleAdmin || c.Role == RoleOperator
}

var jwtSecret []byte

// InitJWT initializes JWT secret
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateToken signs a token for an operator that expires at expireAt
func GenerateToken(uid uint, username, role string, expireAt time.Time, issuer string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", ErrSecretNotInitialized
	}

	now := time.Now()
	claims := Claims{
		UID:      uid,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseToken parses and validates a JWT token
func ParseToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, ErrSecretNotInitialized
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// IsExpired reports whether a ParseToken error was caused by expiry
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
