package security

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"docstitch/config"
)

// Claims are the JWT claims accepted by the API.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// Auth guards API routes with either a bearer JWT or a static API key.
// Disabled auth passes every request through.
type Auth struct {
	cfg *config.SecurityConfig
}

// New creates an auth guard from configuration.
func New(cfg *config.SecurityConfig) *Auth {
	return &Auth{cfg: cfg}
}

// Middleware returns the fiber handler enforcing authentication.
func (a *Auth) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.cfg.Enabled {
			return c.Next()
		}

		if key := c.Get(a.cfg.APIKeyHeader); key != "" {
			if a.validAPIKey(key) {
				return c.Next()
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid API key")
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if subject, err := a.verifyToken(token); err == nil {
				c.Locals("subject", subject)
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
}

func (a *Auth) validAPIKey(key string) bool {
	for _, known := range a.cfg.APIKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(known)) == 1 {
			return true
		}
	}
	return false
}

func (a *Auth) verifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// IssueToken signs a JWT for the given subject, used by operational tooling.
func (a *Auth) IssueToken(subject string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.JWTSecret))
}
