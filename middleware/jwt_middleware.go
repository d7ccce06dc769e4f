// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JwtCustomClaims carries the caller's identity. Authorization decisions
// stay upstream; this layer only answers who the caller is, which the
// realtime hub needs to route targeted notices.
type JwtCustomClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GetJWTSecret returns the JWT secret from environment variables.
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware validates the bearer token and stores the caller identity
// in the request context.
func JWTMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFromRequest(c)
			if err != nil {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
			}
			c.Set("userId", claims.UserID)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}

// ClaimsFromRequest parses the Authorization header, falling back to the
// token query parameter because browser websocket clients cannot set
// headers.
func ClaimsFromRequest(c echo.Context) (*JwtCustomClaims, error) {
	raw := c.QueryParam("token")
	if header := c.Request().Header.Get("Authorization"); header != "" {
		raw = strings.TrimPrefix(header, "Bearer ")
	}
	if raw == "" {
		return nil, errors.New("missing token")
	}

	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// UserIDFromRequest resolves the caller's user id, used to bind realtime
// connections to their owner.
func UserIDFromRequest(c echo.Context) (primitive.ObjectID, error) {
	claims, err := ClaimsFromRequest(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}

// GenerateJWT generates a token for a user.
func GenerateJWT(userID, email string) (string, error) {
	claims := &JwtCustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(GetJWTSecret()))
}
