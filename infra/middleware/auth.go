package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

const actorLocal = "actor"

// Claims are the token claims issued by the external auth service.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	SuperAdmin bool   `json:"super_admin"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the actor in locals.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return apperr.Unauthorized("missing bearer token")
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, apperr.InvalidToken("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return apperr.InvalidToken("token validation failed")
		}
		if claims.Email == "" {
			return apperr.InvalidToken("token has no subject email")
		}

		c.Locals(actorLocal, domain.Actor{
			UserID:     claims.Subject,
			Email:      claims.Email,
			Name:       claims.Name,
			Role:       claims.Role,
			SuperAdmin: claims.SuperAdmin,
		})
		c.Locals("actor_email", claims.Email)
		return c.Next()
	}
}

// ActorFrom returns the authenticated actor for the request.
func ActorFrom(c *fiber.Ctx) domain.Actor {
	if actor, ok := c.Locals(actorLocal).(domain.Actor); ok {
		return actor
	}
	return domain.Actor{}
}

// RequireSuperAdmin rejects requests from non-super-admin actors.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ActorFrom(c).SuperAdmin {
			return apperr.Forbidden("super admin required")
		}
		return c.Next()
	}
}
