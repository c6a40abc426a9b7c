// Package middleware carries the request-scoped plumbing: bearer-token
// actor identity and role gates. Token issuance lives elsewhere; this only
// verifies.
package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	localActorID = "actor_id"
	localRole    = "actor_role"

	RoleCitizen    = "citizen"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Claims is the verified token payload: subject is the actor's id hex.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": msg})
}

// RequireAuth verifies the bearer token and stores actor id and role on
// the request.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "missing bearer token")
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return unauthorized(c, "invalid token")
		}
		actorID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			return unauthorized(c, "invalid token subject")
		}

		c.Locals(localActorID, actorID)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

// RequireRole gates a route to the given roles; apply after RequireAuth.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "insufficient role"})
	}
}

// ActorID returns the authenticated actor id, or the zero id on
// unauthenticated routes.
func ActorID(c *fiber.Ctx) primitive.ObjectID {
	if id, ok := c.Locals(localActorID).(primitive.ObjectID); ok {
		return id
	}
	return primitive.NilObjectID
}

func Role(c *fiber.Ctx) string {
	if r, ok := c.Locals(localRole).(string); ok {
		return r
	}
	return ""
}

// IsAdmin reports whether the request carries an admin-capability role.
func IsAdmin(c *fiber.Ctx) bool {
	switch Role(c) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
