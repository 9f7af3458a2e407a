package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

// AdminCredentials is one operator login. PasswordHash is a bcrypt hash.
type AdminCredentials struct {
	User         string
	PasswordHash string
}

func AdminCredentialsFromEnv() AdminCredentials {
	return AdminCredentials{
		User:         strings.TrimSpace(env.GetEnv("ADMIN_USER", "admin")),
		PasswordHash: strings.TrimSpace(env.GetEnv("ADMIN_PASSWORD_HASH", "")),
	}
}

// RequireAdmin protects the operator API with HTTP basic auth. Without a
// configured password hash every request is rejected.
func RequireAdmin(creds AdminCredentials) fiber.Handler {
	if creds.PasswordHash == "" {
		log.Warnf("[Admin] ADMIN_PASSWORD_HASH is not set, operator API is locked")
	}
	return basicauth.New(basicauth.Config{
		Realm: "EventFox Admin",
		Authorizer: func(user, pass string) bool {
			if creds.PasswordHash == "" || user != creds.User {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(pass)) == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="EventFox Admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "admin credentials required",
			})
		},
	})
}
