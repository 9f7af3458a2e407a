package middleware

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newAdminApp(t *testing.T, creds AdminCredentials) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/admin", RequireAdmin(creds), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	app := newAdminApp(t, AdminCredentials{User: "ops", PasswordHash: string(hash)})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", basicHeader("ops", "s3cret"), fiber.StatusOK},
		{"wrong password", basicHeader("ops", "nope"), fiber.StatusUnauthorized},
		{"wrong user", basicHeader("root", "s3cret"), fiber.StatusUnauthorized},
		{"missing", "", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireAdminLockedWithoutHash(t *testing.T) {
	app := newAdminApp(t, AdminCredentials{User: "admin"})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", basicHeader("admin", ""))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
