package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Get("/protected", AuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userID":   c.Locals("userID"),
			"userName": c.Locals("userName"),
		})
	})
	return app
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthRequired_ValidToken(t *testing.T) {
	app := newAuthApp(t)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "user-1",
		"name": "Alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthRequired_Rejections(t *testing.T) {
	app := newAuthApp(t)

	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1", "name": "Alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-1", "name": "Alice",
	})
	noSubject := signToken(t, testSecret, jwt.MapClaims{
		"name": "Alice",
	})

	cases := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic dXNlcjpwYXNz",
		"garbage token":   "Bearer not.a.token",
		"expired token":   "Bearer " + expired,
		"wrong signature": "Bearer " + wrongKey,
		"missing subject": "Bearer " + noSubject,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
