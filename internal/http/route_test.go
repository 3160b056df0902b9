package http

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiberCustomMethodRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Post("/api/v1/questions\\:browse", func(c *fiber.Ctx) error {
		return c.SendString("browse")
	})
	app.Get("/api/v1/questions/:id", func(c *fiber.Ctx) error {
		return c.SendString(c.Params("id"))
	})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{method: "POST", path: "/api/v1/questions:browse", want: "browse"},
		{method: "GET", path: "/api/v1/questions/2019-DSE-P1-Q3", want: "2019-DSE-P1-Q3"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		resp, err := app.Test(req, 5000)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(body), "%s %s", tt.method, tt.path)
	}
}
