package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBookingBack/internal/middleware"
	"github.com/saeid-a/CoachBookingBack/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAppAs(identity models.Identity) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetIdentity(c, identity)
		return c.Next()
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

var (
	studentIdentity = models.Identity{UID: "student-1", Role: models.RoleStudent}
	coachIdentity   = models.Identity{UID: "coach-1", Role: models.RoleCoach}
)
