package handlers

import (
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	feedws "github.com/saeid-a/CoachBookingBack/internal/websocket"
)

type FeedHandler struct {
	hub *feedws.Hub
}

func NewFeedHandler(hub *feedws.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Upgrade runs after authentication and before the websocket handler.
func (h *FeedHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	coachUID := strings.TrimSpace(c.Query("coach_uid"))
	if coachUID == "" {
		return badRequest(c, "coach_uid is required")
	}
	c.Locals("coach_uid", coachUID)
	return c.Next()
}

func (h *FeedHandler) Subscribe(conn *websocket.Conn) {
	coachUID, _ := conn.Locals("coach_uid").(string)
	client := feedws.NewClient(h.hub, conn, coachUID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}
