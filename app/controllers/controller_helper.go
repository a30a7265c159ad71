package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func invalidChatID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid chat id"})
}

// queryNonNegative reads an optional non negative integer query parameter
func queryNonNegative(c *fiber.Ctx, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func parseToggle(c *fiber.Ctx) (bool, bool) {
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return false, false
	}
	return *req.Enabled, true
}
