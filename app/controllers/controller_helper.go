package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(c.Get(key)); v != "" {
			return v
		}
	}
	return ""
}
