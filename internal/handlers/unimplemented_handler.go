package handlers

import (
	"github.com/gofiber/fiber/v2"

	"royalbid/internal/models"
)

// RegisterUnimplementedRoutes answers the bidding and payment endpoints that
// belong to other services with 501.
func RegisterUnimplementedRoutes(router fiber.Router) {
	router.Post("/auction/:id/bids", HandleNotImplemented)
	router.Post("/payments", HandleNotImplemented)
}

// HandleNotImplemented responds 501 with the error envelope.
func HandleNotImplemented(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotImplemented).JSON(models.ErrorResponse("not implemented", nil))
}
