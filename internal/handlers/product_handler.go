package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"royalbid/internal/middleware"
	"royalbid/internal/models"
	"royalbid/internal/services"
)

// ProductHandler handles seller writes and moderation.
type ProductHandler struct {
	service *services.ProductService
	log     logrus.FieldLogger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{service: service, log: log}
}

// RegisterRoutes registers the seller and admin product routes. Every route
// needs a token; writes need the seller or admin role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	sellers := middleware.RequireRole(models.RoleSeller, models.RoleAdmin)

	productRoutes := router.Group("/products", authRequired, sellers)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)

	sellerRoutes := router.Group("/seller/products", authRequired, sellers)
	sellerRoutes.Get("/", h.HandleListMine)
	sellerRoutes.Get("/:id", h.HandleGetMine)

	adminRoutes := router.Group("/admin/products", authRequired, middleware.RequireRole(models.RoleAdmin))
	adminRoutes.Patch("/:id/status", h.HandleSetStatus)
}

func (h *ProductHandler) actor(c *fiber.Ctx) services.Actor {
	actor, _ := middleware.CurrentActor(c)
	return actor
}

// HandleCreateProduct creates a listing in pending_review.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	product, err := h.service.CreateProduct(c.UserContext(), h.actor(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusCreated, "Product created successfully", product)
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var in services.ProductUpdate
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), h.actor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Product updated successfully", product)
}

// HandleDeleteProduct soft-deletes a listing.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), h.actor(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Product "+id+" deleted successfully", nil)
}

// HandleListMine lists the caller's products in any moderation state.
func (h *ProductHandler) HandleListMine(c *fiber.Ctx) error {
	req, err := pageRequest(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.service.ListMine(c.UserContext(), h.actor(c), services.SellerListParams{
		AuctionType: c.Query("auctionType"),
		Status:      c.Query("status"),
		PageRequest: req,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Products retrieved successfully", list)
}

// HandleGetMine returns one of the caller's products.
func (h *ProductHandler) HandleGetMine(c *fiber.Ctx) error {
	product, err := h.service.GetMine(c.UserContext(), h.actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Product retrieved successfully", product)
}

// HandleSetStatus records a moderation decision.
func (h *ProductHandler) HandleSetStatus(c *fiber.Ctx) error {
	var in services.StatusUpdate
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	product, err := h.service.SetStatus(c.UserContext(), h.actor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Product status updated to "+string(product.Status), product)
}
