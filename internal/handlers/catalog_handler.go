package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"royalbid/internal/middleware"
	"royalbid/internal/models"
	"royalbid/internal/services"
)

// CatalogHandler serves the public catalog of one variant.
type CatalogHandler struct {
	variant   models.AuctionType
	catalog   *services.CatalogService
	analytics *services.AnalyticsService
	log       logrus.FieldLogger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(variant models.AuctionType, catalog *services.CatalogService, analytics *services.AnalyticsService, log logrus.FieldLogger) *CatalogHandler {
	return &CatalogHandler{
		variant:   variant,
		catalog:   catalog,
		analytics: analytics,
		log:       log.WithField("variant", variant),
	}
}

// RegisterRoutes registers the variant routes under /<slug>. The detail route
// goes last so it does not shadow the fixed paths.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler, limiter fiber.Handler) {
	routes := router.Group("/"+h.variant.Slug(), limiter)
	routes.Get("/", h.HandleList)
	routes.Get("/featured", h.HandleFeatured)
	routes.Get("/popular", h.HandlePopular)
	routes.Get("/category/:category", h.HandleByCategory)
	routes.Get("/search", h.HandleSearch)
	routes.Get("/dashboard/stats", authRequired, h.HandleDashboard)
	routes.Get("/recommendations", authRequired, h.HandleRecommendations)
	routes.Get("/:id", h.HandleGetByID)
}

// HandleList returns a filtered, sorted page of the variant.
func (h *CatalogHandler) HandleList(c *fiber.Ctx) error {
	req, err := pageRequest(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	filters, err := listFilters(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.catalog.List(c.UserContext(), h.variant, filters, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Products retrieved successfully", list)
}

// HandleFeatured returns the featured products.
func (h *CatalogHandler) HandleFeatured(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", services.DefaultTopLimit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	products, err := h.catalog.Featured(c.UserContext(), h.variant, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Featured products retrieved successfully", products)
}

// HandlePopular returns the most viewed products.
func (h *CatalogHandler) HandlePopular(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", services.DefaultTopLimit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	products, err := h.catalog.Popular(c.UserContext(), h.variant, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Popular products retrieved successfully", products)
}

// HandleByCategory lists one category.
func (h *CatalogHandler) HandleByCategory(c *fiber.Ctx) error {
	req, err := pageRequest(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	filters, err := listFilters(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.catalog.ByCategory(c.UserContext(), h.variant, c.Params("category"), filters, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, fmt.Sprintf("Products in %s retrieved successfully", list.Category), list)
}

// HandleSearch runs a free-text search given by ?q=.
func (h *CatalogHandler) HandleSearch(c *fiber.Ctx) error {
	req, err := pageRequest(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	filters, err := listFilters(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.catalog.Search(c.UserContext(), h.variant, c.Query("q"), filters, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Search completed successfully", list)
}

// HandleGetByID returns one product with related listings.
func (h *CatalogHandler) HandleGetByID(c *fiber.Ctx) error {
	detail, err := h.catalog.GetByID(c.UserContext(), h.variant, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Product retrieved successfully", detail)
}

// HandleDashboard returns the caller's statistics for the variant. Admins may
// pass ?sellerId= and see the whole catalog without it.
func (h *CatalogHandler) HandleDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authentication required", nil))
	}
	sellerID := actor.UserID
	if actor.IsAdmin() {
		sellerID = c.Query("sellerId")
	}
	stats, err := h.analytics.Dashboard(c.UserContext(), h.variant, sellerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Dashboard statistics retrieved successfully", stats)
}

// HandleRecommendations returns products related to the caller's listings.
func (h *CatalogHandler) HandleRecommendations(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authentication required", nil))
	}
	limit, err := queryInt(c, "limit", services.DefaultTopLimit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	products, err := h.analytics.Recommendations(c.UserContext(), h.variant, actor.UserID, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return success(c, fiber.StatusOK, "Recommendations retrieved successfully", products)
}
