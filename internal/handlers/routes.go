package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"royalbid/internal/middleware"
	"royalbid/internal/models"
	"royalbid/internal/services"
)

// Services are the collaborators the API is served from.
type Services struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Products  *services.ProductService
	Analytics *services.AnalyticsService
}

// Mount registers every /api/v1 route on router. limiter guards the public
// catalog routes.
func Mount(router fiber.Router, svc Services, limiter fiber.Handler, log logrus.FieldLogger) {
	api := router.Group("/api/v1")
	authRequired := middleware.AuthRequired(svc.Auth, log)

	NewAuthHandler(svc.Auth, log).RegisterRoutes(api)
	NewProductHandler(svc.Products, log).RegisterRoutes(api, authRequired)
	RegisterUnimplementedRoutes(api)
	for _, variant := range models.AuctionTypes {
		NewCatalogHandler(variant, svc.Catalog, svc.Analytics, log).RegisterRoutes(api, authRequired, limiter)
	}
}
