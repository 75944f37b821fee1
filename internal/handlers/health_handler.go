package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"royalbid/internal/models"
)

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the state of the service and its dependencies.
type HealthHandler struct {
	db     *gorm.DB
	cache  Pinger
	broker bool
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewHealthHandler creates a HealthHandler. cache may be nil when caching is
// disabled; broker reports whether event publishing is configured.
func NewHealthHandler(db *gorm.DB, cache Pinger, broker bool, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, broker: broker, log: log, now: time.Now}
}

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Broker   string `json:"broker"`
}

// RegisterRoutes registers /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth pings the database and the cache.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:   "healthy",
		Time:     h.now().UTC().Format(time.RFC3339),
		Database: "up",
		Cache:    "disabled",
		Broker:   "disabled",
	}
	if err := h.pingDB(ctx); err != nil {
		h.log.WithError(err).Warn("health check: database unreachable")
		status.Status = "unhealthy"
		status.Database = "down"
	}
	if h.cache != nil {
		status.Cache = "up"
		if err := h.cache.Ping(ctx); err != nil {
			h.log.WithError(err).Warn("health check: cache unreachable")
			status.Cache = "down"
		}
	}
	if h.broker {
		status.Broker = "configured"
	}

	if status.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.APIResponse{Success: false, Message: "Service unhealthy", Data: status})
	}
	return success(c, fiber.StatusOK, "Service healthy", status)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
