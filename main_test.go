package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalbid/internal/config"
	"royalbid/internal/logging"
	"royalbid/internal/models"
	"royalbid/internal/query"
	"royalbid/internal/repositories"
)

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	_, err := openDB("mysql", "whatever")
	assert.Error(t, err)
}

func TestSeedDemoData(t *testing.T) {
	db, err := openDB("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	ctx := context.Background()
	users := repositories.NewGORMUserRepository(db)
	products := repositories.NewGORMProductRepository(db)
	now := time.Now().UTC()

	require.NoError(t, seedDemoData(ctx, users, products, now))
	// a second run is a no-op
	require.NoError(t, seedDemoData(ctx, users, products, now))

	for _, variant := range models.AuctionTypes {
		_, total, err := products.Find(ctx, query.ForVariant(variant), 0, 50)
		require.NoError(t, err)
		assert.Positive(t, total, "variant %s", variant)
	}
	_, total, err := products.Find(ctx, query.ForVariant(models.AuctionTypeRetail), 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestNewAppServesMetrics(t *testing.T) {
	cfg := &config.Config{CORSAllowOrigins: "*"}
	app := newApp(cfg, logging.Discard())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `royalbid_http_requests_total{method="GET",route="/ping",status="200"}`))
}
