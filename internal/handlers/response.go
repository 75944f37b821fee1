package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"royalbid/internal/derive"
	"royalbid/internal/models"
	"royalbid/internal/query"
	"royalbid/internal/repositories"
	"royalbid/internal/services"
)

// respondError maps service errors onto HTTP statuses and the error envelope.
func respondError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	var (
		validationErr *services.ValidationError
		forbiddenErr  *services.ForbiddenError
		fiberErr      *fiber.Error
	)
	switch {
	case errors.As(err, &validationErr):
		var fields interface{}
		if len(validationErr.Fields) > 0 {
			fields = validationErr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(validationErr.Message, fields))
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid username or password", nil))
	case errors.As(err, &forbiddenErr):
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse(forbiddenErr.Message, nil))
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Product not found", nil))
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(err.Error(), nil))
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse(fiberErr.Message, nil))
	}

	entry := log.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	})
	if errors.Is(err, derive.ErrInvariantViolation) {
		entry.Error("catalog invariant violated")
	} else {
		entry.Error("request failed")
	}
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal server error", nil))
}

// ErrorHandler renders errors that escape handlers, such as unmatched routes
// or recovered panics, in the error envelope.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respondError(c, log, err)
	}
}

func badRequest(field, message string) error {
	return &services.ValidationError{Message: "Validation failed", Fields: map[string]string{field: message}}
}

func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &services.ValidationError{Message: "Invalid request body"}
	}
	return nil
}

// queryInt reads an integer query parameter. Anything that is present but
// not a whole number is rejected rather than defaulted.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key, "must be an integer")
	}
	return n, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, badRequest(key, "must be a finite number")
	}
	return &f, nil
}

func pageRequest(c *fiber.Ctx) (services.PageRequest, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return services.PageRequest{}, err
	}
	limit, err := queryInt(c, "limit", services.DefaultPageLimit)
	if err != nil {
		return services.PageRequest{}, err
	}
	return services.PageRequest{Page: page, Limit: limit}, nil
}

func listFilters(c *fiber.Ctx) (query.Filters, error) {
	minPrice, err := queryFloat(c, "minPrice")
	if err != nil {
		return query.Filters{}, err
	}
	maxPrice, err := queryFloat(c, "maxPrice")
	if err != nil {
		return query.Filters{}, err
	}
	return query.Filters{
		Category:      c.Query("category"),
		Condition:     c.Query("condition"),
		Brand:         c.Query("brand"),
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		Search:        c.Query("search"),
		Sort:          c.Query("sort"),
		AuctionStatus: c.Query("auctionStatus"),
	}, nil
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(models.SuccessResponse(message, data))
}
