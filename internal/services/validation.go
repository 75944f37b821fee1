package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"royalbid/internal/models"
)

// ProductInput is the payload a seller creates a listing from.
type ProductInput struct {
	AuctionType models.AuctionType    `json:"auctionType" validate:"required,auction_type"`
	Title       string                `json:"title" validate:"required,min=3,max=200"`
	Description string                `json:"description" validate:"max=5000"`
	Category    models.Category       `json:"category" validate:"required,category"`
	Condition   models.Condition      `json:"condition" validate:"required,condition"`
	Brand       string                `json:"brand" validate:"max=100"`
	Model       string                `json:"model" validate:"max=100"`
	Tags        []string              `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	Images      []models.ProductImage `json:"images" validate:"omitempty,max=10,dive"`

	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Stocks   *int     `json:"stocks" validate:"omitempty,gte=0"`
	Discount *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`

	StartingBid    *float64   `json:"startingBid" validate:"omitempty,gte=0"`
	AuctionEndDate *time.Time `json:"auctionEndDate"`
}

// ProductUpdate is a partial update; nil fields are left unchanged. A
// non-nil empty Tags or Images slice clears the field.
type ProductUpdate struct {
	AuctionType *models.AuctionType   `json:"auctionType" validate:"omitempty,auction_type"`
	Title       *string               `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=5000"`
	Category    *models.Category      `json:"category" validate:"omitempty,category"`
	Condition   *models.Condition     `json:"condition" validate:"omitempty,condition"`
	Brand       *string               `json:"brand" validate:"omitempty,max=100"`
	Model       *string               `json:"model" validate:"omitempty,max=100"`
	Tags        []string              `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	Images      []models.ProductImage `json:"images" validate:"omitempty,max=10,dive"`

	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Stocks   *int     `json:"stocks" validate:"omitempty,gte=0"`
	Discount *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`

	StartingBid    *float64   `json:"startingBid" validate:"omitempty,gte=0"`
	AuctionEndDate *time.Time `json:"auctionEndDate"`

	IsActive *bool `json:"isActive"`
}

// StatusUpdate is a moderation decision.
type StatusUpdate struct {
	Status     models.ProductStatus `json:"status" validate:"required,product_status"`
	IsFeatured *bool                `json:"isFeatured"`
}

// NewValidator returns a validator that knows the catalog enums and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	mustRegister(v, "condition", func(fl validator.FieldLevel) bool {
		return models.Condition(fl.Field().String()).Valid()
	})
	mustRegister(v, "auction_type", func(fl validator.FieldLevel) bool {
		return models.AuctionType(fl.Field().String()).Valid()
	})
	mustRegister(v, "product_status", func(fl validator.FieldLevel) bool {
		return models.ProductStatus(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(productInputRules, ProductInput{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// productInputRules enforces the required-field set of each variant.
func productInputRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(ProductInput)
	switch in.AuctionType {
	case models.AuctionTypeAuction:
		if in.StartingBid == nil {
			sl.ReportError(in.StartingBid, "startingBid", "StartingBid", "required", "")
		}
		if in.AuctionEndDate == nil {
			sl.ReportError(in.AuctionEndDate, "auctionEndDate", "AuctionEndDate", "required", "")
		}
	case models.AuctionTypeRetail, models.AuctionTypeAntiPiece:
		if in.Price == nil {
			sl.ReportError(in.Price, "price", "Price", "required", "")
		}
	}
}

// validationError converts validator output into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		// images[0].url rather than url
		if ns := strings.SplitN(e.Namespace(), ".", 2); len(ns) == 2 {
			field = ns[1]
		}
		fields[field] = fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag())
	}
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

var defaultValidator = NewValidator()

// Validate checks s against its validate tags, returning a *ValidationError
// on failure.
func Validate(s interface{}) error {
	return validateStruct(defaultValidator, s)
}

// validateStruct runs v over s, returning a *ValidationError on failure.
func validateStruct(v *validator.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return validationError(err)
	}
	return nil
}
