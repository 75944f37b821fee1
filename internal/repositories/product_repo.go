package repositories

import (
	"context"
	"errors"
	"time"

	"royalbid/internal/models"
	"royalbid/internal/query"
)

// ErrProductNotFound is returned when no (non-deleted) product has the id.
var ErrProductNotFound = errors.New("product not found")

// Scope narrows an aggregation. An empty Variant spans every variant, an
// empty SellerID spans every seller.
type Scope struct {
	Variant    models.AuctionType
	SellerID   string
	ActiveOnly bool
}

// SellerFilter narrows a seller's own product listing.
type SellerFilter struct {
	Variant models.AuctionType
	Status  models.ProductStatus
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// IncrementViewCount adds one to the view counter in a single atomic
	// storage operation.
	IncrementViewCount(ctx context.Context, id string) error

	Find(ctx context.Context, spec query.Spec, offset, limit int) ([]models.Product, int64, error)
	ListBySeller(ctx context.Context, sellerID string, filter SellerFilter, offset, limit int) ([]models.Product, int64, error)
	FilterOptions(ctx context.Context, variant models.AuctionType) (models.FilterOptions, error)
	SellerAffinity(ctx context.Context, sellerID string, variant models.AuctionType) (query.Affinity, error)

	Summarize(ctx context.Context, scope Scope) (models.PriceSummary, error)
	CategoryBreakdown(ctx context.Context, scope Scope) ([]models.CategoryStat, error)
	PriceHistogram(ctx context.Context, scope Scope, boundaries []float64) ([]models.PriceBucket, error)
	CreatedTimes(ctx context.Context, scope Scope, since time.Time) ([]time.Time, error)
	CountByStatus(ctx context.Context, scope Scope) (models.StatusCounts, error)
	CountAuctions(ctx context.Context, scope Scope, now time.Time) (models.AuctionCounts, error)
	CountStock(ctx context.Context, scope Scope) (models.StockCounts, error)
}
