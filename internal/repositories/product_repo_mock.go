package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"royalbid/internal/models"
	"royalbid/internal/query"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It evaluates query specs directly and serves the service and repository
// tests.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func clone(p models.Product) models.Product {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Images != nil {
		p.Images = append([]models.ProductImage(nil), p.Images...)
	}
	if p.AuctionEndDate != nil {
		end := *p.AuctionEndDate
		p.AuctionEndDate = &end
	}
	return p
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate ID %s", product.ID)
	}
	now := r.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.SearchText = product.SearchDocument()
	r.products[product.ID] = clone(*product)
	return nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	p := clone(product)
	return &p, nil
}

// Update modifies an existing product, keeping the stored counter, owner,
// variant and creation time.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, product.ID)
	}
	updated := clone(*product)
	updated.SellerID = stored.SellerID
	updated.AuctionType = stored.AuctionType
	updated.ViewCount = stored.ViewCount
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.now()
	updated.SearchText = updated.SearchDocument()
	r.products[product.ID] = updated
	product.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	delete(r.products, id)
	return nil
}

// IncrementViewCount bumps the counter under the write lock.
func (r *MockProductRepository) IncrementViewCount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	p.ViewCount++
	r.products[id] = p
	return nil
}

func (r *MockProductRepository) selectWhere(keep func(p *models.Product) bool) []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, p := range r.products {
		if keep(&p) {
			out = append(out, clone(p))
		}
	}
	return out
}

func page(products []models.Product, offset, limit int) []models.Product {
	if offset < 0 || offset >= len(products) {
		return []models.Product{}
	}
	end := len(products)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return products[offset:end]
}

// Find returns one page of products matching spec and the total match count.
func (r *MockProductRepository) Find(_ context.Context, spec query.Spec, offset, limit int) ([]models.Product, int64, error) {
	matched := r.selectWhere(spec.Matches)
	sort.SliceStable(matched, func(i, j int) bool { return spec.Less(&matched[i], &matched[j]) })
	return page(matched, offset, limit), int64(len(matched)), nil
}

// ListBySeller lists a seller's own products, newest first.
func (r *MockProductRepository) ListBySeller(_ context.Context, sellerID string, filter SellerFilter, offset, limit int) ([]models.Product, int64, error) {
	matched := r.selectWhere(func(p *models.Product) bool {
		return p.SellerID == sellerID &&
			(filter.Variant == "" || p.AuctionType == filter.Variant) &&
			(filter.Status == "" || p.Status == filter.Status)
	})
	newest := query.Spec{Sort: query.SortNewest}
	sort.SliceStable(matched, func(i, j int) bool { return newest.Less(&matched[i], &matched[j]) })
	return page(matched, offset, limit), int64(len(matched)), nil
}

// FilterOptions computes filter metadata over the whole active partition.
func (r *MockProductRepository) FilterOptions(_ context.Context, variant models.AuctionType) (models.FilterOptions, error) {
	partition := r.selectWhere(query.ForVariant(variant).Matches)
	opts := models.FilterOptions{
		Categories: []models.Category{},
		Conditions: []models.Condition{},
		Brands:     []string{},
	}
	cats := map[models.Category]struct{}{}
	conds := map[models.Condition]struct{}{}
	brands := map[string]struct{}{}
	for i, p := range partition {
		cats[p.Category] = struct{}{}
		conds[p.Condition] = struct{}{}
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
		price := p.BasePrice()
		if i == 0 || price < opts.PriceRange.Min {
			opts.PriceRange.Min = price
		}
		if i == 0 || price > opts.PriceRange.Max {
			opts.PriceRange.Max = price
		}
	}
	for c := range cats {
		opts.Categories = append(opts.Categories, c)
	}
	for c := range conds {
		opts.Conditions = append(opts.Conditions, c)
	}
	for b := range brands {
		opts.Brands = append(opts.Brands, b)
	}
	sort.Slice(opts.Categories, func(i, j int) bool { return opts.Categories[i] < opts.Categories[j] })
	sort.Slice(opts.Conditions, func(i, j int) bool { return opts.Conditions[i] < opts.Conditions[j] })
	sort.Strings(opts.Brands)
	return opts, nil
}

// SellerAffinity collects the categories and brands a seller lists in.
func (r *MockProductRepository) SellerAffinity(_ context.Context, sellerID string, variant models.AuctionType) (query.Affinity, error) {
	own := r.selectWhere(func(p *models.Product) bool {
		return p.SellerID == sellerID && p.AuctionType == variant
	})
	aff := query.Affinity{}
	seen := map[models.Category]struct{}{}
	var brands []string
	for _, p := range own {
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			aff.Categories = append(aff.Categories, p.Category)
		}
		brands = append(brands, p.Brand)
	}
	aff.Brands = lowerUnique(brands)
	return aff, nil
}

func (r *MockProductRepository) inScope(scope Scope) []models.Product {
	return r.selectWhere(func(p *models.Product) bool {
		return (scope.Variant == "" || p.AuctionType == scope.Variant) &&
			(scope.SellerID == "" || p.SellerID == scope.SellerID) &&
			(!scope.ActiveOnly || p.IsPubliclyVisible())
	})
}

type priceAgg struct {
	count int64
	sum   decimal.Decimal
	min   float64
	max   float64
}

func (a *priceAgg) add(v float64) {
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.count++
	a.sum = a.sum.Add(decimal.NewFromFloat(v))
}

func (a *priceAgg) avg() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum.Div(decimal.NewFromInt(a.count)).InexactFloat64()
}

// Summarize aggregates the base price over scope.
func (r *MockProductRepository) Summarize(_ context.Context, scope Scope) (models.PriceSummary, error) {
	var agg priceAgg
	for _, p := range r.inScope(scope) {
		agg.add(p.BasePrice())
	}
	return models.PriceSummary{
		Count:        agg.count,
		TotalValue:   agg.sum.InexactFloat64(),
		AveragePrice: agg.avg(),
		MinPrice:     agg.min,
		MaxPrice:     agg.max,
	}, nil
}

// CategoryBreakdown groups scope by category, largest first.
func (r *MockProductRepository) CategoryBreakdown(_ context.Context, scope Scope) ([]models.CategoryStat, error) {
	groups := map[models.Category]*priceAgg{}
	for _, p := range r.inScope(scope) {
		agg, ok := groups[p.Category]
		if !ok {
			agg = &priceAgg{}
			groups[p.Category] = agg
		}
		agg.add(p.BasePrice())
	}
	stats := make([]models.CategoryStat, 0, len(groups))
	for cat, agg := range groups {
		stats = append(stats, models.CategoryStat{
			Category:     cat,
			Count:        agg.count,
			TotalValue:   agg.sum.InexactFloat64(),
			AveragePrice: agg.avg(),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return strings.Compare(string(stats[i].Category), string(stats[j].Category)) < 0
	})
	return stats, nil
}

// PriceHistogram buckets the base price of scope by boundaries.
func (r *MockProductRepository) PriceHistogram(_ context.Context, scope Scope, boundaries []float64) ([]models.PriceBucket, error) {
	if err := validateBoundaries(boundaries); err != nil {
		return nil, err
	}
	aggs := map[int]*priceAgg{}
	for _, p := range r.inScope(scope) {
		idx := bucketIndex(p.BasePrice(), boundaries)
		agg, ok := aggs[idx]
		if !ok {
			agg = &priceAgg{}
			aggs[idx] = agg
		}
		agg.add(p.BasePrice())
	}
	rows := make([]bucketRow, 0, len(aggs))
	for idx, agg := range aggs {
		rows = append(rows, bucketRow{Bucket: idx, Count: agg.count, AveragePrice: agg.avg()})
	}
	return assembleBuckets(boundaries, rows), nil
}

// CreatedTimes returns creation times in scope at or after since, ascending.
func (r *MockProductRepository) CreatedTimes(_ context.Context, scope Scope, since time.Time) ([]time.Time, error) {
	times := []time.Time{}
	for _, p := range r.inScope(scope) {
		if !p.CreatedAt.Before(since) {
			times = append(times, p.CreatedAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times, nil
}

// CountByStatus counts scope per moderation state.
func (r *MockProductRepository) CountByStatus(_ context.Context, scope Scope) (models.StatusCounts, error) {
	scope.ActiveOnly = false
	var counts models.StatusCounts
	for _, p := range r.inScope(scope) {
		switch p.Status {
		case models.StatusPendingReview:
			counts.PendingReview++
		case models.StatusActive:
			counts.Active++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

// CountAuctions splits the auctions of scope into live and ended at now.
func (r *MockProductRepository) CountAuctions(_ context.Context, scope Scope, now time.Time) (models.AuctionCounts, error) {
	scope.Variant = models.AuctionTypeAuction
	var counts models.AuctionCounts
	for _, p := range r.inScope(scope) {
		if p.AuctionEndDate != nil && p.AuctionEndDate.After(now) {
			counts.Live++
		} else {
			counts.Ended++
		}
	}
	return counts, nil
}

// CountStock summarizes stock levels and discounts across scope.
func (r *MockProductRepository) CountStock(_ context.Context, scope Scope) (models.StockCounts, error) {
	var counts models.StockCounts
	for _, p := range r.inScope(scope) {
		if p.Stocks > 0 {
			counts.InStock++
		} else {
			counts.OutOfStock++
		}
		if p.Discount > 0 {
			counts.Discounted++
		}
	}
	return counts, nil
}
