package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"royalbid/internal/models"
	"royalbid/internal/query"
)

const likeEscape = ` ESCAPE '\'`

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func (r *GORMProductRepository) model(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Product{})
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.SearchText = product.SearchDocument()
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Update writes every mutable column of product. The view counter, owner,
// variant and creation time are never written here so that a stale copy
// cannot roll them back.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.SearchText = product.SearchDocument()
	res := r.db.WithContext(ctx).Model(product).
		Select("*").
		Omit("id", "seller_id", "auction_type", "view_count", "created_at", "deleted_at").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, product.ID)
	}
	return nil
}

// Delete soft-deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return nil
}

// IncrementViewCount runs UPDATE ... SET view_count = view_count + 1.
func (r *GORMProductRepository) IncrementViewCount(ctx context.Context, id string) error {
	res := r.model(ctx).Where("id = ?", id).UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment view count of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return nil
}

// Find returns one page of products matching spec and the total match count.
func (r *GORMProductRepository) Find(ctx context.Context, spec query.Spec, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := applySpec(r.model(ctx), spec).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products := []models.Product{}
	if total == 0 || int64(offset) >= total {
		return products, total, nil
	}

	q := applyOrder(applySpec(r.model(ctx), spec), spec.OrderBy())
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find products: %w", err)
	}
	return products, total, nil
}

// ListBySeller lists a seller's own products in every moderation state.
func (r *GORMProductRepository) ListBySeller(ctx context.Context, sellerID string, filter SellerFilter, offset, limit int) ([]models.Product, int64, error) {
	scoped := func() *gorm.DB {
		q := r.model(ctx).Where("seller_id = ?", sellerID)
		if filter.Variant != "" {
			q = q.Where("auction_type = ?", filter.Variant)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count seller products: %w", err)
	}
	products := []models.Product{}
	if total == 0 || int64(offset) >= total {
		return products, total, nil
	}
	q := scoped().Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list seller products: %w", err)
	}
	return products, total, nil
}

// FilterOptions computes filter metadata over the whole active partition.
func (r *GORMProductRepository) FilterOptions(ctx context.Context, variant models.AuctionType) (models.FilterOptions, error) {
	opts := models.FilterOptions{
		Categories: []models.Category{},
		Conditions: []models.Condition{},
		Brands:     []string{},
	}
	partition := func() *gorm.DB { return applySpec(r.model(ctx), query.ForVariant(variant)) }

	if err := partition().Distinct().Order("category").Pluck("category", &opts.Categories).Error; err != nil {
		return opts, fmt.Errorf("failed to load distinct categories: %w", err)
	}
	if err := partition().Distinct().Order("condition").Pluck("condition", &opts.Conditions).Error; err != nil {
		return opts, fmt.Errorf("failed to load distinct conditions: %w", err)
	}
	if err := partition().Where("brand IS NOT NULL AND brand <> ''").Distinct().Order("brand").Pluck("brand", &opts.Brands).Error; err != nil {
		return opts, fmt.Errorf("failed to load distinct brands: %w", err)
	}

	col := models.PriceColumn(variant)
	var pr struct {
		MinPrice float64
		MaxPrice float64
	}
	if err := partition().Select(fmt.Sprintf("COALESCE(MIN(%[1]s), 0) AS min_price, COALESCE(MAX(%[1]s), 0) AS max_price", col)).Scan(&pr).Error; err != nil {
		return opts, fmt.Errorf("failed to load price range: %w", err)
	}
	opts.PriceRange = models.PriceRange{Min: pr.MinPrice, Max: pr.MaxPrice}
	return opts, nil
}

// SellerAffinity collects the categories and brands a seller lists in.
func (r *GORMProductRepository) SellerAffinity(ctx context.Context, sellerID string, variant models.AuctionType) (query.Affinity, error) {
	aff := query.Affinity{}
	own := func() *gorm.DB {
		return r.model(ctx).Where("seller_id = ? AND auction_type = ?", sellerID, variant)
	}
	if err := own().Distinct().Pluck("category", &aff.Categories).Error; err != nil {
		return aff, fmt.Errorf("failed to load seller categories: %w", err)
	}
	var brands []string
	if err := own().Where("brand IS NOT NULL AND brand <> ''").Distinct().Pluck("brand", &brands).Error; err != nil {
		return aff, fmt.Errorf("failed to load seller brands: %w", err)
	}
	aff.Brands = lowerUnique(brands)
	return aff, nil
}

// Summarize aggregates the base price over scope.
func (r *GORMProductRepository) Summarize(ctx context.Context, scope Scope) (models.PriceSummary, error) {
	var summary models.PriceSummary
	col := priceExpr(scope.Variant)
	sel := fmt.Sprintf("COUNT(*) AS count, COALESCE(SUM(%[1]s), 0) AS total_value, COALESCE(AVG(%[1]s), 0) AS average_price, "+
		"COALESCE(MIN(%[1]s), 0) AS min_price, COALESCE(MAX(%[1]s), 0) AS max_price", col)
	if err := applyScope(r.model(ctx), scope).Select(sel).Scan(&summary).Error; err != nil {
		return models.PriceSummary{}, fmt.Errorf("failed to summarize products: %w", err)
	}
	return summary, nil
}

// CategoryBreakdown groups scope by category, largest first.
func (r *GORMProductRepository) CategoryBreakdown(ctx context.Context, scope Scope) ([]models.CategoryStat, error) {
	stats := []models.CategoryStat{}
	col := priceExpr(scope.Variant)
	sel := fmt.Sprintf("category, COUNT(*) AS count, COALESCE(SUM(%[1]s), 0) AS total_value, COALESCE(AVG(%[1]s), 0) AS average_price", col)
	err := applyScope(r.model(ctx), scope).
		Select(sel).
		Group("category").
		Order("COUNT(*) DESC").Order("category ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group products by category: %w", err)
	}
	return stats, nil
}

// PriceHistogram buckets the base price of scope by boundaries.
func (r *GORMProductRepository) PriceHistogram(ctx context.Context, scope Scope, boundaries []float64) ([]models.PriceBucket, error) {
	if err := validateBoundaries(boundaries); err != nil {
		return nil, err
	}
	col := priceExpr(scope.Variant)
	var rows []bucketRow
	sel := fmt.Sprintf("%s AS bucket, COUNT(*) AS count, COALESCE(AVG(%s), 0) AS average_price", bucketCaseSQL(col, boundaries), col)
	if err := applyScope(r.model(ctx), scope).Select(sel).Group("bucket").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to bucket product prices: %w", err)
	}
	return assembleBuckets(boundaries, rows), nil
}

// CreatedTimes returns the creation time of every product in scope created
// at or after since.
func (r *GORMProductRepository) CreatedTimes(ctx context.Context, scope Scope, since time.Time) ([]time.Time, error) {
	times := []time.Time{}
	if err := applyScope(r.model(ctx), scope).Where("created_at >= ?", since).Order("created_at").Pluck("created_at", &times).Error; err != nil {
		return nil, fmt.Errorf("failed to load creation times: %w", err)
	}
	return times, nil
}

// CountByStatus counts scope per moderation state.
func (r *GORMProductRepository) CountByStatus(ctx context.Context, scope Scope) (models.StatusCounts, error) {
	var rows []struct {
		Status models.ProductStatus
		Count  int64
	}
	scope.ActiveOnly = false
	if err := applyScope(r.model(ctx), scope).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return models.StatusCounts{}, fmt.Errorf("failed to count products by status: %w", err)
	}
	var counts models.StatusCounts
	for _, row := range rows {
		switch row.Status {
		case models.StatusPendingReview:
			counts.PendingReview = row.Count
		case models.StatusActive:
			counts.Active = row.Count
		case models.StatusRejected:
			counts.Rejected = row.Count
		}
	}
	return counts, nil
}

// CountAuctions splits the auctions of scope into live and ended at now.
func (r *GORMProductRepository) CountAuctions(ctx context.Context, scope Scope, now time.Time) (models.AuctionCounts, error) {
	scope.Variant = models.AuctionTypeAuction
	var counts models.AuctionCounts
	if err := applyScope(r.model(ctx), scope).Where("auction_end_date > ?", now).Count(&counts.Live).Error; err != nil {
		return counts, fmt.Errorf("failed to count live auctions: %w", err)
	}
	if err := applyScope(r.model(ctx), scope).Where("auction_end_date IS NULL OR auction_end_date <= ?", now).Count(&counts.Ended).Error; err != nil {
		return counts, fmt.Errorf("failed to count ended auctions: %w", err)
	}
	return counts, nil
}

// CountStock summarizes stock levels and discounts across scope.
func (r *GORMProductRepository) CountStock(ctx context.Context, scope Scope) (models.StockCounts, error) {
	var counts models.StockCounts
	sel := "COALESCE(SUM(CASE WHEN stocks > 0 THEN 1 ELSE 0 END), 0) AS in_stock, " +
		"COALESCE(SUM(CASE WHEN stocks <= 0 THEN 1 ELSE 0 END), 0) AS out_of_stock, " +
		"COALESCE(SUM(CASE WHEN discount > 0 THEN 1 ELSE 0 END), 0) AS discounted"
	if err := applyScope(r.model(ctx), scope).Select(sel).Scan(&counts).Error; err != nil {
		return counts, fmt.Errorf("failed to count stock: %w", err)
	}
	return counts, nil
}

// applySpec translates a query.Spec into WHERE clauses.
func applySpec(db *gorm.DB, spec query.Spec) *gorm.DB {
	db = db.Where("auction_type = ? AND status = ? AND is_active = ?", spec.Variant, models.StatusActive, true)
	if spec.Category != "" {
		db = db.Where("category = ?", spec.Category)
	}
	if spec.Condition != "" {
		db = db.Where("condition = ?", spec.Condition)
	}
	if spec.Brand != "" {
		db = db.Where("LOWER(brand) LIKE ?"+likeEscape, contains(spec.Brand))
	}
	col := models.PriceColumn(spec.Variant)
	if spec.MinPrice != nil {
		db = db.Where(col+" >= ?", *spec.MinPrice)
	}
	if spec.MaxPrice != nil {
		db = db.Where(col+" <= ?", *spec.MaxPrice)
	}
	if spec.Search != "" {
		// search_text is folded in Go, so non-ASCII letters match on sqlite too
		db = db.Where("search_text LIKE ?"+likeEscape, contains(spec.Search))
	}
	if spec.SellerID != "" {
		db = db.Where("seller_id = ?", spec.SellerID)
	}
	if aff := spec.Affinity; !aff.Empty() {
		cats := make([]string, 0, len(aff.Categories))
		for _, c := range aff.Categories {
			cats = append(cats, string(c))
		}
		brands := lowerUnique(aff.Brands)
		switch {
		case len(cats) > 0 && len(brands) > 0:
			db = db.Where("(category IN ? OR LOWER(brand) IN ?)", cats, brands)
		case len(cats) > 0:
			db = db.Where("category IN ?", cats)
		default:
			db = db.Where("LOWER(brand) IN ?", brands)
		}
	}
	if spec.ExcludeID != "" {
		db = db.Where("id <> ?", spec.ExcludeID)
	}
	if spec.ExcludeSeller != "" {
		db = db.Where("seller_id <> ?", spec.ExcludeSeller)
	}
	if spec.FeaturedOnly {
		db = db.Where("is_featured = ?", true)
	}
	if spec.EndsAfter != nil {
		db = db.Where("auction_end_date > ?", *spec.EndsAfter)
	}
	if spec.EndsNotAfter != nil {
		db = db.Where("(auction_end_date IS NULL OR auction_end_date <= ?)", *spec.EndsNotAfter)
	}
	return db
}

func applyOrder(db *gorm.DB, orders []query.Order) *gorm.DB {
	for _, o := range orders {
		expr := o.Column
		switch expr {
		case "title":
			expr = "LOWER(title)"
		case "auction_end_date":
			// nulls last on both sqlite and postgres
			db = db.Order("auction_end_date IS NULL")
		}
		if o.Desc {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		db = db.Order(expr)
	}
	return db
}

func applyScope(db *gorm.DB, scope Scope) *gorm.DB {
	if scope.Variant != "" {
		db = db.Where("auction_type = ?", scope.Variant)
	}
	if scope.SellerID != "" {
		db = db.Where("seller_id = ?", scope.SellerID)
	}
	if scope.ActiveOnly {
		db = db.Where("status = ? AND is_active = ?", models.StatusActive, true)
	}
	return db
}

// priceExpr is the base price column, or a per-row choice when the scope
// spans every variant.
func priceExpr(variant models.AuctionType) string {
	if variant == "" {
		return fmt.Sprintf("CASE WHEN auction_type = '%s' THEN starting_bid ELSE price END", models.AuctionTypeAuction)
	}
	return models.PriceColumn(variant)
}

func contains(term string) string {
	return "%" + query.EscapeLike(term) + "%"
}

func lowerUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
