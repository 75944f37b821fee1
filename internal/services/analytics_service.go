package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"royalbid/internal/derive"
	"royalbid/internal/models"
	"royalbid/internal/query"
	"royalbid/internal/repositories"
)

// PriceBoundaries are the lower bounds of the price distribution buckets;
// the last bucket is unbounded.
var PriceBoundaries = []float64{0, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

const (
	trendMonths     = 12
	recentLimit     = 5
	endingSoonLimit = 5
)

// Dashboard is the per-variant statistics view of one seller, or of the
// whole catalog when no seller is given.
type Dashboard struct {
	Overview       models.PriceSummary   `json:"overview"`
	ByCategory     []models.CategoryStat `json:"byCategory"`
	RecentProducts []derive.View         `json:"recentProducts"`
	StatusCounts   models.StatusCounts   `json:"statusCounts"`
	MonthlyTrend   []models.MonthlyCount `json:"monthlyTrend"`

	// Retail
	PriceDistribution []models.PriceBucket `json:"priceDistribution,omitempty"`
	Stock             *models.StockCounts  `json:"stock,omitempty"`

	// Auction
	Auctions   *models.AuctionCounts `json:"auctions,omitempty"`
	EndingSoon []derive.View         `json:"endingSoon,omitempty"`
}

// AnalyticsService computes catalog statistics and recommendations.
type AnalyticsService struct {
	repo repositories.ProductRepository
	log  logrus.FieldLogger

	// Now anchors the monthly trend and auction state.
	Now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(repo repositories.ProductRepository, log logrus.FieldLogger) *AnalyticsService {
	return &AnalyticsService{
		repo: repo,
		log:  log,
		Now:  func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard computes the statistics of variant, scoped to sellerID unless it
// is empty.
func (s *AnalyticsService) Dashboard(ctx context.Context, variant models.AuctionType, sellerID string) (*Dashboard, error) {
	if !variant.Valid() {
		return nil, invalidField("auctionType", "unknown variant")
	}
	now := s.Now()
	active := repositories.Scope{Variant: variant, SellerID: sellerID, ActiveOnly: true}
	all := repositories.Scope{Variant: variant, SellerID: sellerID}

	d := &Dashboard{}
	var err error
	if d.Overview, err = s.repo.Summarize(ctx, active); err != nil {
		return nil, err
	}
	d.Overview.AveragePrice = round2(d.Overview.AveragePrice)
	d.Overview.TotalValue = round2(d.Overview.TotalValue)

	if d.ByCategory, err = s.repo.CategoryBreakdown(ctx, active); err != nil {
		return nil, err
	}
	for i := range d.ByCategory {
		d.ByCategory[i].AveragePrice = round2(d.ByCategory[i].AveragePrice)
		d.ByCategory[i].TotalValue = round2(d.ByCategory[i].TotalValue)
	}

	if d.RecentProducts, err = s.recent(ctx, variant, sellerID, now); err != nil {
		return nil, err
	}
	if d.StatusCounts, err = s.repo.CountByStatus(ctx, all); err != nil {
		return nil, err
	}
	if d.MonthlyTrend, err = s.MonthlyTrend(ctx, all); err != nil {
		return nil, err
	}

	switch variant {
	case models.AuctionTypeRetail:
		if d.PriceDistribution, err = s.repo.PriceHistogram(ctx, active, PriceBoundaries); err != nil {
			return nil, err
		}
		for i := range d.PriceDistribution {
			d.PriceDistribution[i].AveragePrice = round2(d.PriceDistribution[i].AveragePrice)
		}
		stock, err := s.repo.CountStock(ctx, active)
		if err != nil {
			return nil, err
		}
		d.Stock = &stock
	case models.AuctionTypeAuction:
		counts, err := s.repo.CountAuctions(ctx, active, now)
		if err != nil {
			return nil, err
		}
		d.Auctions = &counts
		if d.EndingSoon, err = s.endingSoon(ctx, sellerID, now); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (s *AnalyticsService) recent(ctx context.Context, variant models.AuctionType, sellerID string, now time.Time) ([]derive.View, error) {
	var products []models.Product
	var err error
	if sellerID != "" {
		products, _, err = s.repo.ListBySeller(ctx, sellerID, repositories.SellerFilter{Variant: variant}, 0, recentLimit)
	} else {
		products, _, err = s.repo.Find(ctx, query.ForVariant(variant), 0, recentLimit)
	}
	if err != nil {
		return nil, err
	}
	return derive.DeriveAll(products, variant, now)
}

func (s *AnalyticsService) endingSoon(ctx context.Context, sellerID string, now time.Time) ([]derive.View, error) {
	spec := query.ForVariant(models.AuctionTypeAuction)
	spec.SellerID = sellerID
	spec.EndsAfter = &now
	spec.Sort = query.SortEndingSoon
	products, _, err := s.repo.Find(ctx, spec, 0, endingSoonLimit)
	if err != nil {
		return nil, err
	}
	return derive.DeriveAll(products, models.AuctionTypeAuction, now)
}

// MonthlyTrend counts creations per calendar month (UTC) over the trailing
// twelve months, current month included, oldest first. Months without
// creations are reported as zero.
func (s *AnalyticsService) MonthlyTrend(ctx context.Context, scope repositories.Scope) ([]models.MonthlyCount, error) {
	now := s.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)

	times, err := s.repo.CreatedTimes(ctx, scope, start)
	if err != nil {
		return nil, err
	}

	trend := make([]models.MonthlyCount, trendMonths)
	index := make(map[[2]int]int, trendMonths)
	for i := 0; i < trendMonths; i++ {
		m := start.AddDate(0, i, 0)
		trend[i] = models.MonthlyCount{Year: m.Year(), Month: int(m.Month())}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}
	for _, t := range times {
		t = t.UTC()
		if i, ok := index[[2]int{t.Year(), int(t.Month())}]; ok {
			trend[i].Count++
		}
	}
	return trend, nil
}

// Recommendations returns other sellers' active products sharing a category
// or brand with userID's own listings, most viewed first. With no affinity
// or no match it falls back to the most popular products.
func (s *AnalyticsService) Recommendations(ctx context.Context, variant models.AuctionType, userID string, limit int) ([]derive.View, error) {
	if !variant.Valid() {
		return nil, invalidField("auctionType", "unknown variant")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	spec := query.ForVariant(variant)
	spec.ExcludeSeller = userID
	spec.Sort = query.SortPopular

	aff, err := s.repo.SellerAffinity(ctx, userID, variant)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if !aff.Empty() {
		matched := spec
		matched.Affinity = &aff
		if products, _, err = s.repo.Find(ctx, matched, 0, limit); err != nil {
			return nil, err
		}
	}
	if len(products) == 0 {
		s.log.WithFields(logrus.Fields{"user_id": userID, "variant": variant}).Debug("recommendations fell back to popular")
		if products, _, err = s.repo.Find(ctx, spec, 0, limit); err != nil {
			return nil, err
		}
	}
	return derive.DeriveAll(products, variant, s.Now())
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
