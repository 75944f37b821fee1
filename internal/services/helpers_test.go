package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"royalbid/internal/logging"
	"royalbid/internal/models"
	"royalbid/internal/repositories"
	"royalbid/internal/services"
)

var (
	ctx     = context.Background()
	fixedAt = time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)
	seller  = services.Actor{UserID: "seller-1", Username: "ana", Role: models.RoleSeller}
	other   = services.Actor{UserID: "seller-2", Username: "ben", Role: models.RoleSeller}
	admin   = services.Actor{UserID: "admin-1", Username: "root", Role: models.RoleAdmin}
)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

// MockPublisher records published catalog events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

// MockCache is a mock implementation of services.MetadataCache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *MockCache) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(pattern)
	return args.Error(0)
}

type fixture struct {
	repo      *repositories.MockProductRepository
	filters   *services.FilterMetadata
	catalog   *services.CatalogService
	products  *services.ProductService
	analytics *services.AnalyticsService
}

func newFixture(pub services.EventPublisher) *fixture {
	log := logging.Discard()
	repo := repositories.NewMockProductRepository()
	filters := services.NewFilterMetadata(repo, nil, log)
	f := &fixture{
		repo:      repo,
		filters:   filters,
		catalog:   services.NewCatalogService(repo, filters, log),
		products:  services.NewProductService(repo, filters, pub, log),
		analytics: services.NewAnalyticsService(repo, log),
	}
	f.catalog.Now = clock(fixedAt)
	f.products.Now = clock(fixedAt)
	f.analytics.Now = clock(fixedAt)
	return f
}

func (f *fixture) add(t *testing.T, p models.Product) models.Product {
	t.Helper()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SellerID == "" {
		p.SellerID = seller.UserID
	}
	if p.Status == "" {
		p.Status = models.StatusActive
		p.IsActive = true
	}
	if p.Category == "" {
		p.Category = models.CategoryElectronics
	}
	if p.Condition == "" {
		p.Condition = models.ConditionNew
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = fixedAt.Add(-time.Hour)
	}
	require.NoError(t, f.repo.Create(ctx, &p))
	return p
}

func retailItem(title string, price float64) models.Product {
	return models.Product{AuctionType: models.AuctionTypeRetail, Title: title, Price: price, Stocks: 3}
}

func auctionItem(title string, bid float64, endsIn time.Duration) models.Product {
	end := fixedAt.Add(endsIn)
	return models.Product{AuctionType: models.AuctionTypeAuction, Title: title, StartingBid: bid, AuctionEndDate: &end}
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }
func str(v string) *string    { return &v }
func boolp(v bool) *bool      { return &v }
