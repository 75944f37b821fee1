package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"royalbid/internal/derive"
	"royalbid/internal/metrics"
	"royalbid/internal/models"
	"royalbid/internal/query"
	"royalbid/internal/repositories"
)

// Paging limits of listing endpoints.
const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
	DefaultTopLimit  = 8
	RelatedLimit     = 4
)

// PageRequest is a 1-based page of a listing.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) validate() error {
	if p.Page < 1 {
		return invalidField("page", "must be >= 1")
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return invalidField("limit", fmt.Sprintf("must be between 1 and %d", MaxPageLimit))
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 1 || limit > MaxPageLimit {
		return invalidField("limit", fmt.Sprintf("must be between 1 and %d", MaxPageLimit))
	}
	return nil
}

// ProductList is one page of derived products.
type ProductList struct {
	Products   []derive.View         `json:"products"`
	Pagination models.Pagination     `json:"pagination"`
	Filters    *models.FilterOptions `json:"filters,omitempty"`
	Category   models.Category       `json:"category,omitempty"`
	Query      string                `json:"query,omitempty"`
}

// ProductDetail is a product together with related listings.
type ProductDetail struct {
	Product         derive.View   `json:"product"`
	RelatedProducts []derive.View `json:"relatedProducts"`
}

// CatalogService serves the public, per-variant catalog.
type CatalogService struct {
	repo    repositories.ProductRepository
	filters *FilterMetadata
	log     logrus.FieldLogger

	// Now is the clock derived fields and auction filters are evaluated at.
	Now func() time.Time
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository, filters *FilterMetadata, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		filters: filters,
		log:     log,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

func filterError(err error) error {
	var fe *query.FilterError
	switch {
	case errors.As(err, &fe):
		return invalidField(fe.Field, fe.Message)
	case errors.Is(err, query.ErrSearchQueryTooShort):
		return invalidField("q", err.Error())
	}
	return err
}

// page runs spec and derives the products of the requested page.
func (s *CatalogService) page(ctx context.Context, spec query.Spec, req PageRequest, now time.Time) (*ProductList, error) {
	pagination := models.NewPagination(req.Page, req.Limit, 0)
	products, total, err := s.repo.Find(ctx, spec, pagination.Offset(), req.Limit)
	if err != nil {
		return nil, err
	}
	views, err := derive.DeriveAll(products, spec.Variant, now)
	if err != nil {
		return nil, err
	}
	return &ProductList{
		Products:   views,
		Pagination: models.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// List returns a filtered, sorted page plus the partition's filter metadata.
func (s *CatalogService) List(ctx context.Context, variant models.AuctionType, f query.Filters, req PageRequest) (*ProductList, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := s.Now()
	spec, err := query.Build(variant, f, now)
	if err != nil {
		return nil, filterError(err)
	}
	if spec.Search != "" {
		metrics.RecordSearch(string(variant))
	}

	list, err := s.page(ctx, spec, req, now)
	if err != nil {
		return nil, err
	}
	opts, err := s.filters.Get(ctx, variant)
	if err != nil {
		return nil, err
	}
	list.Filters = &opts
	return list, nil
}

// Featured returns up to limit featured products, newest first.
func (s *CatalogService) Featured(ctx context.Context, variant models.AuctionType, limit int) ([]derive.View, error) {
	spec := query.ForVariant(variant)
	spec.FeaturedOnly = true
	return s.top(ctx, spec, limit)
}

// Popular returns up to limit products by view count.
func (s *CatalogService) Popular(ctx context.Context, variant models.AuctionType, limit int) ([]derive.View, error) {
	spec := query.ForVariant(variant)
	spec.Sort = query.SortPopular
	return s.top(ctx, spec, limit)
}

func (s *CatalogService) top(ctx context.Context, spec query.Spec, limit int) ([]derive.View, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	if !spec.Variant.Valid() {
		return nil, invalidField("auctionType", fmt.Sprintf("unknown variant %q", spec.Variant))
	}
	products, _, err := s.repo.Find(ctx, spec, 0, limit)
	if err != nil {
		return nil, err
	}
	return derive.DeriveAll(products, spec.Variant, s.Now())
}

// ByCategory lists one category of the variant.
func (s *CatalogService) ByCategory(ctx context.Context, variant models.AuctionType, category string, f query.Filters, req PageRequest) (*ProductList, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	f.Category = category
	now := s.Now()
	spec, err := query.Build(variant, f, now)
	if err != nil {
		return nil, filterError(err)
	}
	list, err := s.page(ctx, spec, req, now)
	if err != nil {
		return nil, err
	}
	list.Category = spec.Category
	return list, nil
}

// Search runs a free-text search. Unlike List, the term is mandatory.
func (s *CatalogService) Search(ctx context.Context, variant models.AuctionType, q string, f query.Filters, req PageRequest) (*ProductList, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := query.NormalizeSearch(q); err != nil {
		return nil, filterError(err)
	}
	f.Search = q
	now := s.Now()
	spec, err := query.Build(variant, f, now)
	if err != nil {
		return nil, filterError(err)
	}
	metrics.RecordSearch(string(variant))

	list, err := s.page(ctx, spec, req, now)
	if err != nil {
		return nil, err
	}
	list.Query = strings.TrimSpace(q)
	return list, nil
}

// GetByID returns a publicly visible product of the variant and counts the
// view. Anything else, including products of another variant, is not found.
func (s *CatalogService) GetByID(ctx context.Context, variant models.AuctionType, id string) (*ProductDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalidField("id", "must be a valid UUID")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuctionType != variant || !p.IsPubliclyVisible() {
		return nil, fmt.Errorf("%w: %s", repositories.ErrProductNotFound, id)
	}

	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, err
		}
		s.log.WithError(err).WithField("product_id", id).Warn("failed to count product view")
	} else {
		p.ViewCount++
		metrics.RecordProductView(string(variant))
	}

	now := s.Now()
	view, err := derive.Derive(p, variant, now)
	if err != nil {
		return nil, err
	}

	related := query.ForVariant(variant)
	related.Category = p.Category
	related.ExcludeID = p.ID
	related.Sort = query.SortPopular
	relatedProducts, _, err := s.repo.Find(ctx, related, 0, RelatedLimit)
	if err != nil {
		return nil, err
	}
	relatedViews, err := derive.DeriveAll(relatedProducts, variant, now)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{Product: view, RelatedProducts: relatedViews}, nil
}
