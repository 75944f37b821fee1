package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"royalbid/internal/derive"
	"royalbid/internal/models"
	"royalbid/internal/repositories"
)

// SellerListParams narrows a seller's own listing.
type SellerListParams struct {
	AuctionType string
	Status      string
	PageRequest
}

// ProductService handles seller and moderator writes to the catalog.
type ProductService struct {
	repo      repositories.ProductRepository
	filters   *FilterMetadata
	publisher EventPublisher
	validate  *validator.Validate
	log       logrus.FieldLogger

	// Now is the clock auction end dates are checked against.
	Now func() time.Time
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, filters *FilterMetadata, publisher EventPublisher, log logrus.FieldLogger) *ProductService {
	return &ProductService{
		repo:      repo,
		filters:   filters,
		publisher: publisher,
		validate:  NewValidator(),
		log:       log,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateProduct validates the variant rules and stores a new listing in
// pending_review.
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*derive.View, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	now := s.Now()

	images, err := normalizeImages(in.Images)
	if err != nil {
		return nil, err
	}
	p := &models.Product{
		ID:          uuid.New().String(),
		SellerID:    actor.UserID,
		AuctionType: in.AuctionType,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Condition:   in.Condition,
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		Tags:        normalizeTags(in.Tags),
		Images:      images,
		Status:      models.StatusPendingReview,
		IsActive:    true,
		CreatedAt:   now,
	}

	switch in.AuctionType {
	case models.AuctionTypeAuction:
		if err := checkFutureEnd(*in.AuctionEndDate, now); err != nil {
			return nil, err
		}
		if in.Price != nil || in.Stocks != nil || in.Discount != nil {
			return nil, notApplicable(in.AuctionType, in.Price, in.Stocks, in.Discount)
		}
		end := in.AuctionEndDate.UTC()
		p.StartingBid = *in.StartingBid
		p.AuctionEndDate = &end
	default:
		if in.StartingBid != nil || in.AuctionEndDate != nil {
			return nil, notApplicable(in.AuctionType, in.StartingBid, in.AuctionEndDate)
		}
		p.Price = *in.Price
		if in.Stocks != nil {
			p.Stocks = *in.Stocks
		}
		if in.Discount != nil {
			p.Discount = *in.Discount
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, EventProductCreated, p, actor, now)
	return s.view(p, now)
}

// UpdateProduct applies a partial update on behalf of the owner or an admin.
// The variant of a listing never changes.
func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, id string, in ProductUpdate) (*derive.View, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.AuctionType != nil && *in.AuctionType != p.AuctionType {
		return nil, invalidField("auctionType", "cannot be changed after creation")
	}
	now := s.Now()

	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Condition != nil {
		p.Condition = *in.Condition
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.Model != nil {
		p.Model = strings.TrimSpace(*in.Model)
	}
	if in.Tags != nil {
		p.Tags = normalizeTags(in.Tags)
	}
	if in.Images != nil {
		images, err := normalizeImages(in.Images)
		if err != nil {
			return nil, err
		}
		p.Images = images
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	switch p.AuctionType {
	case models.AuctionTypeAuction:
		if in.Price != nil || in.Stocks != nil || in.Discount != nil {
			return nil, notApplicable(p.AuctionType, in.Price, in.Stocks, in.Discount)
		}
		if in.StartingBid != nil {
			p.StartingBid = *in.StartingBid
		}
		if in.AuctionEndDate != nil {
			if err := checkFutureEnd(*in.AuctionEndDate, now); err != nil {
				return nil, err
			}
			end := in.AuctionEndDate.UTC()
			p.AuctionEndDate = &end
		}
	default:
		if in.StartingBid != nil || in.AuctionEndDate != nil {
			return nil, notApplicable(p.AuctionType, in.StartingBid, in.AuctionEndDate)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Stocks != nil {
			p.Stocks = *in.Stocks
		}
		if in.Discount != nil {
			p.Discount = *in.Discount
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, EventProductUpdated, p, actor, now)
	return s.view(p, now)
}

// DeleteProduct soft-deletes a listing of the owner, or any listing for an
// admin.
func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, EventProductDeleted, p, actor, s.Now())
	return nil
}

// SetStatus records a moderation decision. Admin only.
func (s *ProductService) SetStatus(ctx context.Context, actor Actor, id string, in StatusUpdate) (*derive.View, error) {
	if !actor.IsAdmin() {
		return nil, &ForbiddenError{Message: "only admins can moderate products"}
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = in.Status
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	now := s.Now()
	s.afterWrite(ctx, EventProductStatusChanged, p, actor, now)
	return s.view(p, now)
}

// ListMine lists the caller's own products in any moderation state.
func (s *ProductService) ListMine(ctx context.Context, actor Actor, params SellerListParams) (*ProductList, error) {
	if err := params.PageRequest.validate(); err != nil {
		return nil, err
	}
	var filter repositories.SellerFilter
	if params.AuctionType != "" {
		variant, ok := models.ParseAuctionType(params.AuctionType)
		if !ok {
			return nil, invalidField("auctionType", fmt.Sprintf("unknown variant %q", params.AuctionType))
		}
		filter.Variant = variant
	}
	if params.Status != "" {
		status := models.ProductStatus(params.Status)
		if !status.Valid() {
			return nil, invalidField("status", fmt.Sprintf("unknown status %q", params.Status))
		}
		filter.Status = status
	}

	pagination := models.NewPagination(params.Page, params.Limit, 0)
	products, total, err := s.repo.ListBySeller(ctx, actor.UserID, filter, pagination.Offset(), params.Limit)
	if err != nil {
		return nil, err
	}
	views, err := derive.DeriveMixed(products, s.Now())
	if err != nil {
		return nil, err
	}
	return &ProductList{
		Products:   views,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}

// GetMine returns one of the caller's products in any moderation state.
// Admins may read any product.
func (s *ProductService) GetMine(ctx context.Context, actor Actor, id string) (*derive.View, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: %s", repositories.ErrProductNotFound, id)
	}
	return s.view(p, s.Now())
}

func (s *ProductService) owned(ctx context.Context, actor Actor, id string) (*models.Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != actor.UserID && !actor.IsAdmin() {
		return nil, &ForbiddenError{Message: "you can only modify your own products"}
	}
	return p, nil
}

func (s *ProductService) afterWrite(ctx context.Context, kind string, p *models.Product, actor Actor, at time.Time) {
	s.filters.Invalidate(ctx)
	publish(ctx, s.publisher, s.log, newProductEvent(kind, p, actor, at))
	s.log.WithFields(logrus.Fields{
		"event":        kind,
		"product_id":   p.ID,
		"auction_type": p.AuctionType,
		"actor_id":     actor.UserID,
	}).Info("catalog write")
}

func (s *ProductService) view(p *models.Product, now time.Time) (*derive.View, error) {
	v, err := derive.Derive(p, p.AuctionType, now)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalidField("id", "must be a valid UUID")
	}
	return nil
}

func checkFutureEnd(end, now time.Time) error {
	if !end.After(now) {
		return invalidField("auctionEndDate", "must be in the future")
	}
	return nil
}

// notApplicable reports the first set field that the variant does not use.
func notApplicable(variant models.AuctionType, fields ...interface{}) error {
	names := map[models.AuctionType][]string{
		models.AuctionTypeAuction:   {"price", "stocks", "discount"},
		models.AuctionTypeRetail:    {"startingBid", "auctionEndDate"},
		models.AuctionTypeAntiPiece: {"startingBid", "auctionEndDate"},
	}[variant]
	ve := &ValidationError{Message: "Validation failed", Fields: map[string]string{}}
	for i, f := range fields {
		if i < len(names) && !isNilPtr(f) {
			ve.Fields[names[i]] = fmt.Sprintf("not applicable to %s products", variant)
		}
	}
	return ve
}

func isNilPtr(v interface{}) bool {
	switch p := v.(type) {
	case *float64:
		return p == nil
	case *int:
		return p == nil
	case *time.Time:
		return p == nil
	}
	return v == nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// normalizeImages keeps the gallery order and makes sure exactly one image is
// primary, defaulting to the first.
func normalizeImages(images []models.ProductImage) ([]models.ProductImage, error) {
	out := append([]models.ProductImage{}, images...)
	primaries := 0
	for _, img := range out {
		if img.IsPrimary {
			primaries++
		}
	}
	switch {
	case primaries > 1:
		return nil, invalidField("images", "at most one image can be primary")
	case primaries == 0 && len(out) > 0:
		out[0].IsPrimary = true
	}
	return out, nil
}
