// Package query turns catalog filter requests into a normalized, store
// agnostic predicate and sort order scoped to one variant partition.
package query

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"royalbid/internal/models"
)

// MinSearchLength is the shortest accepted free-text search, in characters.
const MinSearchLength = 2

// ErrSearchQueryTooShort is returned for searches under MinSearchLength.
var ErrSearchQueryTooShort = errors.New("search query must be at least 2 characters")

// FilterError reports an invalid filter value.
type FilterError struct {
	Field   string
	Message string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Message)
}

// AuctionStatusFilter restricts auction listings by their derived state.
type AuctionStatusFilter string

const (
	AuctionStatusAny   AuctionStatusFilter = ""
	AuctionStatusLive  AuctionStatusFilter = "live"
	AuctionStatusEnded AuctionStatusFilter = "ended"
)

// Filters is the raw, optional filter input of a listing request.
type Filters struct {
	Category      string
	Condition     string
	Brand         string
	MinPrice      *float64
	MaxPrice      *float64
	Search        string
	Sort          string
	AuctionStatus string
}

// Affinity matches products in any of the categories or brands.
type Affinity struct {
	Categories []models.Category
	Brands     []string
}

// Empty reports whether the affinity set has nothing to match on.
func (a *Affinity) Empty() bool {
	return a == nil || (len(a.Categories) == 0 && len(a.Brands) == 0)
}

// Spec is a built query. Its zero-value optional fields match everything.
type Spec struct {
	Variant   models.AuctionType
	Category  models.Category
	Condition models.Condition
	Brand     string // lower-cased substring
	MinPrice  *float64
	MaxPrice  *float64
	Search    string // lower-cased substring

	SellerID      string
	Affinity      *Affinity
	ExcludeID     string
	ExcludeSeller string
	FeaturedOnly  bool

	// EndsAfter keeps auctions whose end date is after the instant (live);
	// EndsNotAfter keeps those ending at or before it (ended).
	EndsAfter    *time.Time
	EndsNotAfter *time.Time

	Sort SortKey
}

// ForVariant is the public scope of a variant: active, visible products of
// that variant sorted newest first.
func ForVariant(variant models.AuctionType) Spec {
	return Spec{Variant: variant, Sort: SortNewest}
}

// Build validates f and produces the Spec for the variant. now anchors the
// auction status filter.
func Build(variant models.AuctionType, f Filters, now time.Time) (Spec, error) {
	if !variant.Valid() {
		return Spec{}, &FilterError{Field: "auctionType", Message: fmt.Sprintf("unknown variant %q", variant)}
	}
	spec := ForVariant(variant)

	if c := strings.TrimSpace(f.Category); c != "" {
		cat := models.Category(strings.ToLower(c))
		if !cat.Valid() {
			return Spec{}, &FilterError{Field: "category", Message: fmt.Sprintf("unknown category %q", c)}
		}
		spec.Category = cat
	}
	if c := strings.TrimSpace(f.Condition); c != "" {
		cond := models.Condition(strings.ToLower(c))
		if !cond.Valid() {
			return Spec{}, &FilterError{Field: "condition", Message: fmt.Sprintf("unknown condition %q", c)}
		}
		spec.Condition = cond
	}
	spec.Brand = strings.ToLower(strings.TrimSpace(f.Brand))

	if f.MinPrice != nil && !finite(*f.MinPrice) {
		return Spec{}, &FilterError{Field: "minPrice", Message: "must be a finite number"}
	}
	if f.MaxPrice != nil && !finite(*f.MaxPrice) {
		return Spec{}, &FilterError{Field: "maxPrice", Message: "must be a finite number"}
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return Spec{}, &FilterError{Field: "minPrice", Message: "must be >= 0"}
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return Spec{}, &FilterError{Field: "maxPrice", Message: "must be >= 0"}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return Spec{}, &FilterError{Field: "minPrice", Message: "must not exceed maxPrice"}
	}
	spec.MinPrice, spec.MaxPrice = f.MinPrice, f.MaxPrice

	if f.Search != "" {
		term, err := NormalizeSearch(f.Search)
		if err != nil {
			return Spec{}, err
		}
		spec.Search = term
	}

	switch AuctionStatusFilter(strings.ToLower(strings.TrimSpace(f.AuctionStatus))) {
	case AuctionStatusAny:
	case AuctionStatusLive:
		if variant == models.AuctionTypeAuction {
			spec.EndsAfter = &now
		}
	case AuctionStatusEnded:
		if variant == models.AuctionTypeAuction {
			spec.EndsNotAfter = &now
		}
	default:
		return Spec{}, &FilterError{Field: "auctionStatus", Message: "must be live or ended"}
	}

	spec.Sort = ParseSort(f.Sort, variant)
	return spec, nil
}

// NormalizeSearch trims and lower-cases a search term, rejecting terms that
// are shorter than MinSearchLength characters or carry control characters.
func NormalizeSearch(raw string) (string, error) {
	term := strings.TrimSpace(raw)
	if utf8.RuneCountInString(term) < MinSearchLength {
		return "", ErrSearchQueryTooShort
	}
	if strings.ContainsFunc(term, unicode.IsControl) {
		return "", &FilterError{Field: "search", Message: "must not contain control characters"}
	}
	return strings.ToLower(term), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Matches evaluates the predicate against a single product.
func (s Spec) Matches(p *models.Product) bool {
	if p.AuctionType != s.Variant || !p.IsPubliclyVisible() {
		return false
	}
	if s.Category != "" && p.Category != s.Category {
		return false
	}
	if s.Condition != "" && p.Condition != s.Condition {
		return false
	}
	if s.Brand != "" && !strings.Contains(strings.ToLower(p.Brand), s.Brand) {
		return false
	}
	base := p.BasePrice()
	if s.MinPrice != nil && base < *s.MinPrice {
		return false
	}
	if s.MaxPrice != nil && base > *s.MaxPrice {
		return false
	}
	if s.Search != "" && !matchesSearch(p, s.Search) {
		return false
	}
	if s.SellerID != "" && p.SellerID != s.SellerID {
		return false
	}
	if !s.Affinity.Empty() && !matchesAffinity(p, s.Affinity) {
		return false
	}
	if s.ExcludeID != "" && p.ID == s.ExcludeID {
		return false
	}
	if s.ExcludeSeller != "" && p.SellerID == s.ExcludeSeller {
		return false
	}
	if s.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if s.EndsAfter != nil && (p.AuctionEndDate == nil || !p.AuctionEndDate.After(*s.EndsAfter)) {
		return false
	}
	if s.EndsNotAfter != nil && p.AuctionEndDate != nil && p.AuctionEndDate.After(*s.EndsNotAfter) {
		return false
	}
	return true
}

func matchesSearch(p *models.Product, term string) bool {
	return strings.Contains(p.SearchDocument(), term)
}

func matchesAffinity(p *models.Product, a *Affinity) bool {
	for _, c := range a.Categories {
		if p.Category == c {
			return true
		}
	}
	brand := strings.ToLower(p.Brand)
	for _, b := range a.Brands {
		if brand == strings.ToLower(b) {
			return true
		}
	}
	return false
}

// EscapeLike escapes the LIKE wildcards of a literal, using '\' as escape.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
