// Package derive computes the read-time fields of a catalog product: its
// effective price, the state of an auction and the presentation framing of
// collectible pieces. Nothing here touches storage.
package derive

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"royalbid/internal/models"
)

// ErrInvariantViolation is returned when a product is derived under a variant
// it does not belong to. Callers filter by auction type first.
var ErrInvariantViolation = errors.New("invariant violation")

// AuctionState is the derived lifecycle state of an auction.
type AuctionState string

const (
	AuctionLive  AuctionState = "live"
	AuctionEnded AuctionState = "ended"
)

// AgeLabelVintage frames Anti-Piece listings.
const AgeLabelVintage = "Vintage"

// ExpiredLabel is the time-left text of an auction that has ended.
const ExpiredLabel = "Expired"

var hundred = decimal.NewFromInt(100)

// View is a product together with its derived fields.
type View struct {
	models.Product
	EffectivePrice  float64      `json:"effectivePrice"`
	HasDiscount     bool         `json:"hasDiscount"`
	AuctionStatus   AuctionState `json:"auctionStatus,omitempty"`
	TimeLeft        string       `json:"timeLeft,omitempty"`
	TimeLeftSeconds *int64       `json:"timeLeftSeconds,omitempty"`
	AgeLabel        string       `json:"ageLabel,omitempty"`
}

// EffectivePrice is the discounted base price, truncated to cents so that a
// positive discount always yields a strictly lower price. Auctions ignore the
// discount field.
func EffectivePrice(p *models.Product) float64 {
	base := decimal.NewFromFloat(p.BasePrice())
	if !base.IsPositive() {
		return 0
	}
	if p.AuctionType == models.AuctionTypeAuction {
		return base.InexactFloat64()
	}
	discount := clampDiscount(p.Discount)
	if !discount.IsPositive() {
		return base.InexactFloat64()
	}
	return base.Mul(hundred.Sub(discount)).Div(hundred).Truncate(2).InexactFloat64()
}

func clampDiscount(d float64) decimal.Decimal {
	if math.IsNaN(d) || d <= 0 {
		return decimal.Zero
	}
	if d >= 100 {
		return hundred
	}
	return decimal.NewFromFloat(d)
}

// Status is live while the end date is strictly after now.
func Status(end *time.Time, now time.Time) AuctionState {
	if end != nil && end.After(now) {
		return AuctionLive
	}
	return AuctionEnded
}

// TimeLeft is the non-negative time until end.
func TimeLeft(end *time.Time, now time.Time) time.Duration {
	if end == nil {
		return 0
	}
	if d := end.Sub(now); d > 0 {
		return d
	}
	return 0
}

// FormatTimeLeft renders d coarsely: "2d 3h", "2h 0m", "45m 10s", "9s".
// Partial seconds round up so a live auction never reads as zero.
func FormatTimeLeft(d time.Duration) string {
	total := ceilSeconds(d)
	if total <= 0 {
		return ExpiredLabel
	}
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

// Derive builds the view of p for the given variant at time now.
func Derive(p *models.Product, variant models.AuctionType, now time.Time) (View, error) {
	if p == nil {
		return View{}, fmt.Errorf("%w: nil product", ErrInvariantViolation)
	}
	if p.AuctionType != variant {
		return View{}, fmt.Errorf("%w: product %s is %q, derived as %q", ErrInvariantViolation, p.ID, p.AuctionType, variant)
	}

	v := View{Product: *p, EffectivePrice: EffectivePrice(p)}
	switch p.AuctionType {
	case models.AuctionTypeRetail:
		v.HasDiscount = p.Discount > 0
	case models.AuctionTypeAntiPiece:
		v.HasDiscount = p.Discount > 0
		v.AgeLabel = AgeLabelVintage
	case models.AuctionTypeAuction:
		left := TimeLeft(p.AuctionEndDate, now)
		secs := ceilSeconds(left)
		v.AuctionStatus = Status(p.AuctionEndDate, now)
		v.TimeLeft = FormatTimeLeft(left)
		v.TimeLeftSeconds = &secs
	default:
		return View{}, fmt.Errorf("%w: unknown auction type %q", ErrInvariantViolation, p.AuctionType)
	}
	return v, nil
}

// DeriveAll derives every product of a single-variant slice. The result is
// never nil.
func DeriveAll(products []models.Product, variant models.AuctionType, now time.Time) ([]View, error) {
	views := make([]View, 0, len(products))
	for i := range products {
		v, err := Derive(&products[i], variant, now)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// DeriveMixed derives products of any variant, each under its own type.
func DeriveMixed(products []models.Product, now time.Time) ([]View, error) {
	views := make([]View, 0, len(products))
	for i := range products {
		v, err := Derive(&products[i], products[i].AuctionType, now)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
