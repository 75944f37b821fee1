package query

import (
	"strings"

	"royalbid/internal/models"
)

// SortKey is one of the fixed listing orders.
type SortKey string

const (
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortPopular    SortKey = "popular"
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortEndingSoon SortKey = "ending_soon"
	SortNameAsc    SortKey = "name_asc"
	SortNameDesc   SortKey = "name_desc"
)

// ParseSort resolves a raw sort key. Unknown keys, and ending_soon outside
// auctions, fall back to newest.
func ParseSort(raw string, variant models.AuctionType) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case SortPriceAsc, SortPriceDesc, SortPopular, SortNewest, SortOldest, SortNameAsc, SortNameDesc:
		return key
	case SortEndingSoon:
		if variant == models.AuctionTypeAuction {
			return key
		}
	}
	return SortNewest
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// OrderBy expands the sort key into ORDER BY terms. Every order ends on id
// so that paging is stable.
func (s Spec) OrderBy() []Order {
	var orders []Order
	switch s.Sort {
	case SortPriceAsc:
		orders = []Order{{Column: models.PriceColumn(s.Variant)}}
	case SortPriceDesc:
		orders = []Order{{Column: models.PriceColumn(s.Variant), Desc: true}}
	case SortPopular:
		orders = []Order{{Column: "view_count", Desc: true}, {Column: "created_at", Desc: true}}
	case SortOldest:
		orders = []Order{{Column: "created_at"}}
	case SortEndingSoon:
		orders = []Order{{Column: "auction_end_date"}}
	case SortNameAsc:
		orders = []Order{{Column: "title"}}
	case SortNameDesc:
		orders = []Order{{Column: "title", Desc: true}}
	default:
		orders = []Order{{Column: "created_at", Desc: true}}
	}
	return append(orders, Order{Column: "id"})
}

// Less orders two products the way OrderBy does.
func (s Spec) Less(a, b *models.Product) bool {
	for _, o := range s.OrderBy() {
		c := compareColumn(a, b, o.Column)
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareColumn(a, b *models.Product, column string) int {
	switch column {
	case "price":
		return compareFloat(a.Price, b.Price)
	case "starting_bid":
		return compareFloat(a.StartingBid, b.StartingBid)
	case "view_count":
		return compareInt(a.ViewCount, b.ViewCount)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "auction_end_date":
		switch {
		case a.AuctionEndDate == nil && b.AuctionEndDate == nil:
			return 0
		case a.AuctionEndDate == nil:
			return 1
		case b.AuctionEndDate == nil:
			return -1
		}
		return a.AuctionEndDate.Compare(*b.AuctionEndDate)
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "id":
		return strings.Compare(a.ID, b.ID)
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
