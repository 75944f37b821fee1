package models

import "strings"

// AuctionType discriminates the three catalog variants.
type AuctionType string

const (
	AuctionTypeRetail    AuctionType = "Retail"
	AuctionTypeAuction   AuctionType = "Auction"
	AuctionTypeAntiPiece AuctionType = "Anti-Piece"
)

// AuctionTypes lists every variant in display order.
var AuctionTypes = []AuctionType{AuctionTypeRetail, AuctionTypeAuction, AuctionTypeAntiPiece}

// Valid reports whether t is one of the known variants.
func (t AuctionType) Valid() bool {
	switch t {
	case AuctionTypeRetail, AuctionTypeAuction, AuctionTypeAntiPiece:
		return true
	}
	return false
}

// Slug is the URL segment a variant is served under.
func (t AuctionType) Slug() string {
	switch t {
	case AuctionTypeAuction:
		return "auction"
	case AuctionTypeAntiPiece:
		return "anti-pieces"
	default:
		return "retail"
	}
}

// ProductStatus is the moderation state of a product.
type ProductStatus string

const (
	StatusPendingReview ProductStatus = "pending_review"
	StatusActive        ProductStatus = "active"
	StatusRejected      ProductStatus = "rejected"
)

// ProductStatuses lists every moderation state.
var ProductStatuses = []ProductStatus{StatusPendingReview, StatusActive, StatusRejected}

func (s ProductStatus) Valid() bool {
	switch s {
	case StatusPendingReview, StatusActive, StatusRejected:
		return true
	}
	return false
}

// Category is a value of the fixed catalog taxonomy.
type Category string

const (
	CategoryElectronics  Category = "electronics"
	CategoryFashion      Category = "fashion"
	CategoryJewelry      Category = "jewelry"
	CategoryWatches      Category = "watches"
	CategoryArt          Category = "art"
	CategoryCollectibles Category = "collectibles"
	CategoryAntiques     Category = "antiques"
	CategoryHomeDecor    Category = "home_decor"
	CategoryFurniture    Category = "furniture"
	CategoryBooks        Category = "books"
	CategorySports       Category = "sports"
	CategoryToys         Category = "toys"
	CategoryAutomotive   Category = "automotive"
	CategoryMusic        Category = "music"
	CategoryOther        Category = "other"
)

// Categories contains the supported product categories.
var Categories = []Category{
	CategoryElectronics,
	CategoryFashion,
	CategoryJewelry,
	CategoryWatches,
	CategoryArt,
	CategoryCollectibles,
	CategoryAntiques,
	CategoryHomeDecor,
	CategoryFurniture,
	CategoryBooks,
	CategorySports,
	CategoryToys,
	CategoryAutomotive,
	CategoryMusic,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Condition describes the physical state of an item.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionLikeNew   Condition = "like_new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

var Conditions = []Condition{
	ConditionNew,
	ConditionLikeNew,
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
}

func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// ParseAuctionType accepts both the stored value ("Anti-Piece") and the URL
// slug ("anti-pieces"), case-insensitively.
func ParseAuctionType(s string) (AuctionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retail":
		return AuctionTypeRetail, true
	case "auction":
		return AuctionTypeAuction, true
	case "anti-piece", "anti-pieces", "antipiece":
		return AuctionTypeAntiPiece, true
	}
	return "", false
}
