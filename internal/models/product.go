package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductImage is one entry of a product's ordered image gallery.
type ProductImage struct {
	URL       string `json:"url" validate:"required,url"`
	AltText   string `json:"altText" validate:"omitempty,max=200"`
	IsPrimary bool   `json:"isPrimary"`
}

// Product is the single catalog entity shared by the Retail, Auction and
// Anti-Piece variants. Variant specific columns are left at their zero value
// for the variants that do not use them.
type Product struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SellerID    string      `json:"sellerId" gorm:"type:varchar(36);not null;index"`
	AuctionType AuctionType `json:"auctionType" gorm:"type:varchar(20);not null;index"`

	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Category    Category  `json:"category" gorm:"type:varchar(40);not null;index"`
	Condition   Condition `json:"condition" gorm:"type:varchar(20);not null"`
	Brand       string    `json:"brand" gorm:"type:varchar(100)"`
	Model       string    `json:"model" gorm:"type:varchar(100)"`

	Tags   datatypes.JSONSlice[string]       `json:"tags"`
	Images datatypes.JSONSlice[ProductImage] `json:"images"`

	// Retail and Anti-Piece
	Price    float64 `json:"price"`
	Stocks   int     `json:"stocks"`
	Discount float64 `json:"discount"`

	// Auction
	StartingBid    float64    `json:"startingBid"`
	AuctionEndDate *time.Time `json:"auctionEndDate,omitempty" gorm:"index"`

	// SearchText is the lower-cased SearchDocument, kept in step by the
	// repository on every write.
	SearchText string `json:"-" gorm:"type:text"`

	ViewCount  int64         `json:"viewCount" gorm:"not null;default:0"`
	Status     ProductStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	IsActive   bool          `json:"isActive" gorm:"not null"`
	IsFeatured bool          `json:"isFeatured" gorm:"not null"`

	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BasePrice returns the undiscounted price the variant is priced from.
func (p *Product) BasePrice() float64 {
	if p.AuctionType == AuctionTypeAuction {
		return p.StartingBid
	}
	return p.Price
}

// IsPubliclyVisible reports whether the product may be served by public
// catalog endpoints.
func (p *Product) IsPubliclyVisible() bool {
	return p.Status == StatusActive && p.IsActive
}

// PriceColumn is the column holding the base price of the given variant.
func PriceColumn(t AuctionType) string {
	if t == AuctionTypeAuction {
		return "starting_bid"
	}
	return "price"
}

// SearchSeparator delimits the fields of a SearchDocument. Search terms may
// not contain it, so no match can span two fields or two tags.
const SearchSeparator = "\x1f"

// SearchDocument joins title, description, brand and every tag, lower-cased
// and delimited by SearchSeparator.
func (p *Product) SearchDocument() string {
	fields := make([]string, 0, 3+len(p.Tags))
	fields = append(fields, p.Title, p.Description, p.Brand)
	fields = append(fields, p.Tags...)
	return SearchSeparator + strings.ToLower(strings.Join(fields, SearchSeparator)) + SearchSeparator
}
