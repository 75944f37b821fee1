package models

// PriceSummary aggregates the base price of a set of products.
type PriceSummary struct {
	Count        int64   `json:"count"`
	TotalValue   float64 `json:"totalValue"`
	AveragePrice float64 `json:"averagePrice"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`
}

// CategoryStat is one row of a by-category breakdown.
type CategoryStat struct {
	Category     Category `json:"category"`
	Count        int64    `json:"count"`
	TotalValue   float64  `json:"totalValue"`
	AveragePrice float64  `json:"averagePrice"`
}

// PriceBucket is one bucket of a price histogram. Upper is nil for the
// unbounded last bucket and for the "Other" bucket.
type PriceBucket struct {
	Label        string   `json:"label"`
	Lower        *float64 `json:"lower"`
	Upper        *float64 `json:"upper"`
	Count        int64    `json:"count"`
	AveragePrice float64  `json:"averagePrice"`
}

// MonthlyCount is the number of products created in one calendar month.
type MonthlyCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// StatusCounts counts a seller's products per moderation state.
type StatusCounts struct {
	PendingReview int64 `json:"pendingReview"`
	Active        int64 `json:"active"`
	Rejected      int64 `json:"rejected"`
}

// AuctionCounts splits active auctions by their derived state.
type AuctionCounts struct {
	Live  int64 `json:"live"`
	Ended int64 `json:"ended"`
}

// StockCounts summarizes the inventory of active fixed-price items.
type StockCounts struct {
	InStock    int64 `json:"inStock"`
	OutOfStock int64 `json:"outOfStock"`
	Discounted int64 `json:"discounted"`
}
