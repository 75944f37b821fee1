package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"royalbid/internal/models"
	"royalbid/internal/repositories"
)

const demoSellerUsername = "demo-seller"

// seedDemoData creates a demo seller and a few active products of every
// variant. It does nothing when the demo seller already exists.
func seedDemoData(ctx context.Context, users repositories.UserRepository, products repositories.ProductRepository, now time.Time) error {
	if _, err := users.GetByUsername(ctx, demoSellerUsername); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}
	seller := &models.User{
		Username: demoSellerUsername,
		Email:    "demo-seller@royalbid.local",
		Password: string(hash),
		Role:     models.RoleSeller,
	}
	if err := users.Create(ctx, seller); err != nil {
		return err
	}

	endsIn := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	demo := []models.Product{
		{AuctionType: models.AuctionTypeRetail, Title: "Wireless Headphones", Category: models.CategoryElectronics, Condition: models.ConditionNew, Brand: "Sony", Price: 299.99, Discount: 5, Stocks: 12, IsFeatured: true, Tags: []string{"audio", "wireless"}},
		{AuctionType: models.AuctionTypeRetail, Title: "Leather Tote", Category: models.CategoryFashion, Condition: models.ConditionNew, Brand: "Coach", Price: 189, Stocks: 3},
		{AuctionType: models.AuctionTypeRetail, Title: "Trail Running Shoes", Category: models.CategorySports, Condition: models.ConditionLikeNew, Brand: "Salomon", Price: 95.5},
		{AuctionType: models.AuctionTypeAuction, Title: "Signed First Edition", Category: models.CategoryBooks, Condition: models.ConditionGood, StartingBid: 450, AuctionEndDate: endsIn(2 * time.Hour), IsFeatured: true},
		{AuctionType: models.AuctionTypeAuction, Title: "Mid-century Armchair", Category: models.CategoryFurniture, Condition: models.ConditionExcellent, StartingBid: 800, AuctionEndDate: endsIn(72 * time.Hour)},
		{AuctionType: models.AuctionTypeAntiPiece, Title: "Victorian Pocket Watch", Category: models.CategoryWatches, Condition: models.ConditionGood, Brand: "Waltham", Price: 1250, Stocks: 1, IsFeatured: true},
		{AuctionType: models.AuctionTypeAntiPiece, Title: "Art Deco Vase", Category: models.CategoryAntiques, Condition: models.ConditionFair, Price: 340, Stocks: 1},
	}
	for i := range demo {
		p := &demo[i]
		p.SellerID = seller.ID
		p.Status = models.StatusActive
		p.IsActive = true
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed %q: %w", p.Title, err)
		}
	}
	return nil
}
