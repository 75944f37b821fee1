package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"royalbid/internal/derive"
	"royalbid/internal/models"
	"royalbid/internal/repositories"
	"royalbid/internal/services"
)

func auctionInput(endsIn time.Duration) services.ProductInput {
	end := fixedAt.Add(endsIn)
	return services.ProductInput{
		AuctionType:    models.AuctionTypeAuction,
		Title:          "Signed print",
		Category:       models.CategoryArt,
		Condition:      models.ConditionLikeNew,
		StartingBid:    f64(120),
		AuctionEndDate: &end,
	}
}

func retailInput() services.ProductInput {
	return services.ProductInput{
		AuctionType: models.AuctionTypeRetail,
		Title:       "Desk lamp",
		Category:    models.CategoryHomeDecor,
		Condition:   models.ConditionNew,
		Price:       f64(40),
		Stocks:      intp(5),
		Tags:        []string{" desk ", "Lamp", "lamp", ""},
		Images: []models.ProductImage{
			{URL: "https://img.example.com/1.jpg"},
			{URL: "https://img.example.com/2.jpg"},
		},
	}
}

func requireForbidden(t *testing.T, err error) {
	t.Helper()
	var fe *services.ForbiddenError
	require.True(t, errors.As(err, &fe), "want ForbiddenError, got %v", err)
}

func TestProductService_CreateAuction(t *testing.T) {
	pub := new(MockPublisher)
	f := newFixture(pub)
	pub.On("Publish", services.EventProductCreated, mock.MatchedBy(func(ev services.ProductEvent) bool {
		return ev.SellerID == seller.UserID && ev.AuctionType == models.AuctionTypeAuction && ev.Status == models.StatusPendingReview
	})).Return(nil).Once()

	view, err := f.products.CreateProduct(ctx, seller, auctionInput(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, view.Status)
	assert.True(t, view.IsActive)
	assert.Equal(t, seller.UserID, view.SellerID)
	assert.Equal(t, 120.0, view.StartingBid)
	assert.Equal(t, derive.AuctionLive, view.AuctionStatus)
	assert.Equal(t, "2d 0h", view.TimeLeft)
	pub.AssertExpectations(t)

	// pending review keeps it off the public catalog
	_, err = f.catalog.GetByID(ctx, models.AuctionTypeAuction, view.ID)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestProductService_CreateAuctionRules(t *testing.T) {
	f := newFixture(nil)

	_, err := f.products.CreateProduct(ctx, seller, auctionInput(-time.Minute))
	requireValidation(t, err, "auctionEndDate")

	_, err = f.products.CreateProduct(ctx, seller, auctionInput(0))
	requireValidation(t, err, "auctionEndDate")

	in := auctionInput(time.Hour)
	in.StartingBid = nil
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "startingBid")

	in = auctionInput(time.Hour)
	in.AuctionEndDate = nil
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "auctionEndDate")

	in = auctionInput(time.Hour)
	in.Price = f64(10)
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "price")

	count, err := f.repo.CountByStatus(ctx, repositories.Scope{SellerID: seller.UserID})
	require.NoError(t, err)
	assert.Zero(t, count.PendingReview)
}

func TestProductService_CreateRetail(t *testing.T) {
	f := newFixture(nil)

	view, err := f.products.CreateProduct(ctx, seller, retailInput())
	require.NoError(t, err)
	assert.Equal(t, []string{"desk", "Lamp"}, []string(view.Tags))
	require.Len(t, view.Images, 2)
	assert.True(t, view.Images[0].IsPrimary)
	assert.False(t, view.Images[1].IsPrimary)
	assert.Equal(t, 40.0, view.EffectivePrice)
	assert.Empty(t, view.AuctionStatus)

	in := retailInput()
	in.Price = nil
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "price")

	in = retailInput()
	in.Discount = f64(101)
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "discount")

	in = retailInput()
	in.StartingBid = f64(1)
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "startingBid")

	in = retailInput()
	in.Images[0].IsPrimary = true
	in.Images[1].IsPrimary = true
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "images")

	in = retailInput()
	in.Category = "spaceships"
	in.Title = "ab"
	_, err = f.products.CreateProduct(ctx, seller, in)
	requireValidation(t, err, "category")
	requireValidation(t, err, "title")
}

func TestProductService_CreateIgnoresBrokerFailure(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", services.EventProductCreated, mock.Anything).Return(errors.New("broker down")).Once()
	f := newFixture(pub)

	view, err := f.products.CreateProduct(ctx, seller, retailInput())
	require.NoError(t, err)
	_, err = f.repo.GetByID(ctx, view.ID)
	assert.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestProductService_Update(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", services.EventProductUpdated, mock.Anything).Return(nil)
	f := newFixture(pub)
	p := f.add(t, retailItem("Kettle", 30))

	view, err := f.products.UpdateProduct(ctx, seller, p.ID, services.ProductUpdate{Title: str("Steel kettle"), Discount: f64(10)})
	require.NoError(t, err)
	assert.Equal(t, "Steel kettle", view.Title)
	assert.Equal(t, 27.0, view.EffectivePrice)
	assert.Equal(t, models.StatusActive, view.Status)

	auction := models.AuctionTypeAuction
	_, err = f.products.UpdateProduct(ctx, seller, p.ID, services.ProductUpdate{AuctionType: &auction})
	requireValidation(t, err, "auctionType")

	_, err = f.products.UpdateProduct(ctx, seller, p.ID, services.ProductUpdate{StartingBid: f64(3)})
	requireValidation(t, err, "startingBid")

	_, err = f.products.UpdateProduct(ctx, other, p.ID, services.ProductUpdate{Title: str("Mine now")})
	requireForbidden(t, err)

	view, err = f.products.UpdateProduct(ctx, admin, p.ID, services.ProductUpdate{IsActive: boolp(false)})
	require.NoError(t, err)
	assert.False(t, view.IsActive)

	_, err = f.products.UpdateProduct(ctx, seller, uuid.NewString(), services.ProductUpdate{Title: str("Ghost")})
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	_, err = f.products.UpdateProduct(ctx, seller, "nope", services.ProductUpdate{})
	requireValidation(t, err, "id")
}

func TestProductService_UpdateAuctionEnd(t *testing.T) {
	f := newFixture(nil)
	p := f.add(t, auctionItem("Clock", 80, time.Hour))

	past := fixedAt.Add(-time.Hour)
	_, err := f.products.UpdateProduct(ctx, seller, p.ID, services.ProductUpdate{AuctionEndDate: &past})
	requireValidation(t, err, "auctionEndDate")

	later := fixedAt.Add(26 * time.Hour)
	view, err := f.products.UpdateProduct(ctx, seller, p.ID, services.ProductUpdate{AuctionEndDate: &later})
	require.NoError(t, err)
	assert.Equal(t, "1d 2h", view.TimeLeft)

	_, err = f.products.UpdateProduct(ctx, seller, p.ID, services.ProductUpdate{Price: f64(5)})
	requireValidation(t, err, "price")
}

func TestProductService_Delete(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", services.EventProductDeleted, mock.Anything).Return(nil).Once()
	f := newFixture(pub)
	p := f.add(t, retailItem("Mug", 8))

	requireForbidden(t, f.products.DeleteProduct(ctx, other, p.ID))
	require.NoError(t, f.products.DeleteProduct(ctx, seller, p.ID))

	_, err := f.repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	assert.ErrorIs(t, f.products.DeleteProduct(ctx, seller, p.ID), repositories.ErrProductNotFound)
	pub.AssertExpectations(t)
}

func TestProductService_SetStatus(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", services.EventProductStatusChanged, mock.MatchedBy(func(ev services.ProductEvent) bool {
		return ev.Status == models.StatusActive && ev.IsFeatured && ev.ActorID == admin.UserID
	})).Return(nil).Once()
	f := newFixture(pub)

	pending := retailItem("Pending", 12)
	pending.Status = models.StatusPendingReview
	pending.IsActive = true
	p := f.add(t, pending)

	_, err := f.products.SetStatus(ctx, seller, p.ID, services.StatusUpdate{Status: models.StatusActive})
	requireForbidden(t, err)

	_, err = f.products.SetStatus(ctx, admin, p.ID, services.StatusUpdate{Status: "approved"})
	requireValidation(t, err, "status")

	view, err := f.products.SetStatus(ctx, admin, p.ID, services.StatusUpdate{Status: models.StatusActive, IsFeatured: boolp(true)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, view.Status)
	assert.True(t, view.IsFeatured)

	_, err = f.catalog.GetByID(ctx, models.AuctionTypeRetail, p.ID)
	assert.NoError(t, err)
}

func TestProductService_ListMineAndGetMine(t *testing.T) {
	f := newFixture(nil)
	f.add(t, retailItem("Active retail", 10))
	pending := auctionItem("Pending auction", 10, time.Hour)
	pending.Status = models.StatusPendingReview
	mine := f.add(t, pending)
	foreign := retailItem("Someone else", 10)
	foreign.SellerID = other.UserID
	theirs := f.add(t, foreign)

	list, err := f.products.ListMine(ctx, seller, services.SellerListParams{PageRequest: services.PageRequest{Page: 1, Limit: 12}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Pagination.Total)
	for _, v := range list.Products {
		assert.Equal(t, seller.UserID, v.SellerID)
	}

	list, err = f.products.ListMine(ctx, seller, services.SellerListParams{
		AuctionType: "auction",
		Status:      "pending_review",
		PageRequest: services.PageRequest{Page: 1, Limit: 12},
	})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, derive.AuctionLive, list.Products[0].AuctionStatus)

	_, err = f.products.ListMine(ctx, seller, services.SellerListParams{AuctionType: "barter", PageRequest: services.PageRequest{Page: 1, Limit: 12}})
	requireValidation(t, err, "auctionType")

	view, err := f.products.GetMine(ctx, seller, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, view.Status)

	_, err = f.products.GetMine(ctx, seller, theirs.ID)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	_, err = f.products.GetMine(ctx, admin, theirs.ID)
	assert.NoError(t, err)
}
