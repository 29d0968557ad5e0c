package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/apitest"
	"github.com/roach88/perfumery/internal/model"
)

func TestSearchPerfumes(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	all, err := c.SearchPerfumes(ctx, model.PerfumeFilter{SortBy: model.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"p3", "p1", "p2"}, ids(all))

	male, err := c.SearchPerfumes(ctx, model.PerfumeFilter{Genders: []model.Gender{"MALE"}, SortBy: model.SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids(male))

	hermes, err := c.SearchPerfumes(ctx, model.PerfumeFilter{Brands: []string{" Hermès", "Hermès"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, ids(hermes))

	lo, hi := 100.0, 50.0
	mid, err := c.SearchPerfumes(ctx, model.PerfumeFilter{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(mid), "inverted range is swapped")

	body := srv.Requests()[len(srv.Requests())-1].Body
	assert.Equal(t, `{"minPrice":50,"maxPrice":100}`, body)
}

func ids(ps []model.Perfume) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestGetPerfume(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	d, err := c.GetPerfume(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Libre", d.Name)
	require.NotNil(t, d.ActiveDiscount)
	assert.Equal(t, 10.0, d.ActiveDiscount.Rate)

	_, err = c.GetPerfume(context.Background(), "nope")
	assert.True(t, IsNotFound(err))
}

func TestProducts_ProductManager(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.ProductManagerEmail)
	ctx := context.Background()

	p, err := c.AddPerfume(ctx, model.Perfume{
		Name:     "Oud Wood",
		Brand:    "Tom Ford",
		Variants: []model.PerfumeVariant{{Volume: 50, Price: priceOf("250"), Active: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p4", p.ID)

	p, err = c.UpdatePerfume(ctx, p.ID, model.Perfume{Description: "smoky"})
	require.NoError(t, err)
	assert.Equal(t, "smoky", p.Description)
	assert.Equal(t, "Oud Wood", p.Name)

	require.NoError(t, c.DeletePerfume(ctx, p.ID))
	assert.True(t, IsNotFound(c.DeletePerfume(ctx, p.ID)))

	cat, err := c.CreateCategory(ctx, model.NewCategory{Name: "Oriental"})
	require.NoError(t, err)
	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
	require.NoError(t, c.DeleteCategory(ctx, cat.ID))
}

func TestProducts_CustomerForbidden(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)

	_, err := c.AddPerfume(context.Background(), model.Perfume{
		Name:     "X",
		Brand:    "Y",
		Variants: []model.PerfumeVariant{{Volume: 50, Price: priceOf("1"), Active: true}},
	})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, KindAuth, apiErr.Kind)
}

func TestReviewsAndRatings(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	customer := signedIn(t, srv, apitest.CustomerEmail)
	pm := signedIn(t, srv, apitest.ProductManagerEmail)

	require.NoError(t, customer.WriteReview(ctx, "p1", model.NewReview{Comment: "lasts all day"}))
	public, err := customer.PublicReviews(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, public, "pending reviews are hidden")

	pending, err := pm.AllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Aventus", pending[0].PerfumeName)
	require.NoError(t, pm.ApproveReview(ctx, pending[0].ID))

	public, err = customer.PublicReviews(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Alice Smith", public[0].User)

	require.NoError(t, customer.Rate(ctx, "p1", model.NewRating{Rating: 4}))
	require.NoError(t, pm.Rate(ctx, "p1", model.NewRating{Rating: 5}))
	assert.True(t, IsKind(customer.Rate(ctx, "p1", model.NewRating{Rating: 9}), KindValidation))

	r, err := customer.Rating(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4.5, r.AverageRating)
	assert.Equal(t, 2, r.RatingCount)
	assert.True(t, r.IsRated)
	assert.Equal(t, 4, r.UserRating)
	assert.Equal(t, 1, r.RatingCounts["5"])
}

func TestOrdersAndRefunds(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	customer := signedIn(t, srv, apitest.CustomerEmail)
	sales := signedIn(t, srv, apitest.SalesManagerEmail)

	order := model.MakeOrderRequest{
		ShippingAddress: "1 Rue de la Paix",
		CardNumber:      "4242 4242 4242 4242",
		CardHolder:      "Alice Smith",
		ExpiryDateMM:    "12",
		ExpiryDateYY:    "29",
		CVV:             "123",
	}
	_, err := customer.MakeOrder(ctx, order)
	assert.True(t, IsKind(err, KindValidation), "empty cart")

	_, err = customer.SyncCart(ctx, []model.SyncItem{{Perfume: "p1", Volume: 50, Quantity: 2}, {Perfume: "p2", Volume: 30, Quantity: 1}})
	require.NoError(t, err)
	placed, err := customer.MakeOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, "220.3", placed.TotalAmount.String())
	assert.Equal(t, []string{"Spring"}, placed.AppliedCampaigns)
	assert.Empty(t, srv.Cart(apitest.CustomerEmail))

	mine, err := customer.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = customer.RequestRefund(ctx, placed.OrderID, model.RefundRequest{Items: []model.RefundLine{{PerfumeID: "p1", Volume: 50, Quantity: 1}}})
	assert.True(t, IsKind(err, KindValidation), "not delivered yet")

	require.NoError(t, sales.UpdateOrderStatus(ctx, placed.OrderID, model.OrderDelivered))
	ref, err := customer.RequestRefund(ctx, placed.OrderID, model.RefundRequest{Items: []model.RefundLine{{PerfumeID: "p1", Volume: 50, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, model.RefundPending, ref.Status)
	assert.Equal(t, "89.9", ref.TotalRefundAmount.String())

	all, err := sales.AllRefundRequests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NoError(t, sales.ApproveRefund(ctx, ref.RefundRequestID))
	assert.True(t, IsKind(sales.RejectRefund(ctx, ref.RefundRequestID), KindValidation), "already decided")

	own, err := customer.RefundRequests(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, model.RefundApproved, own[0].Status)

	every, err := sales.AllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, every, 1)
	assert.Equal(t, apitest.CustomerEmail, every[0].UserEmail)
}

func TestDiscounts(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	sales := signedIn(t, srv, apitest.SalesManagerEmail)

	start := apitest.Epoch
	d, err := sales.CreateDiscount(ctx, model.NewDiscountFor("Summer", 20, start, start.Add(48*time.Hour), []string{"p1"}))
	require.NoError(t, err)
	assert.Equal(t, "Summer", d.Name)
	require.Len(t, d.Perfumes, 1)
	assert.Equal(t, "71.92", d.Perfumes[0].DiscountedPrice.String())

	list, err := sales.Discounts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, sales.DeleteDiscount(ctx, d.ID))
	assert.True(t, IsNotFound(sales.DeleteDiscount(ctx, d.ID)))

	customer := signedIn(t, srv, apitest.CustomerEmail)
	_, err = customer.Discounts(ctx)
	assert.True(t, IsKind(err, KindAuth))
}

func TestWishlist(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	c := signedIn(t, srv, apitest.CustomerEmail)

	require.NoError(t, c.AddToWishlist(ctx, "p2"))
	require.NoError(t, c.AddToWishlist(ctx, "p2"))
	require.NoError(t, c.AddToWishlist(ctx, "p3"))
	assert.True(t, IsNotFound(c.AddToWishlist(ctx, "missing")))

	list, err := c.Wishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, ids(list))

	require.NoError(t, c.RemoveFromWishlist(ctx, "p2"))
	list, err = c.Wishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, ids(list))
}
