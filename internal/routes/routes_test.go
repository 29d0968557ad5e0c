package routes

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/perfumery/internal/model"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleCustomer, "storefront"},
		{model.RoleProductManager, "product admin"},
		{model.RoleSalesManager, "sales admin"},
		{"", "storefront"},
		{"admin", "storefront"},
		{"Product-Manager", "storefront"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.role).Name)
		})
	}
}

func TestSelect_ExactlyOneTreePerRole(t *testing.T) {
	for _, role := range []model.Role{model.RoleCustomer, model.RoleProductManager, model.RoleSalesManager, "unknown"} {
		matches := 0
		got := Select(role)
		for _, tree := range Trees() {
			if tree.Name == got.Name {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "role %q", role)
	}
}

func TestTrees_Paths(t *testing.T) {
	assert.Equal(t,
		[]string{"auth", "perfumes", "categories", "cart", "checkout", "orders", "refunds", "reviews", "wishlist", "account"},
		Customer.Paths())
	assert.Equal(t,
		[]string{"auth", "perfumes", "products", "categories", "reviews", "orders", "account"},
		ProductManager.Paths())
	assert.Equal(t,
		[]string{"auth", "perfumes", "discounts", "refunds", "orders", "account"},
		SalesManager.Paths())
}

func TestTree_Has(t *testing.T) {
	assert.True(t, Customer.Has("cart"))
	assert.False(t, Customer.Has("discounts"))
	assert.True(t, SalesManager.Has("discounts"))
	assert.False(t, SalesManager.Has("cart"))
	assert.False(t, ProductManager.Has("checkout"))

	r, ok := ProductManager.Find("products")
	assert.True(t, ok)
	assert.Equal(t, "Products", r.Title)
}

func TestTrees_Golden(t *testing.T) {
	var parts []string
	for _, tree := range Trees() {
		parts = append(parts, tree.Render())
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "trees", []byte(strings.Join(parts, "\n")))
}
