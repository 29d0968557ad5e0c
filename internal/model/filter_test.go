package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortOption_DisplayName(t *testing.T) {
	tests := []struct {
		opt  SortOption
		want string
	}{
		{SortBestSeller, "Best Seller"},
		{SortPriceAsc, "Price: Low to High"},
		{SortPriceDesc, "Price: High to Low"},
		{SortRating, "Rating"},
		{SortNameAsc, "Name: A to Z"},
		{SortNameDesc, "Name: Z to A"},
		{SortNewest, "Newest"},
		{SortOldest, "Oldest"},
		{SortOption("cheapest"), ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.opt), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opt.DisplayName())
			assert.Equal(t, tt.want != "", tt.opt.Valid())
		})
	}
	assert.Len(t, SortOptions, 8)
}

func TestPerfumeFilter_Normalize(t *testing.T) {
	lo, hi := 200.0, 50.0
	f := PerfumeFilter{
		// "Cafe\u0301" is the decomposed form of "Caf\u00e9".
		Brands:   []string{" Dior ", "Cafe\u0301", "Caf\u00e9", "", "Chanel", "Dior"},
		Genders:  []Gender{"Female", "female", "male"},
		MinPrice: &lo,
		MaxPrice: &hi,
	}

	got := f.Normalize()

	assert.Equal(t, []string{"Caf\u00e9", "Chanel", "Dior"}, got.Brands)
	assert.Equal(t, []Gender{GenderFemale, GenderMale}, got.Genders)
	assert.Equal(t, 50.0, *got.MinPrice)
	assert.Equal(t, 200.0, *got.MaxPrice)
	assert.Nil(t, got.CategoryIDs)

	// the input is left untouched
	assert.Equal(t, 200.0, *f.MinPrice)
	assert.Len(t, f.Brands, 6)
}

func TestPerfumeFilter_NormalizeAllEmpty(t *testing.T) {
	got := PerfumeFilter{Brands: []string{" ", ""}}.Normalize()
	assert.Nil(t, got.Brands)
}
