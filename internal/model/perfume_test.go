package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePerfume() Perfume {
	return Perfume{
		ID:    "p1",
		Name:  "Sauvage",
		Brand: "Dior",
		Variants: []PerfumeVariant{
			{Volume: 100, Price: decimal.NewFromInt(150), Active: true},
			{Volume: 50, Price: decimal.NewFromInt(100), Active: true},
			{Volume: 10, Price: decimal.NewFromInt(20), Active: false},
		},
	}
}

func TestPerfume_Variant(t *testing.T) {
	p := samplePerfume()

	v, ok := p.Variant(50)
	require.True(t, ok)
	assert.Equal(t, "100", v.Price.String())

	_, ok = p.Variant(75)
	assert.False(t, ok)
}

func TestPerfume_CheapestVariantSkipsInactive(t *testing.T) {
	v, ok := samplePerfume().CheapestVariant()
	require.True(t, ok)
	assert.Equal(t, 50, v.Volume)

	_, ok = Perfume{}.CheapestVariant()
	assert.False(t, ok)
}

func TestPerfumeDetail_CartItemAppliesDiscount(t *testing.T) {
	d := PerfumeDetail{Perfume: samplePerfume(), ActiveDiscount: &ActiveDiscount{Rate: 10}}
	v, _ := d.Variant(50)

	item := d.CartItem(v, 2)

	assert.Equal(t, "p1", item.PerfumeID)
	assert.Equal(t, 50, item.Volume)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "100", item.Price.String())
	assert.Equal(t, "90", item.DiscountedPrice.String())
}

func TestPerfumeDetail_CartItemWithoutDiscount(t *testing.T) {
	d := PerfumeDetail{Perfume: samplePerfume()}
	v, _ := d.Variant(100)

	item := d.CartItem(v, 1)
	assert.True(t, item.DiscountedPrice.Equal(item.Price))
}
