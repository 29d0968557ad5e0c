package model

import "github.com/shopspring/decimal"

type PerfumeType string

const (
	TypeEauDeParfum   PerfumeType = "EDP"
	TypeEauDeToilette PerfumeType = "EDT"
	TypeEauDeCologne  PerfumeType = "EDC"
	TypeParfum        PerfumeType = "PARFUM"
)

// Perfume is a catalog entry.
type Perfume struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Brand          string             `json:"brand"`
	Notes          []string           `json:"notes,omitempty"`
	Type           PerfumeType        `json:"type,omitempty"`
	AssetURL       string             `json:"assetUrl,omitempty"`
	Season         string             `json:"season,omitempty"`
	Sillage        string             `json:"sillage,omitempty"`
	Longevity      string             `json:"longevity,omitempty"`
	Gender         string             `json:"gender,omitempty"`
	Description    string             `json:"description,omitempty"`
	SerialNumber   int64              `json:"serialNumber,omitempty"`
	WarrantyStatus int                `json:"warrantyStatus,omitempty"`
	Distributor    PerfumeDistributor `json:"distributor"`
	Categories     []Category         `json:"categories,omitempty"`
	Variants       []PerfumeVariant   `json:"variants"`
}

// Variant returns the variant sold in the given volume.
func (p Perfume) Variant(volume int) (PerfumeVariant, bool) {
	for _, v := range p.Variants {
		if v.Volume == volume {
			return v, true
		}
	}
	return PerfumeVariant{}, false
}

// CheapestVariant returns the lowest priced active variant.
func (p Perfume) CheapestVariant() (PerfumeVariant, bool) {
	var best PerfumeVariant
	found := false
	for _, v := range p.Variants {
		if !v.Active {
			continue
		}
		if !found || v.Price.LessThan(best.Price) {
			best, found = v, true
		}
	}
	return best, found
}

// PerfumeVariant is one purchasable volume of a perfume.
type PerfumeVariant struct {
	Volume    int             `json:"volume"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Active    bool            `json:"active"`
}

type PerfumeDistributor struct {
	Name          string `json:"name,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
}

// PerfumeDetail is the body of GET /perfumes/:id.
type PerfumeDetail struct {
	Perfume
	AverageRating  float64        `json:"averageRating"`
	ReviewCount    int            `json:"reviewCount"`
	ActiveDiscount *ActiveDiscount `json:"activeDiscount,omitempty"`
}

type ActiveDiscount struct {
	Rate float64 `json:"rate"`
}

// CartItem builds the cart line for buying quantity units of the variant.
// The discounted price applies the active discount rate, if any.
func (d PerfumeDetail) CartItem(v PerfumeVariant, quantity int) CartItem {
	discounted := v.Price
	if d.ActiveDiscount != nil && d.ActiveDiscount.Rate > 0 {
		rate := decimal.NewFromFloat(d.ActiveDiscount.Rate).Div(decimal.NewFromInt(100))
		discounted = v.Price.Sub(v.Price.Mul(rate)).Round(2)
	}
	return CartItem{
		PerfumeID:       d.ID,
		PerfumeName:     d.Name,
		Brand:           d.Brand,
		Volume:          v.Volume,
		Quantity:        quantity,
		Price:           v.Price,
		DiscountedPrice: discounted,
	}
}

// Category groups perfumes.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewCategory is the body of POST /categories.
type NewCategory struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
