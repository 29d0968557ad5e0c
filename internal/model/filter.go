package model

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SortOption orders a perfume search.
type SortOption string

const (
	SortPriceAsc   SortOption = "price_asc"
	SortPriceDesc  SortOption = "price_desc"
	SortBestSeller SortOption = "best_seller"
	SortRating     SortOption = "rating"
	SortNameAsc    SortOption = "name_asc"
	SortNameDesc   SortOption = "name_desc"
	SortNewest     SortOption = "newest"
	SortOldest     SortOption = "oldest"
)

// SortOptions lists every sort option in menu order.
var SortOptions = []SortOption{
	SortBestSeller, SortPriceAsc, SortPriceDesc, SortRating,
	SortNameAsc, SortNameDesc, SortNewest, SortOldest,
}

// DisplayName returns the menu label of the option, or "" when unknown.
func (s SortOption) DisplayName() string {
	switch s {
	case SortBestSeller:
		return "Best Seller"
	case SortPriceAsc:
		return "Price: Low to High"
	case SortPriceDesc:
		return "Price: High to Low"
	case SortRating:
		return "Rating"
	case SortNameAsc:
		return "Name: A to Z"
	case SortNameDesc:
		return "Name: Z to A"
	case SortNewest:
		return "Newest"
	case SortOldest:
		return "Oldest"
	default:
		return ""
	}
}

// Valid reports whether s is a known option.
func (s SortOption) Valid() bool {
	return s.DisplayName() != ""
}

// PerfumeFilter is the body of POST /perfumes.
type PerfumeFilter struct {
	CategoryIDs []string    `json:"categoryIds,omitempty"`
	MinPrice    *float64    `json:"minPrice,omitempty"`
	MaxPrice    *float64    `json:"maxPrice,omitempty"`
	Brands      []string    `json:"brands,omitempty"`
	Genders     []Gender    `json:"genders,omitempty"`
	Type        PerfumeType `json:"type,omitempty"`
	SortBy      SortOption  `json:"sortBy,omitempty"`
}

// Normalize trims and NFC-normalizes brand names, drops empty and duplicate
// entries and sorts the list fields so equal filters produce equal bodies.
func (f PerfumeFilter) Normalize() PerfumeFilter {
	out := f
	out.Brands = normalizeList(f.Brands)
	out.CategoryIDs = normalizeList(f.CategoryIDs)
	if len(f.Genders) > 0 {
		raw := make([]string, len(f.Genders))
		for i, g := range f.Genders {
			raw[i] = strings.ToLower(string(g))
		}
		gs := normalizeList(raw)
		out.Genders = make([]Gender, len(gs))
		for i, g := range gs {
			out.Genders[i] = Gender(g)
		}
	}
	if out.MinPrice != nil && out.MaxPrice != nil && *out.MinPrice > *out.MaxPrice {
		lo, hi := *out.MaxPrice, *out.MinPrice
		out.MinPrice, out.MaxPrice = &lo, &hi
	}
	return out
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = norm.NFC.String(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
