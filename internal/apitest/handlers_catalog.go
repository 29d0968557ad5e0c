package apitest

import (
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/perfumery/internal/model"
)

func (s *Server) addPerfumeLocked(p *model.Perfume) {
	p.ID = s.nextID("p")
	s.perfumes[p.ID] = p
	s.catalog = append(s.catalog, p.ID)
}

func (s *Server) detailLocked(p *model.Perfume) model.PerfumeDetail {
	d := model.PerfumeDetail{Perfume: *p}
	d.AverageRating, _ = s.averageLocked(p.ID)
	for _, rv := range s.reviews[p.ID] {
		if rv.IsApproved {
			d.ReviewCount++
		}
	}
	if rate := s.discountRateLocked(p.ID); rate > 0 {
		d.ActiveDiscount = &model.ActiveDiscount{Rate: rate}
	}
	return d
}

func (s *Server) averageLocked(perfumeID string) (avg float64, count int) {
	var sum int
	for _, stars := range s.ratings[perfumeID] {
		sum += stars
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return math.Round(float64(sum)/float64(count)*100) / 100, count
}

func (s *Server) unitsSoldLocked(perfumeID string) int {
	n := 0
	for _, o := range s.orders {
		if o.Status == model.OrderCancelled {
			continue
		}
		for _, it := range o.Items {
			if it.PerfumeID == perfumeID {
				n += it.Quantity
			}
		}
	}
	return n
}

func cheapest(p *model.Perfume) (decimal.Decimal, bool) {
	v, ok := p.CheapestVariant()
	return v.Price, ok
}

func matchesFold(value string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	value = norm.NFC.String(value)
	for _, w := range wanted {
		if strings.EqualFold(value, w) {
			return true
		}
	}
	return false
}

func (s *Server) filterLocked(f model.PerfumeFilter) []*model.Perfume {
	genders := make([]string, len(f.Genders))
	for i, g := range f.Genders {
		genders[i] = string(g)
	}
	var out []*model.Perfume
	for _, id := range s.catalog {
		p := s.perfumes[id]
		if !matchesFold(p.Brand, f.Brands) || !matchesFold(p.Gender, genders) {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if len(f.CategoryIDs) > 0 && !inCategories(p, f.CategoryIDs) {
			continue
		}
		lo, ok := cheapest(p)
		if (f.MinPrice != nil || f.MaxPrice != nil) && !ok {
			continue
		}
		if f.MinPrice != nil && lo.LessThan(decimal.NewFromFloat(*f.MinPrice)) {
			continue
		}
		if f.MaxPrice != nil && lo.GreaterThan(decimal.NewFromFloat(*f.MaxPrice)) {
			continue
		}
		out = append(out, p)
	}
	s.sortLocked(out, f.SortBy)
	return out
}

func inCategories(p *model.Perfume, ids []string) bool {
	for _, c := range p.Categories {
		for _, id := range ids {
			if c.ID == id {
				return true
			}
		}
	}
	return false
}

// sortLocked orders perfumes; ties and the default keep catalog order.
func (s *Server) sortLocked(ps []*model.Perfume, by model.SortOption) {
	pos := make(map[string]int, len(s.catalog))
	for i, id := range s.catalog {
		pos[id] = i
	}
	var less func(a, b *model.Perfume) bool
	switch by {
	case model.SortPriceAsc, model.SortPriceDesc:
		less = func(a, b *model.Perfume) bool {
			pa, _ := cheapest(a)
			pb, _ := cheapest(b)
			if by == model.SortPriceDesc {
				return pa.GreaterThan(pb)
			}
			return pa.LessThan(pb)
		}
	case model.SortNameAsc:
		less = func(a, b *model.Perfume) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case model.SortNameDesc:
		less = func(a, b *model.Perfume) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case model.SortRating:
		less = func(a, b *model.Perfume) bool {
			ra, _ := s.averageLocked(a.ID)
			rb, _ := s.averageLocked(b.ID)
			return ra > rb
		}
	case model.SortBestSeller:
		less = func(a, b *model.Perfume) bool { return s.unitsSoldLocked(a.ID) > s.unitsSoldLocked(b.ID) }
	case model.SortNewest:
		less = func(a, b *model.Perfume) bool { return pos[a.ID] > pos[b.ID] }
	default:
		return
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}

func (s *Server) searchPerfumes(w http.ResponseWriter, r *http.Request) {
	var f model.PerfumeFilter
	if err := decode(r, &f); err != nil {
		badRequest(w, "invalid filter")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []model.Perfume{}
	for _, p := range s.filterLocked(f) {
		items = append(items, *p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": items})
}

func (s *Server) getPerfume(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.perfumes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "item": s.detailLocked(p)})
}

func validPerfume(p model.Perfume) string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "name is required"
	case strings.TrimSpace(p.Brand) == "":
		return "brand is required"
	case len(p.Variants) == 0:
		return "at least one variant is required"
	}
	for _, v := range p.Variants {
		if v.Volume <= 0 || !v.Price.IsPositive() {
			return "variants need a positive volume and price"
		}
	}
	return ""
}

func (s *Server) addPerfume(w http.ResponseWriter, r *http.Request) {
	var p model.Perfume
	if err := decode(r, &p); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if msg := validPerfume(p); msg != "" {
		badRequest(w, msg)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	s.addPerfumeLocked(&p)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "perfume added", "item": p})
}

func (s *Server) updatePerfume(w http.ResponseWriter, r *http.Request) {
	var patch model.Perfume
	if err := decode(r, &patch); err != nil {
		badRequest(w, "invalid body")
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	p, ok := s.perfumes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+id+" not found")
		return
	}
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Brand != "" {
		p.Brand = patch.Brand
	}
	if patch.Type != "" {
		p.Type = patch.Type
	}
	if patch.Gender != "" {
		p.Gender = patch.Gender
	}
	if patch.Description != "" {
		p.Description = patch.Description
	}
	if len(patch.Notes) > 0 {
		p.Notes = patch.Notes
	}
	if len(patch.Categories) > 0 {
		p.Categories = patch.Categories
	}
	if len(patch.Variants) > 0 {
		p.Variants = patch.Variants
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "perfume updated", "item": *p})
}

func (s *Server) deletePerfume(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	if _, ok := s.perfumes[id]; !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+id+" not found")
		return
	}
	delete(s.perfumes, id)
	for i, pid := range s.catalog {
		if pid == id {
			s.catalog = append(s.catalog[:i], s.catalog[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "perfume removed"})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]model.Category{}, s.categories...)
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": items})
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var nc model.NewCategory
	if err := decode(r, &nc); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if strings.TrimSpace(nc.Name) == "" {
		badRequest(w, "name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, nc.Name) {
			writeError(w, http.StatusConflict, "CATEGORY_EXISTS", "category "+nc.Name+" exists")
			return
		}
	}
	c := model.Category{ID: s.nextID("c"), Name: nc.Name, Description: nc.Description}
	s.categories = append(s.categories, c)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "category created", "item": c})
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "CATEGORY_NOT_FOUND", "category "+id+" not found")
}

type wishlistBody struct {
	PerfumeID string `json:"perfumeId"`
}

func (s *Server) getWishlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	items := []model.Perfume{}
	for _, id := range s.wishlists[acc.user.ID] {
		if p, ok := s.perfumes[id]; ok {
			items = append(items, *p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": items})
}

func (s *Server) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var body wishlistBody
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	if _, ok := s.perfumes[body.PerfumeID]; !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+body.PerfumeID+" not found")
		return
	}
	for _, id := range s.wishlists[acc.user.ID] {
		if id == body.PerfumeID {
			writeJSON(w, http.StatusOK, map[string]string{"message": "already in wishlist"})
			return
		}
	}
	s.wishlists[acc.user.ID] = append(s.wishlists[acc.user.ID], body.PerfumeID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "added to wishlist"})
}

func (s *Server) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	var body wishlistBody
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	ids := s.wishlists[acc.user.ID]
	out := ids[:0]
	for _, id := range ids {
		if id != body.PerfumeID {
			out = append(out, id)
		}
	}
	s.wishlists[acc.user.ID] = out
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed from wishlist"})
}
