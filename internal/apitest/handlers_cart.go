package apitest

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/roach88/perfumery/internal/model"
)

// lineLocked builds the cart line for a sync item from the catalog. Unknown
// perfumes get a bare line with zero prices.
func (s *Server) lineLocked(it model.SyncItem) model.CartItem {
	line := model.CartItem{PerfumeID: it.Perfume, Volume: it.Volume, Quantity: it.Quantity}
	p, ok := s.perfumes[it.Perfume]
	if !ok {
		return line
	}
	line.PerfumeName, line.Brand = p.Name, p.Brand
	if v, ok := p.Variant(it.Volume); ok {
		line.Price = v.Price
		line.DiscountedPrice = s.discountedLocked(p.ID, v.Price)
	}
	return line
}

// mergeLocked adds it to lines, incrementing an existing line.
func (s *Server) mergeLocked(lines []model.CartItem, it model.SyncItem) []model.CartItem {
	if it.Quantity <= 0 {
		it.Quantity = 1
	}
	for i := range lines {
		if lines[i].Key() == it.Key() {
			lines[i].Quantity += it.Quantity
			return lines
		}
	}
	return append(lines, s.lineLocked(it))
}

// discountedLocked applies the best active discount rate for perfumeID.
func (s *Server) discountedLocked(perfumeID string, p decimal.Decimal) decimal.Decimal {
	rate := s.discountRateLocked(perfumeID)
	if rate <= 0 {
		return p
	}
	off := p.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100))
	return p.Sub(off).Round(2)
}

func (s *Server) discountRateLocked(perfumeID string) float64 {
	best := 0.0
	for _, d := range s.discounts {
		if !d.activeAt(s.now) {
			continue
		}
		for _, id := range d.perfumeIDs {
			if id == perfumeID && d.rate > best {
				best = d.rate
			}
		}
	}
	return best
}

func (s *Server) writeCartLocked(w http.ResponseWriter, status int, userID string) {
	items := s.carts[userID]
	if items == nil {
		items = []model.CartItem{}
	}
	c := model.NewCart(items)
	c.ID = "cart-" + userID
	if s.legacyCart {
		writeJSON(w, status, map[string]any{"message": "ok", "items": c})
		return
	}
	writeJSON(w, status, map[string]any{"message": "ok", "cart": c})
}

// checkItemLocked reports a 404 for an unknown perfume or volume.
func (s *Server) checkItemLocked(w http.ResponseWriter, it model.SyncItem) bool {
	p, ok := s.perfumes[it.Perfume]
	if !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+it.Perfume+" not found")
		return false
	}
	if v, ok := p.Variant(it.Volume); !ok || !v.Active {
		writeError(w, http.StatusNotFound, "VARIANT_NOT_FOUND", "perfume "+it.Perfume+" is not sold in that volume")
		return false
	}
	return true
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	s.writeCartLocked(w, http.StatusOK, acc.user.ID)
}

func (s *Server) syncCart(w http.ResponseWriter, r *http.Request) {
	var req model.SyncCartRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	var lines []model.CartItem
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			continue
		}
		if _, known := s.perfumes[it.Perfume]; !known {
			continue
		}
		lines = s.mergeLocked(lines, it)
	}
	s.carts[acc.user.ID] = lines
	s.writeCartLocked(w, http.StatusOK, acc.user.ID)
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var it model.SyncItem
	if err := decode(r, &it); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok || !s.checkItemLocked(w, it) {
		return
	}
	s.carts[acc.user.ID] = s.mergeLocked(s.carts[acc.user.ID], it)
	s.writeCartLocked(w, http.StatusOK, acc.user.ID)
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	var it model.SyncItem
	if err := decode(r, &it); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	lines := s.carts[acc.user.ID]
	out := lines[:0]
	for _, line := range lines {
		if line.Key() == it.Key() {
			if it.Quantity > 0 && line.Quantity > it.Quantity {
				line.Quantity -= it.Quantity
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}
	s.carts[acc.user.ID] = out
	s.writeCartLocked(w, http.StatusOK, acc.user.ID)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	delete(s.carts, acc.user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
