package apitest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/roach88/perfumery/internal/model"
)

// Reviews

func (s *Server) findReviewLocked(id string) (perfumeID string, idx int) {
	for pid, list := range s.reviews {
		for i, rv := range list {
			if rv.ID == id {
				return pid, i
			}
		}
	}
	return "", -1
}

func (s *Server) publicReviews(w http.ResponseWriter, r *http.Request) {
	pid := mux.Vars(r)["perfumeId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Review{}
	for _, rv := range s.reviews[pid] {
		if rv.IsApproved {
			out = append(out, rv.Review)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "reviews": out})
}

func (s *Server) writeReview(w http.ResponseWriter, r *http.Request) {
	var body model.NewReview
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if strings.TrimSpace(body.Comment) == "" {
		badRequest(w, "comment is required")
		return
	}
	pid := mux.Vars(r)["perfumeId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	p, ok := s.perfumes[pid]
	if !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+pid+" not found")
		return
	}
	rv := model.ReviewExtended{
		Review: model.Review{
			ID:        s.nextID("r"),
			Comment:   body.Comment,
			User:      acc.user.DisplayName(),
			CreatedAt: s.tick().Format(time.RFC3339),
		},
		PerfumeName: p.Name,
	}
	s.reviews[pid] = append(s.reviews[pid], rv)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "review submitted for approval"})
}

func (s *Server) getRating(w http.ResponseWriter, r *http.Request) {
	pid := mux.Vars(r)["perfumeId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perfumes[pid]; !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+pid+" not found")
		return
	}
	avg, count := s.averageLocked(pid)
	out := model.AverageRating{
		AverageRating: avg,
		RatingCount:   count,
		RatingCounts:  map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0},
	}
	for _, stars := range s.ratings[pid] {
		out.RatingCounts[strconv.Itoa(stars)]++
	}
	if acc, _ := s.sessionLocked(r); acc != nil {
		if stars, ok := s.ratings[pid][acc.user.ID]; ok {
			out.IsRated, out.UserRating = true, stars
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "rating": out})
}

func (s *Server) rate(w http.ResponseWriter, r *http.Request) {
	var body model.NewRating
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		writeError(w, http.StatusBadRequest, "INVALID_RATING", "rating must be between 1 and 5")
		return
	}
	pid := mux.Vars(r)["perfumeId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	if _, ok := s.perfumes[pid]; !ok {
		writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+pid+" not found")
		return
	}
	if s.ratings[pid] == nil {
		s.ratings[pid] = make(map[string]int)
	}
	s.ratings[pid][acc.user.ID] = body.Rating
	writeJSON(w, http.StatusOK, map[string]string{"message": "rating saved"})
}

func (s *Server) allReviews(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	out := []model.ReviewExtended{}
	for _, pid := range s.catalog {
		out = append(out, s.reviews[pid]...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "reviews": out})
}

func (s *Server) approveReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	pid, i := s.findReviewLocked(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review "+id+" not found")
		return
	}
	rv := &s.reviews[pid][i]
	if !rv.IsApproved {
		rv.IsApproved = true
		rv.ApprovedAt = s.tick().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "review approved"})
}

func (s *Server) rejectReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager); !ok {
		return
	}
	pid, i := s.findReviewLocked(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review "+id+" not found")
		return
	}
	s.reviews[pid] = append(s.reviews[pid][:i], s.reviews[pid][i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "review rejected"})
}

// Orders

func (s *Server) orderLocked(id string) *model.Order {
	for i := range s.orders {
		if s.orders[i].OrderID == id {
			return &s.orders[i]
		}
	}
	return nil
}

func (s *Server) campaignsForLocked(items []model.CartItem) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range s.discounts {
		if !d.activeAt(s.now) {
			continue
		}
		for _, it := range items {
			for _, pid := range d.perfumeIDs {
				if pid == it.PerfumeID && !seen[d.name] {
					seen[d.name] = true
					out = append(out, d.name)
				}
			}
		}
	}
	return out
}

func validCard(req model.MakeOrderRequest) string {
	digits := strings.ReplaceAll(req.CardNumber, " ", "")
	switch {
	case strings.TrimSpace(req.ShippingAddress) == "":
		return "shipping address is required"
	case len(digits) != 16 || strings.Trim(digits, "0123456789") != "":
		return "card number must be 16 digits"
	case len(req.CVV) != 3 || strings.Trim(req.CVV, "0123456789") != "":
		return "cvv must be 3 digits"
	case strings.TrimSpace(req.CardHolder) == "":
		return "card holder is required"
	}
	return ""
}

func (s *Server) makeOrder(w http.ResponseWriter, r *http.Request) {
	var req model.MakeOrderRequest
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
	if msg := validCard(req); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_PAYMENT", msg)
		return
	}
	lines := s.carts[acc.user.ID]
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_CART", "cart is empty")
		return
	}

	o := model.Order{
		OrderID:          s.nextID("o"),
		UserID:           acc.user.ID,
		TotalAmount:      decimal.Zero,
		AppliedCampaigns: s.campaignsForLocked(lines),
		Status:           model.OrderProcessing,
		CreatedAt:        s.tick(),
	}
	o.InvoiceNumber = fmt.Sprintf("INV-%04d", s.ids["o"])
	for _, line := range lines {
		unit := line.DiscountedPrice
		if unit.IsZero() {
			unit = line.Price
		}
		total := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		o.Items = append(o.Items, model.OrderItem{
			PerfumeID:   line.PerfumeID,
			PerfumeName: line.PerfumeName,
			Volume:      line.Volume,
			Quantity:    line.Quantity,
			Price:       unit,
			TotalAmount: total,
		})
		o.TotalAmount = o.TotalAmount.Add(total)
	}
	s.orders = append(s.orders, o)
	delete(s.carts, acc.user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "order placed", "item": o})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	out := []model.Order{}
	for _, o := range s.orders {
		if o.UserID == acc.user.ID {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": out})
}

func (s *Server) allOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager, model.RoleSalesManager); !ok {
		return
	}
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if acc := s.accountByIDLocked(o.UserID); acc != nil {
			o.UserName = acc.user.DisplayName()
			o.UserEmail = acc.user.Email
		}
		out = append(out, o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": out})
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	status := model.OrderStatus(strings.ToUpper(vars["status"]))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleProductManager, model.RoleSalesManager); !ok {
		return
	}
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "unknown order status "+vars["status"])
		return
	}
	o := s.orderLocked(vars["id"])
	if o == nil {
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order "+vars["id"]+" not found")
		return
	}
	if o.Status == model.OrderCancelled && status != model.OrderCancelled {
		writeError(w, http.StatusConflict, "ORDER_CLOSED", "order "+o.OrderID+" is cancelled")
		return
	}
	o.Status = status
	writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

// Refunds

func (s *Server) refundLocked(id string) *model.Refund {
	for i := range s.refunds {
		if s.refunds[i].RefundRequestID == id {
			return &s.refunds[i]
		}
	}
	return nil
}

func (s *Server) requestRefund(w http.ResponseWriter, r *http.Request) {
	var req model.RefundRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid body")
		return
	}
	orderID := mux.Vars(r)["orderId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	o := s.orderLocked(orderID)
	if o == nil || o.UserID != acc.user.ID {
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order "+orderID+" not found")
		return
	}
	if o.Status != model.OrderDelivered {
		writeError(w, http.StatusBadRequest, "ORDER_NOT_DELIVERED", "only delivered orders can be refunded")
		return
	}
	if len(req.Items) == 0 {
		badRequest(w, "no items to refund")
		return
	}

	ref := model.Refund{
		RefundRequestID:   s.nextID("rf"),
		OrderID:           o.OrderID,
		InvoiceNumber:     o.InvoiceNumber,
		OrderDate:         o.CreatedAt.UnixMilli(),
		CreatedAt:         s.tick().UnixMilli(),
		Status:            model.RefundPending,
		TotalRefundAmount: decimal.Zero,
		UserID:            acc.user.ID,
		UserName:          acc.user.DisplayName(),
		UserEmail:         acc.user.Email,
	}
	for _, line := range req.Items {
		var ordered *model.OrderItem
		for i := range o.Items {
			if o.Items[i].PerfumeID == line.PerfumeID && o.Items[i].Volume == line.Volume {
				ordered = &o.Items[i]
			}
		}
		if ordered == nil || line.Quantity < 1 || line.Quantity > ordered.Quantity {
			writeError(w, http.StatusBadRequest, "INVALID_REFUND", "line "+line.PerfumeID+" does not match the order")
			return
		}
		amount := ordered.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		brand := ""
		if p, ok := s.perfumes[line.PerfumeID]; ok {
			brand = p.Brand
		}
		ref.Items = append(ref.Items, model.RefundPerfume{
			Brand:        brand,
			PerfumeName:  ordered.PerfumeName,
			Quantity:     line.Quantity,
			RefundAmount: amount,
		})
		ref.TotalRefundAmount = ref.TotalRefundAmount.Add(amount)
	}
	s.refunds = append(s.refunds, ref)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "refund requested", "item": ref})
}

func (s *Server) listRefunds(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	out := []model.Refund{}
	for _, ref := range s.refunds {
		if ref.UserID == acc.user.ID {
			out = append(out, ref)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": out})
}

func (s *Server) allRefunds(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleSalesManager); !ok {
		return
	}
	out := append([]model.Refund{}, s.refunds...)
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": out})
}

func (s *Server) decideRefund(w http.ResponseWriter, r *http.Request, to model.RefundStatus) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleSalesManager); !ok {
		return
	}
	ref := s.refundLocked(id)
	if ref == nil {
		writeError(w, http.StatusNotFound, "REFUND_NOT_FOUND", "refund request "+id+" not found")
		return
	}
	if ref.Status != model.RefundPending {
		writeError(w, http.StatusConflict, "REFUND_CLOSED", "refund request "+id+" is "+string(ref.Status))
		return
	}
	ref.Status = to
	writeJSON(w, http.StatusOK, map[string]string{"message": "refund " + strings.ToLower(string(to))})
}

func (s *Server) approveRefund(w http.ResponseWriter, r *http.Request) {
	s.decideRefund(w, r, model.RefundApproved)
}

func (s *Server) rejectRefund(w http.ResponseWriter, r *http.Request) {
	s.decideRefund(w, r, model.RefundRejected)
}

// Discounts

func (s *Server) renderDiscountLocked(d storedDiscount) model.Discount {
	out := model.Discount{
		ID:           d.id,
		Name:         d.name,
		DiscountRate: d.rate,
		StartDate:    d.start.Format(time.RFC3339),
		EndDate:      d.end.Format(time.RFC3339),
		Active:       d.activeAt(s.now),
		Perfumes:     []model.DiscountPerfume{},
		CreatedBy:    d.createdBy,
	}
	rate := decimal.NewFromFloat(d.rate).Div(decimal.NewFromInt(100))
	for _, pid := range d.perfumeIDs {
		p, ok := s.perfumes[pid]
		if !ok {
			continue
		}
		orig, _ := cheapest(p)
		out.Perfumes = append(out.Perfumes, model.DiscountPerfume{
			ID:              p.ID,
			Name:            p.Name,
			Brand:           p.Brand,
			OriginalPrice:   orig,
			DiscountedPrice: orig.Sub(orig.Mul(rate)).Round(2),
		})
	}
	return out
}

func (s *Server) listDiscounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleSalesManager); !ok {
		return
	}
	out := make([]model.Discount, 0, len(s.discounts))
	for _, d := range s.discounts {
		out = append(out, s.renderDiscountLocked(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "items": out})
}

func (s *Server) createDiscount(w http.ResponseWriter, r *http.Request) {
	var nd model.NewDiscount
	if err := decode(r, &nd); err != nil {
		badRequest(w, "invalid body")
		return
	}
	switch {
	case strings.TrimSpace(nd.Name) == "":
		badRequest(w, "name is required")
		return
	case nd.DiscountRate <= 0 || nd.DiscountRate > 100:
		badRequest(w, "discount rate must be in (0, 100]")
		return
	case nd.EndDate <= nd.StartDate:
		badRequest(w, "end date must be after start date")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r, model.RoleSalesManager)
	if !ok {
		return
	}
	for _, pid := range nd.PerfumeIDs {
		if _, ok := s.perfumes[pid]; !ok {
			writeError(w, http.StatusNotFound, "PERFUME_NOT_FOUND", "perfume "+pid+" not found")
			return
		}
	}
	d := storedDiscount{
		id:         s.nextID("d"),
		name:       nd.Name,
		rate:       nd.DiscountRate,
		start:      time.UnixMilli(nd.StartDate).UTC(),
		end:        time.UnixMilli(nd.EndDate).UTC(),
		perfumeIDs: append([]string(nil), nd.PerfumeIDs...),
		createdBy:  acc.user.ID,
	}
	s.discounts = append(s.discounts, d)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "discount created", "item": s.renderDiscountLocked(d)})
}

func (s *Server) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requireLocked(w, r, model.RoleSalesManager); !ok {
		return
	}
	for i, d := range s.discounts {
		if d.id == id {
			s.discounts = append(s.discounts[:i], s.discounts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "discount deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "DISCOUNT_NOT_FOUND", "discount "+id+" not found")
}
