package apitest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roach88/perfumery/internal/model"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", s.login).Methods(http.MethodPost)
	auth.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	auth.HandleFunc("/me", s.me).Methods(http.MethodGet)
	auth.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	auth.HandleFunc("/update-profile", s.updateProfile).Methods(http.MethodPut)
	auth.HandleFunc("/change-password", s.changePassword).Methods(http.MethodPut)

	cart := r.PathPrefix("/cart").Subrouter()
	cart.HandleFunc("", s.getCart).Methods(http.MethodGet)
	cart.HandleFunc("/sync", s.syncCart).Methods(http.MethodPost)
	cart.HandleFunc("/add", s.addToCart).Methods(http.MethodPost)
	cart.HandleFunc("/remove", s.removeFromCart).Methods(http.MethodPost)
	cart.HandleFunc("/clear", s.clearCart).Methods(http.MethodPost)

	r.HandleFunc("/perfumes", s.searchPerfumes).Methods(http.MethodPost)
	r.HandleFunc("/perfumes/add", s.addPerfume).Methods(http.MethodPost)
	r.HandleFunc("/perfumes/update/{id}", s.updatePerfume).Methods(http.MethodPatch)
	r.HandleFunc("/perfumes/remove/{id}", s.deletePerfume).Methods(http.MethodDelete)
	r.HandleFunc("/perfumes/{id}", s.getPerfume).Methods(http.MethodGet)

	r.HandleFunc("/categories", s.listCategories).Methods(http.MethodGet)
	r.HandleFunc("/categories", s.createCategory).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id}", s.deleteCategory).Methods(http.MethodDelete)

	r.HandleFunc("/review/all", s.allReviews).Methods(http.MethodGet)
	r.HandleFunc("/review/approve/{id}", s.approveReview).Methods(http.MethodPost)
	r.HandleFunc("/review/reject/{id}", s.rejectReview).Methods(http.MethodPost)
	r.HandleFunc("/review/rating/{perfumeId}", s.getRating).Methods(http.MethodGet)
	r.HandleFunc("/review/rating/{perfumeId}", s.rate).Methods(http.MethodPost)
	r.HandleFunc("/review/{perfumeId}/public", s.publicReviews).Methods(http.MethodGet)
	r.HandleFunc("/review/{perfumeId}", s.writeReview).Methods(http.MethodPost)

	r.HandleFunc("/orders", s.listOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders", s.makeOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders/all", s.allOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/updateStatus/{id}/{status}", s.updateOrderStatus).Methods(http.MethodPost)
	r.HandleFunc("/orders/refundRequests", s.listRefunds).Methods(http.MethodGet)
	r.HandleFunc("/orders/refundRequests/all", s.allRefunds).Methods(http.MethodGet)
	r.HandleFunc("/orders/refundRequests/{id}/approve", s.approveRefund).Methods(http.MethodPost)
	r.HandleFunc("/orders/refundRequests/{id}/reject", s.rejectRefund).Methods(http.MethodPost)
	r.HandleFunc("/orders/{orderId}/refundRequests", s.requestRefund).Methods(http.MethodPost)

	r.HandleFunc("/discounts", s.listDiscounts).Methods(http.MethodGet)
	r.HandleFunc("/discounts", s.createDiscount).Methods(http.MethodPost)
	r.HandleFunc("/discounts/{id}", s.deleteDiscount).Methods(http.MethodDelete)

	r.HandleFunc("/wishlist", s.getWishlist).Methods(http.MethodGet)
	r.HandleFunc("/wishlist/add", s.addToWishlist).Methods(http.MethodPost)
	r.HandleFunc("/wishlist/remove", s.removeFromWishlist).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" "+r.URL.Path)
	})
	return r
}

// sessionLocked resolves the request's session cookie. code is the error
// code to report when acc is nil.
func (s *Server) sessionLocked(r *http.Request) (acc *account, code string) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, "UNAUTHORIZED"
	}
	uid, ok := s.sessions[c.Value]
	if !ok || uid == "" {
		return nil, "INVALID_TOKEN"
	}
	acc = s.accountByIDLocked(uid)
	if acc == nil {
		return nil, "INVALID_TOKEN"
	}
	return acc, ""
}

// requireLocked writes a 401/403 and returns false unless the request
// belongs to a signed-in user holding one of roles (any role when empty).
func (s *Server) requireLocked(w http.ResponseWriter, r *http.Request, roles ...model.Role) (*account, bool) {
	acc, code := s.sessionLocked(r)
	if acc == nil {
		msg := "authentication required"
		if code == "INVALID_TOKEN" {
			msg = "session expired, sign in again"
		}
		writeError(w, http.StatusUnauthorized, code, msg)
		return nil, false
	}
	if len(roles) == 0 {
		return acc, true
	}
	for _, role := range roles {
		if acc.user.Role == role {
			return acc, true
		}
	}
	writeError(w, http.StatusForbidden, "FORBIDDEN", "role "+string(acc.user.Role)+" may not "+r.Method+" "+r.URL.Path)
	return nil, false
}

func (s *Server) accountByIDLocked(id string) *account {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc
		}
	}
	return nil
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "VALIDATION", message)
}
