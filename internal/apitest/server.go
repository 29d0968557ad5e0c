// Package apitest is an in-memory storefront backend for tests.
//
// Server speaks the same routes and envelopes as the real API, keeps a log
// of every request, honours Idempotency-Key replays, and can be told to
// fail specific requests or expire every session.
package apitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/perfumery/internal/model"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "token"

// Request is one logged request.
type Request struct {
	Method string
	Path   string
	Key    string // Idempotency-Key header
	Body   string // compacted JSON, "" when empty
	Status int
}

func (r Request) String() string {
	s := r.Method + " " + r.Path
	if r.Key != "" {
		s += " key=" + r.Key
	}
	if r.Body != "" {
		s += " " + r.Body
	}
	return fmt.Sprintf("%s -> %d", s, r.Status)
}

// Fault is an injected failure for one matching request.
type Fault struct {
	Status int
	// AfterApply runs the handler first, then replaces its response with
	// Status. The idempotency cache keeps the real response.
	AfterApply bool
}

type account struct {
	user     model.User
	password string
}

type cachedResponse struct {
	status int
	body   []byte
}

// Server is the fake backend.
//
// Thread-safety: all methods are safe for concurrent use.
type Server struct {
	srv    *httptest.Server
	router *mux.Router

	mu         sync.Mutex
	accounts   map[string]*account // by email
	sessions   map[string]string   // token -> user id
	carts      map[string][]model.CartItem
	perfumes   map[string]*model.Perfume
	catalog    []string // perfume ids in creation order
	categories []model.Category
	orders     []model.Order
	refunds    []model.Refund
	reviews    map[string][]model.ReviewExtended // by perfume id
	ratings    map[string]map[string]int         // perfume id -> user id -> stars
	discounts  []storedDiscount
	wishlists  map[string][]string // user id -> perfume ids

	log    []Request
	faults map[string][]Fault
	replay map[string]cachedResponse
	ids    map[string]int
	now    time.Time

	legacyCart bool
}

// Epoch is the fake server's starting clock.
var Epoch = time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

// New starts a server seeded with the default catalog and accounts.
// It is closed by t.Cleanup when t is non-nil.
func New(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		accounts:  make(map[string]*account),
		sessions:  make(map[string]string),
		carts:     make(map[string][]model.CartItem),
		perfumes:  make(map[string]*model.Perfume),
		reviews:   make(map[string][]model.ReviewExtended),
		ratings:   make(map[string]map[string]int),
		wishlists: make(map[string][]string),
		faults:    make(map[string][]Fault),
		replay:    make(map[string]cachedResponse),
		ids:       make(map[string]int),
		now:       Epoch,
	}
	s.seed()
	s.router = s.routes()
	s.srv = httptest.NewServer(s.logRequests(s.injectFaults(s.idempotent(s.router))))
	if t != nil {
		t.Cleanup(s.Close)
	}
	return s
}

// URL is the server's base URL.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Requests returns the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.log...)
}

// RequestsTo returns the logged requests for method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// ResetLog clears the request log.
func (s *Server) ResetLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// Fail queues faults for the next requests to method and path.
func (s *Server) Fail(method, path string, faults ...Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.faults[k] = append(s.faults[k], faults...)
}

// FailStatus queues plain status failures for method and path.
func (s *Server) FailStatus(method, path string, statuses ...int) {
	faults := make([]Fault, len(statuses))
	for i, st := range statuses {
		faults[i] = Fault{Status: st}
	}
	s.Fail(method, path, faults...)
}

// ExpireSessions invalidates every session token. Subsequent requests
// carrying an old cookie get 401 INVALID_TOKEN.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok := range s.sessions {
		s.sessions[tok] = ""
	}
}

// Cart returns the server-side cart lines of the user with email.
func (s *Server) Cart(email string) []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return nil
	}
	return append([]model.CartItem{}, s.carts[acc.user.ID]...)
}

// SetCart replaces the server-side cart of the user with email.
func (s *Server) SetCart(email string, items ...model.SyncItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return
	}
	var lines []model.CartItem
	for _, it := range items {
		lines = s.mergeLocked(lines, it)
	}
	s.carts[acc.user.ID] = lines
}

// SetOrderStatus moves an order to status without going through the API.
func (s *Server) SetOrderStatus(orderID string, status model.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.orderLocked(orderID); o != nil {
		o.Status = status
	}
}

// UseLegacyCartEnvelope makes cart responses use {"items": cart} instead
// of {"cart": cart}.
func (s *Server) UseLegacyCartEnvelope(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacyCart = on
}

// Orders returns every placed order.
func (s *Server) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Order(nil), s.orders...)
}

// nextID returns "<prefix><n>" with a per-prefix counter.
func (s *Server) nextID(prefix string) string {
	s.ids[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.ids[prefix])
}

// tick advances the fake clock by one minute and returns it.
func (s *Server) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

// recorder buffers a handler's response.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header         { return r.header }
func (r *recorder) Write(b []byte) (int, error) { return r.body.Write(b) }
func (r *recorder) WriteHeader(status int)      { r.status = status }

func (r *recorder) flush(w http.ResponseWriter) {
	for k, v := range r.header {
		w.Header()[k] = v
	}
	w.WriteHeader(r.status)
	w.Write(r.body.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
