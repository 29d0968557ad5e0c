package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/idgen"
	"github.com/roach88/perfumery/internal/model"
)

// DefaultDebounce is the delay between the last add and the follow-up resync.
const DefaultDebounce = 400 * time.Millisecond

// Remote is the server side of the cart. Implemented by *api.Client.
type Remote interface {
	GetCart(ctx context.Context) (model.Cart, error)
	SyncCart(ctx context.Context, items []model.SyncItem) (model.Cart, error)
	AddToCart(ctx context.Context, item model.SyncItem) (model.Cart, error)
	RemoveFromCart(ctx context.Context, item model.SyncItem) (model.Cart, error)
	ClearCart(ctx context.Context) error
}

// Session reports whether remote sync is enabled. Implemented by *session.Manager.
type Session interface {
	IsAuthenticated() bool
}

// Journal records basket mutations. Implemented by *store.Store.
type Journal interface {
	AppendCartEvent(ctx context.Context, ev model.CartEvent) error
}

// Service is the basket as seen by the rest of the client: optimistic local
// mutations plus remote reconciliation when the session is authenticated.
//
// Thread-safety: all methods are safe for concurrent use. Reconciliations
// are serialized; at most one debounced resync is armed at a time.
type Service struct {
	store   *Store
	remote  Remote
	session Session
	journal Journal
	keys    idgen.Generator
	logger  *zap.Logger

	scheduler   Scheduler
	debounce    time.Duration
	syncTimeout time.Duration

	mu      sync.Mutex
	stop    func() bool // armed resync, nil when none
	gen     uint64
	running int        // fired resyncs not yet finished
	idle    *sync.Cond // signalled when running drops to 0

	syncMu sync.Mutex // serializes reconciliations
}

// Option configures a Service.
type Option func(*Service)

// WithDebounce sets the resync delay after an add.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// WithScheduler replaces the runtime timer scheduler (for testing).
func WithScheduler(sched Scheduler) Option {
	return func(s *Service) { s.scheduler = sched }
}

// WithJournal records every mutation and its remote outcome.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithKeys sets the idempotency key generator. Default: UUIDv7Generator.
func WithKeys(g idgen.Generator) Option {
	return func(s *Service) { s.keys = g }
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSyncTimeout bounds a debounced resync, which has no caller context.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Service) { s.syncTimeout = d }
}

// NewService creates a Service over st.
func NewService(st *Store, remote Remote, sess Session, opts ...Option) *Service {
	s := &Service{
		store:       st,
		remote:      remote,
		session:     sess,
		keys:        idgen.UUIDv7Generator{},
		logger:      zap.NewNop(),
		scheduler:   RealScheduler{},
		debounce:    DefaultDebounce,
		syncTimeout: 10 * time.Second,
	}
	s.idle = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current basket.
func (s *Service) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// AddToBasket merges item into the basket. When authenticated it sends the
// same line to the server and arms a debounced resync.
//
// The returned snapshot reflects the local mutation even when err != nil.
func (s *Service) AddToBasket(ctx context.Context, item model.CartItem) (Snapshot, error) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	snap := s.store.Dispatch(AddItem{Item: item})
	ev := model.CartEvent{
		Seq:       snap.Seq,
		Action:    AddItem{}.Name(),
		PerfumeID: item.PerfumeID,
		Volume:    item.Volume,
		Quantity:  item.Quantity,
	}

	if !s.session.IsAuthenticated() {
		s.record(ctx, ev, nil)
		return snap, nil
	}

	ev.Key = s.keys.Generate()
	_, err := s.remote.AddToCart(idgen.WithKey(ctx, ev.Key), item.SyncItem())
	s.record(ctx, ev, err)
	s.scheduleResync()
	if err != nil {
		s.logger.Warn("cart: remote add failed",
			zap.String("line", item.Key().String()),
			zap.Error(err),
		)
		return snap, fmt.Errorf("add to cart: %w", err)
	}
	return snap, nil
}

// RemoveFromBasket takes quantity units off the matching line, deleting the
// line when quantity covers it. When authenticated the same delta is sent
// to the server.
func (s *Service) RemoveFromBasket(ctx context.Context, perfumeID string, volume, quantity int) (Snapshot, error) {
	snap := s.store.Dispatch(RemoveItem{PerfumeID: perfumeID, Volume: volume, Quantity: quantity})
	ev := model.CartEvent{
		Seq:       snap.Seq,
		Action:    RemoveItem{}.Name(),
		PerfumeID: perfumeID,
		Volume:    volume,
		Quantity:  quantity,
	}

	if !s.session.IsAuthenticated() {
		s.record(ctx, ev, nil)
		return snap, nil
	}

	ev.Key = s.keys.Generate()
	item := model.SyncItem{Perfume: perfumeID, Volume: volume, Quantity: quantity}
	_, err := s.remote.RemoveFromCart(idgen.WithKey(ctx, ev.Key), item)
	s.record(ctx, ev, err)
	if err != nil {
		s.logger.Warn("cart: remote remove failed",
			zap.String("line", item.Key().String()),
			zap.Error(err),
		)
		return snap, fmt.Errorf("remove from cart: %w", err)
	}
	return snap, nil
}

// EmptyCart clears the basket and, when authenticated, the server cart.
// It does not reconcile.
func (s *Service) EmptyCart(ctx context.Context) (Snapshot, error) {
	s.cancelResync()
	snap := s.store.Dispatch(ClearItems{})
	ev := model.CartEvent{Seq: snap.Seq, Action: ClearItems{}.Name()}

	if !s.session.IsAuthenticated() {
		s.record(ctx, ev, nil)
		return snap, nil
	}

	ev.Key = s.keys.Generate()
	err := s.remote.ClearCart(idgen.WithKey(ctx, ev.Key))
	s.record(ctx, ev, err)
	if err != nil {
		s.logger.Warn("cart: remote clear failed", zap.Error(err))
		return snap, fmt.Errorf("clear cart: %w", err)
	}
	return snap, nil
}

// SyncCart reconciles the basket with the server: it fetches the server
// cart, posts the union of server lines and local-only lines, and replaces
// the basket with the response. Called after login and by the debounced
// resync. Anonymous sessions return the local basket unchanged.
func (s *Service) SyncCart(ctx context.Context) (Snapshot, error) {
	if !s.session.IsAuthenticated() {
		return s.store.Snapshot(), nil
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	base := s.store.Snapshot()
	remote, err := s.remote.GetCart(ctx)
	if err != nil {
		s.logger.Warn("cart: fetch for sync failed", zap.Error(err))
		return base, fmt.Errorf("sync cart: fetch: %w", err)
	}

	union := Union(base.Items, remote.Items)
	key := s.keys.Generate()
	merged, err := s.remote.SyncCart(idgen.WithKey(ctx, key), union)
	ev := model.CartEvent{Seq: base.Seq, Action: "sync", Quantity: len(union), Key: key}
	s.record(ctx, ev, err)
	if err != nil {
		s.logger.Warn("cart: sync failed", zap.Int("lines", len(union)), zap.Error(err))
		return base, fmt.Errorf("sync cart: %w", err)
	}

	snap, lost := s.store.Apply(merged.Items, base.Seq)
	if len(lost) > 0 {
		lines := make([]string, len(lost))
		for i, k := range lost {
			lines[i] = k.String()
		}
		s.logger.Warn("cart: local mutations overwritten by sync",
			zap.Int64("snapshot_seq", base.Seq),
			zap.Int64("applied_seq", snap.Seq),
			zap.Strings("lost", lines),
		)
	}
	s.logger.Debug("cart: synced",
		zap.Int("sent", len(union)),
		zap.Int("received", len(snap.Items)),
	)
	return snap, nil
}

// Load replaces the basket with the server cart when authenticated. This is
// the start-up fetch; it does not push local lines.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	if !s.session.IsAuthenticated() {
		return s.store.Snapshot(), nil
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	base := s.store.Snapshot()
	remote, err := s.remote.GetCart(ctx)
	if err != nil {
		s.logger.Warn("cart: load failed", zap.Error(err))
		return base, fmt.Errorf("load cart: %w", err)
	}
	snap, _ := s.store.Apply(remote.Items, base.Seq)
	return snap, nil
}

// Flush runs an armed resync now and waits for one already in flight.
// A CLI process calls Flush before exiting.
func (s *Service) Flush(ctx context.Context) error {
	if s.cancelResync() {
		_, err := s.SyncCart(ctx)
		return err
	}
	// wait out a resync that already fired
	s.mu.Lock()
	for s.running > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
	return nil
}

// Pending reports whether a debounced resync is armed.
func (s *Service) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Close disarms any pending resync without running it.
func (s *Service) Close() {
	s.cancelResync()
}

func (s *Service) scheduleResync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
	s.gen++
	gen := s.gen
	s.stop = s.scheduler.AfterFunc(s.debounce, func() { s.runResync(gen) })
}

func (s *Service) runResync(gen uint64) {
	s.mu.Lock()
	// superseded by a newer add, or cancelled by Flush/Close/EmptyCart
	if gen != s.gen || s.stop == nil {
		s.mu.Unlock()
		return
	}
	s.stop = nil
	s.running++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running--
		if s.running == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()
	if _, err := s.SyncCart(ctx); err != nil {
		s.logger.Warn("cart: debounced resync failed", zap.Error(err))
	}
}

// cancelResync disarms the pending resync and reports whether one was armed.
func (s *Service) cancelResync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return false
	}
	s.stop()
	s.stop = nil
	return true
}

func (s *Service) record(ctx context.Context, ev model.CartEvent, remoteErr error) {
	if s.journal == nil {
		return
	}
	switch {
	case ev.Key == "":
		ev.Outcome = model.OutcomeLocal
	case remoteErr != nil:
		ev.Outcome = model.OutcomeFailed
		ev.Error = remoteErr.Error()
	default:
		ev.Outcome = model.OutcomeSynced
	}
	if err := s.journal.AppendCartEvent(ctx, ev); err != nil {
		s.logger.Error("cart: journal write failed", zap.String("action", ev.Action), zap.Error(err))
	}
}
