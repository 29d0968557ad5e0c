package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/api"
	"github.com/roach88/perfumery/internal/apitest"
	"github.com/roach88/perfumery/internal/cart"
	"github.com/roach88/perfumery/internal/idgen"
	"github.com/roach88/perfumery/internal/model"
	"github.com/roach88/perfumery/internal/session"
	"github.com/roach88/perfumery/internal/testutil"
)

// Harness is one client session over a fresh fake backend.
type Harness struct {
	srv     *apitest.Server
	jar     *api.Jar
	client  *api.Client
	session *session.Manager
	cart    *cart.Service
	sched   *testutil.ManualScheduler
	catalog map[string]model.PerfumeDetail
	logger  *zap.Logger
}

// New starts a backend and wires a client session to it. The caller must
// Close the harness.
func New(logger *zap.Logger) (*Harness, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := apitest.New(nil)

	jar, err := api.NewJar(srv.URL())
	if err != nil {
		srv.Close()
		return nil, err
	}
	keys := idgen.NewSequenceGenerator("k")
	client, err := api.NewClient(srv.URL(),
		api.WithJar(jar),
		api.WithKeys(keys),
		api.WithRetry(api.RetryPolicy{MaxAttempts: 2}),
		api.WithLogger(logger),
	)
	if err != nil {
		srv.Close()
		return nil, err
	}

	mgr := session.NewManager(client, nil, logger, session.State{})
	client.OnInvalidToken(func(ctx context.Context) {
		mgr.Invalidate(ctx)
		jar.Reset()
	})

	sched := testutil.NewManualScheduler()
	svc := cart.NewService(cart.NewStore(), client, mgr,
		cart.WithScheduler(sched),
		cart.WithKeys(keys),
		cart.WithLogger(logger),
	)

	return &Harness{
		srv:     srv,
		jar:     jar,
		client:  client,
		session: mgr,
		cart:    svc,
		sched:   sched,
		catalog: make(map[string]model.PerfumeDetail),
		logger:  logger,
	}, nil
}

// Server exposes the backend for checks beyond the scenario assertions.
func (h *Harness) Server() *apitest.Server { return h.srv }

// Close stops the resync timer and the backend.
func (h *Harness) Close() {
	h.cart.Close()
	h.srv.Close()
}

// Run executes a scenario against a fresh backend and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start harness: %w", err)
	}
	defer h.Close()
	return h.Run(context.Background(), scenario)
}

// Run executes setup, flow and assertions of scenario.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	for i, step := range scenario.Setup {
		if _, err := h.exec(ctx, step); err != nil {
			return nil, fmt.Errorf("setup step %d (%s): %w", i, step.Do, err)
		}
	}

	for i, step := range scenario.Flow {
		fired, err := h.exec(ctx, step)
		if msg := h.check(step, fired, err); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Do, msg))
		}
		h.logger.Debug("harness: step done",
			zap.Int("step", i),
			zap.String("do", step.Do),
			zap.Error(err),
		)
	}

	result.Trace = traceOf(h.srv.Requests())
	snap := h.cart.Snapshot()
	if len(snap.Items) > 0 {
		result.Basket = snap.Items
	}
	result.SignedIn = h.session.IsAuthenticated()

	actx := &AssertionContext{
		Server:  h.srv,
		Pending: h.sched.Pending(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// check compares a step outcome with its expect clause. A step without
// one must succeed.
func (h *Harness) check(step Step, fired int, err error) string {
	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}
	switch {
	case err == nil && want != "":
		return fmt.Sprintf("expected error %s, got success", want)
	case err != nil && want == "":
		return fmt.Sprintf("unexpected error: %v", err)
	case err != nil:
		got := "ERROR"
		if apiErr, ok := api.AsError(err); ok {
			got = apiErr.Code
		}
		if got != want {
			return fmt.Sprintf("expected error %s, got %s (%v)", want, got, err)
		}
	}
	if step.Expect == nil {
		return ""
	}
	if u := step.Expect.Units; u != nil {
		if got := h.cart.Snapshot().Count(); got != *u {
			return fmt.Sprintf("expected %d unit(s) in the basket, got %d", *u, got)
		}
	}
	if f := step.Expect.Fired; f != nil && fired != *f {
		return fmt.Sprintf("expected %d timer(s) to fire, got %d", *f, fired)
	}
	return ""
}

// exec runs one step. fired is the number of timers a fire step ran.
func (h *Harness) exec(ctx context.Context, st Step) (fired int, err error) {
	switch st.Do {
	case StepLogin:
		password := st.Password
		if password == "" {
			password = apitest.Password
		}
		if _, err := h.session.SignIn(ctx, st.Email, password); err != nil {
			return 0, err
		}
		_, err = h.cart.SyncCart(ctx)
	case StepLogout:
		h.session.Logout(ctx)
		h.jar.Reset()
		_, err = h.cart.EmptyCart(ctx)
	case StepAdd:
		item, lerr := h.item(ctx, st)
		if lerr != nil {
			return 0, lerr
		}
		_, err = h.cart.AddToBasket(ctx, item)
	case StepRemove:
		_, err = h.cart.RemoveFromBasket(ctx, st.Perfume, st.Volume, st.Quantity)
	case StepClear:
		_, err = h.cart.EmptyCart(ctx)
	case StepSync:
		_, err = h.cart.SyncCart(ctx)
	case StepLoad:
		_, err = h.cart.Load(ctx)
	case StepFlush:
		err = h.cart.Flush(ctx)
	case StepFire:
		fired = h.sched.Fire()
	case StepExpire:
		h.srv.ExpireSessions()
	case StepFail:
		h.srv.FailStatus(st.Method, st.Path, st.Status)
	case StepServerCart:
		items := make([]model.SyncItem, len(st.Items))
		for i, l := range st.Items {
			items[i] = model.SyncItem{Perfume: l.Perfume, Volume: l.Volume, Quantity: l.Quantity}
		}
		h.srv.SetCart(st.Email, items...)
	default:
		return 0, fmt.Errorf("unknown step %q", st.Do)
	}
	return fired, err
}

// item builds the cart line of an add step from the catalog, fetching
// each perfume once per session.
func (h *Harness) item(ctx context.Context, st Step) (model.CartItem, error) {
	d, ok := h.catalog[st.Perfume]
	if !ok {
		var err error
		d, err = h.client.GetPerfume(ctx, st.Perfume)
		if err != nil {
			return model.CartItem{}, err
		}
		h.catalog[st.Perfume] = d
	}
	v, ok := d.Variant(st.Volume)
	if !ok {
		return model.CartItem{}, fmt.Errorf("%s is not sold in %dml", st.Perfume, st.Volume)
	}
	qty := st.Quantity
	if qty <= 0 {
		qty = 1
	}
	return d.CartItem(v, qty), nil
}
