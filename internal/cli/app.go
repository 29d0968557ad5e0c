package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/api"
	"github.com/roach88/perfumery/internal/cart"
	"github.com/roach88/perfumery/internal/config"
	"github.com/roach88/perfumery/internal/idgen"
	"github.com/roach88/perfumery/internal/routes"
	"github.com/roach88/perfumery/internal/session"
	"github.com/roach88/perfumery/internal/store"
)

// App is one CLI process worth of client state: the local store, the API
// client and the session and cart built over them.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Store   *store.Store
	Client  *api.Client
	Session *session.Manager
	Cart    *cart.Service
}

type appOptions struct {
	logger    *zap.Logger
	scheduler cart.Scheduler
	keys      idgen.Generator
	transport http.RoundTripper
}

// AppOption configures Open.
type AppOption func(*appOptions)

// WithAppLogger replaces the logger built from the configured level.
func WithAppLogger(l *zap.Logger) AppOption {
	return func(o *appOptions) { o.logger = l }
}

// WithAppScheduler replaces the timer scheduler of the cart resync.
func WithAppScheduler(s cart.Scheduler) AppOption {
	return func(o *appOptions) { o.scheduler = s }
}

// WithAppKeys sets the idempotency key generator shared by the client and the cart.
func WithAppKeys(g idgen.Generator) AppOption {
	return func(o *appOptions) { o.keys = g }
}

// WithAppTransport replaces the HTTP transport of the API client.
func WithAppTransport(rt http.RoundTripper) AppOption {
	return func(o *appOptions) { o.transport = rt }
}

// Open restores the persisted session, cookies and basket and wires the
// client state together. The caller must Close the App.
func Open(ctx context.Context, cfg config.Config, opts ...AppOption) (*App, error) {
	o := appOptions{
		scheduler: cart.RealScheduler{},
		keys:      idgen.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		l, err := config.NewLogger(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		o.logger = l
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "open store", Err: err}
	}
	app, err := wire(ctx, cfg, st, o)
	if err != nil {
		st.Close()
		return nil, err
	}
	return app, nil
}

func wire(ctx context.Context, cfg config.Config, st *store.Store, o appOptions) (*App, error) {
	jar, err := api.NewJar(cfg.APIURL)
	if err != nil {
		return nil, err
	}
	if err := jar.Load(ctx, st); err != nil {
		return nil, fmt.Errorf("restore cookies: %w", err)
	}

	clientOpts := []api.Option{
		api.WithJar(jar),
		api.WithTimeout(cfg.RequestTimeout.Std()),
		api.WithRetry(api.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay.Std(),
			MaxDelay:    cfg.Retry.MaxDelay.Std(),
		}),
		api.WithKeys(o.keys),
		api.WithLogger(o.logger),
	}
	if o.transport != nil {
		clientOpts = append(clientOpts, api.WithTransport(o.transport))
	}
	client, err := api.NewClient(cfg.APIURL, clientOpts...)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, ErrCode: ErrCodeConfig, Message: "api client", Err: err}
	}

	user, ok, err := st.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	initial := session.State{}
	if ok {
		initial = session.State{Authenticated: true, User: &user}
	}
	mgr := session.NewManager(client, st, o.logger, initial)

	client.OnInvalidToken(func(ctx context.Context) {
		mgr.Invalidate(ctx)
		if err := st.ClearCookies(ctx); err != nil {
			o.logger.Error("cli: clear cookies failed", zap.Error(err))
		}
		jar.Reset()
	})

	seq, items, err := st.LoadBasket(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore basket: %w", err)
	}
	svc := cart.NewService(cart.NewStoreAt(seq, items...), client, mgr,
		cart.WithDebounce(cfg.SyncDebounce.Std()),
		cart.WithScheduler(o.scheduler),
		cart.WithJournal(st),
		cart.WithKeys(o.keys),
		cart.WithLogger(o.logger),
		cart.WithSyncTimeout(cfg.RequestTimeout.Std()),
	)

	return &App{
		Config:  cfg,
		Logger:  o.logger,
		Store:   st,
		Client:  client,
		Session: mgr,
		Cart:    svc,
	}, nil
}

// Validate re-checks a restored session with the server, the page-load
// step of the storefront. A rejected session is cleared locally.
func (a *App) Validate(ctx context.Context) {
	if !a.Session.IsAuthenticated() {
		return
	}
	if err := a.Session.Me(ctx); err != nil {
		a.Logger.Info("cli: signed out", zap.Error(err))
	}
}

// Tree returns the command tree for the current session.
func (a *App) Tree() routes.Tree {
	return routes.Select(a.Session.Role())
}

// Close runs any pending cart resync, then persists the basket and cookies
// and closes the store.
func (a *App) Close(ctx context.Context) error {
	if err := a.Cart.Flush(ctx); err != nil {
		a.Logger.Warn("cli: final cart sync failed", zap.Error(err))
	}
	a.Cart.Close()

	snap := a.Cart.Snapshot()
	var errs []error
	if err := a.Store.SaveBasket(ctx, snap.Seq, snap.Items); err != nil {
		errs = append(errs, fmt.Errorf("save basket: %w", err))
	}
	if err := a.Client.Jar().Save(ctx, a.Store); err != nil {
		errs = append(errs, fmt.Errorf("save cookies: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
