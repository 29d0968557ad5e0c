package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/apitest"
	"github.com/roach88/perfumery/internal/idgen"
	"github.com/roach88/perfumery/internal/model"
)

type testClient struct {
	*Client
	mu     sync.Mutex
	delays []time.Duration
}

func newTestClient(t *testing.T, srv *apitest.Server) *testClient {
	t.Helper()
	c, err := NewClient(srv.URL(),
		WithRetry(RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 15 * time.Millisecond}),
		WithKeys(idgen.NewSequenceGenerator("gen")),
	)
	require.NoError(t, err)
	tc := &testClient{Client: c}
	c.sleep = func(_ context.Context, d time.Duration) error {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		tc.delays = append(tc.delays, d)
		return nil
	}
	return tc
}

func signedIn(t *testing.T, srv *apitest.Server, email string) *testClient {
	t.Helper()
	c := newTestClient(t, srv)
	_, err := c.Login(context.Background(), model.Credentials{Email: email, Password: apitest.Password})
	require.NoError(t, err)
	srv.ResetLog()
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)

	_, err = NewClient("://bad")
	assert.Error(t, err)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, 300*time.Millisecond, p.delay(3))
	assert.Equal(t, 300*time.Millisecond, p.delay(4))

	uncapped := RetryPolicy{BaseDelay: time.Second}
	assert.Equal(t, 4*time.Second, uncapped.delay(3))
	assert.Equal(t, 1, uncapped.attempts())
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	u, err := c.Login(ctx, model.Credentials{Email: apitest.CustomerEmail, Password: apitest.Password})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, u.Role)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, me)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	_, err := c.Login(context.Background(), model.Credentials{Email: apitest.CustomerEmail, Password: "nope"})
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Equal(t, KindAuth, apiErr.Kind)
	assert.Contains(t, err.Error(), "POST /auth/login: 401 INVALID_CREDENTIALS")
}

func TestSignupAndProfile(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	u, err := c.Signup(ctx, model.Registration{Email: "new@example.com", Password: "hunter22", FirstName: "Nia"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, u.Role)

	u, err = c.UpdateProfile(ctx, model.ProfileUpdate{LastName: "Ode", Age: 41})
	require.NoError(t, err)
	assert.Equal(t, "Nia Ode", u.DisplayName())
	assert.Equal(t, 41, u.Age)

	err = c.ChangePassword(ctx, model.PasswordChange{OldPassword: "wrong", NewPassword: "whatever1"})
	assert.True(t, IsKind(err, KindValidation))
	require.NoError(t, c.ChangePassword(ctx, model.PasswordChange{OldPassword: "hunter22", NewPassword: "hunter33"}))

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	assert.True(t, IsKind(err, KindAuth))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	_, err := c.Signup(context.Background(), model.Registration{Email: apitest.CustomerEmail, Password: "longenough"})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, KindValidation, apiErr.Kind)
}

func TestCart_Operations(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)
	ctx := context.Background()

	cart, err := c.AddToCart(idgen.WithKey(ctx, "k-add"), model.SyncItem{Perfume: "p1", Volume: 50, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Aventus", cart.Items[0].PerfumeName)
	assert.Equal(t, "179.8", cart.TotalPrice.String())

	cart, err = c.SyncCart(ctx, []model.SyncItem{
		{Perfume: "p1", Volume: 50, Quantity: 2},
		{Perfume: "p2", Volume: 30, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "40.5", cart.Items[1].DiscountedPrice.String(), "spring discount applies")

	cart, err = c.RemoveFromCart(ctx, model.SyncItem{Perfume: "p1", Volume: 50, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	require.NoError(t, c.ClearCart(ctx))
	cart, err = c.GetCart(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)

	reqs := srv.Requests()
	require.Len(t, reqs, 5)
	assert.Equal(t, "k-add", reqs[0].Key, "key from context")
	assert.Equal(t, "gen-1", reqs[1].Key, "generated key")
	assert.Equal(t, "gen-2", reqs[2].Key)
	assert.Equal(t, "gen-3", reqs[3].Key)
	assert.Empty(t, reqs[4].Key, "GET carries no key")
}

func TestCart_LegacyEnvelope(t *testing.T) {
	srv := apitest.New(t)
	srv.UseLegacyCartEnvelope(true)
	srv.SetCart(apitest.CustomerEmail, model.SyncItem{Perfume: "p3", Volume: 100, Quantity: 1})
	c := signedIn(t, srv, apitest.CustomerEmail)

	cart, err := c.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p3", cart.Items[0].PerfumeID)
	assert.Equal(t, "150", cart.TotalPrice.String())
}

func TestCartResponse_ItemsArray(t *testing.T) {
	resp := cartResponse{Items: []byte(` [{"perfumeId":"p1","volume":50,"quantity":2,"price":10}]`)}
	cart, err := resp.cart()
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "20", cart.TotalPrice.String())

	_, err = cartResponse{Items: []byte(`"nope"`)}.cart()
	assert.Error(t, err)
}

func TestRetry_ReusesKey(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)
	srv.FailStatus(http.MethodPost, "/cart/add", http.StatusServiceUnavailable, http.StatusTooManyRequests)

	_, err := c.AddToCart(context.Background(), model.SyncItem{Perfume: "p1", Volume: 50, Quantity: 1})
	require.NoError(t, err)

	reqs := srv.RequestsTo(http.MethodPost, "/cart/add")
	require.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.Equal(t, "gen-1", r.Key)
	}
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, c.delays)
	assert.Equal(t, 1, srv.Cart(apitest.CustomerEmail)[0].Quantity)
}

func TestRetry_ReplayAfterLostResponse(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)
	srv.Fail(http.MethodPost, "/cart/add", apitest.Fault{Status: http.StatusBadGateway, AfterApply: true})

	cart, err := c.AddToCart(context.Background(), model.SyncItem{Perfume: "p1", Volume: 50, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, 1, srv.Cart(apitest.CustomerEmail)[0].Quantity, "applied once")
	assert.Len(t, srv.RequestsTo(http.MethodPost, "/cart/add"), 2)
}

func TestRetry_Exhausted(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)
	srv.FailStatus(http.MethodGet, "/cart", 500, 500, 500, 500)

	_, err := c.GetCart(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindServer))
	assert.Len(t, srv.RequestsTo(http.MethodGet, "/cart"), 3)
}

func TestRetry_NeverOn4xx(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)
	srv.FailStatus(http.MethodGet, "/cart", http.StatusBadRequest)

	_, err := c.GetCart(context.Background())
	assert.True(t, IsKind(err, KindValidation))
	assert.Len(t, srv.RequestsTo(http.MethodGet, "/cart"), 1)
	assert.Empty(t, c.delays)
}

func TestRetry_NotForUnkeyedPost(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	srv.FailStatus(http.MethodPost, "/auth/login", http.StatusServiceUnavailable)

	_, err := c.Login(context.Background(), model.Credentials{Email: apitest.CustomerEmail, Password: apitest.Password})
	assert.True(t, IsKind(err, KindServer))
	assert.Len(t, srv.RequestsTo(http.MethodPost, "/auth/login"), 1)
}

func TestInvalidToken_FiresHandler(t *testing.T) {
	srv := apitest.New(t)
	c := signedIn(t, srv, apitest.CustomerEmail)
	fired := 0
	c.OnInvalidToken(func(context.Context) { fired++ })

	srv.ExpireSessions()
	_, err := c.GetCart(context.Background())

	require.Error(t, err)
	assert.True(t, IsInvalidToken(err))
	assert.True(t, IsKind(err, KindAuth))
	assert.Equal(t, 1, fired)
}

func TestUnauthorized_IsNotInvalidToken(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)
	fired := false
	c.OnInvalidToken(func(context.Context) { fired = true })

	_, err := c.GetCart(context.Background())
	assert.True(t, IsKind(err, KindAuth))
	assert.False(t, IsInvalidToken(err))
	assert.False(t, fired)
}

func TestNetworkError(t *testing.T) {
	srv := apitest.New(nil)
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.GetCart(context.Background())
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, apiErr.Temporary())
	assert.Len(t, c.delays, 2, "GET retried on network errors")
}
