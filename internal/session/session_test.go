package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/model"
)

type fakeRemote struct {
	user      model.User
	loginErr  error
	meErr     error
	logoutErr error
	updateErr error

	logouts int
	lastPwd  model.PasswordChange
}

func (f *fakeRemote) Login(_ context.Context, creds model.Credentials) (model.User, error) {
	if f.loginErr != nil {
		return model.User{}, f.loginErr
	}
	u := f.user
	u.Email = creds.Email
	return u, nil
}

func (f *fakeRemote) Signup(_ context.Context, reg model.Registration) (model.User, error) {
	return model.User{ID: "new", Email: reg.Email, FirstName: reg.FirstName, Role: model.RoleCustomer}, nil
}

func (f *fakeRemote) Me(context.Context) (model.User, error) {
	if f.meErr != nil {
		return model.User{}, f.meErr
	}
	return f.user, nil
}

func (f *fakeRemote) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

func (f *fakeRemote) UpdateProfile(_ context.Context, upd model.ProfileUpdate) (model.User, error) {
	if f.updateErr != nil {
		return model.User{}, f.updateErr
	}
	u := f.user
	u.FirstName = upd.FirstName
	return u, nil
}

func (f *fakeRemote) ChangePassword(_ context.Context, chg model.PasswordChange) error {
	f.lastPwd = chg
	return nil
}

type memPersist struct {
	saved   *model.User
	cleared int
}

func (m *memPersist) SaveSession(_ context.Context, u model.User) error {
	m.saved = &u
	return nil
}

func (m *memPersist) ClearSession(context.Context) error {
	m.saved = nil
	m.cleared++
	return nil
}

var alice = model.User{ID: "u1", Email: "alice@example.com", FirstName: "Alice", Role: model.RoleCustomer}

func TestReduce(t *testing.T) {
	s := Reduce(State{}, LoginAction{User: alice})
	assert.True(t, s.Authenticated)
	require.NotNil(t, s.User)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, model.RoleCustomer, s.Role())

	s = Reduce(s, LogoutAction{})
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, model.Role(""), s.Role())
}

func TestLogin_Persists(t *testing.T) {
	p := &memPersist{}
	m := NewManager(&fakeRemote{}, p, zap.NewNop(), State{})

	require.NoError(t, m.Login(context.Background(), alice))

	assert.True(t, m.IsAuthenticated())
	require.NotNil(t, p.saved)
	assert.Equal(t, "u1", p.saved.ID)
}

func TestLogout_ClearsWhenRemoteSucceeds(t *testing.T) {
	r := &fakeRemote{}
	p := &memPersist{}
	m := NewManager(r, p, nil, State{})
	require.NoError(t, m.Login(context.Background(), alice))

	m.Logout(context.Background())

	assert.False(t, m.IsAuthenticated())
	_, ok := m.User()
	assert.False(t, ok)
	assert.Equal(t, 1, r.logouts)
	assert.Equal(t, 1, p.cleared)
}

func TestLogout_ClearsWhenRemoteFails(t *testing.T) {
	r := &fakeRemote{logoutErr: errors.New("connection refused")}
	m := NewManager(r, nil, nil, State{})
	require.NoError(t, m.Login(context.Background(), alice))

	m.Logout(context.Background())

	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.State().User)
	assert.Equal(t, 1, r.logouts)
}

func TestSignIn(t *testing.T) {
	r := &fakeRemote{user: model.User{ID: "u2", Role: model.RoleSalesManager}}
	m := NewManager(r, nil, nil, State{})

	u, err := m.SignIn(context.Background(), "bob@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, model.RoleSalesManager, m.Role())
}

func TestSignIn_FailureLeavesAnonymous(t *testing.T) {
	r := &fakeRemote{loginErr: errors.New("bad credentials")}
	m := NewManager(r, nil, nil, State{})

	_, err := m.SignIn(context.Background(), "bob@example.com", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in")
	assert.False(t, m.IsAuthenticated())
}

func TestSignUp(t *testing.T) {
	m := NewManager(&fakeRemote{}, nil, nil, State{})

	u, err := m.SignUp(context.Background(), model.Registration{Email: "c@example.com", FirstName: "Cy"})
	require.NoError(t, err)
	assert.Equal(t, "new", u.ID)
	assert.True(t, m.IsAuthenticated())
}

func TestMe_NoopWhenAnonymous(t *testing.T) {
	r := &fakeRemote{meErr: errors.New("must not be called")}
	m := NewManager(r, nil, nil, State{})

	require.NoError(t, m.Me(context.Background()))
	assert.False(t, m.IsAuthenticated())
}

func TestMe_RefreshesUser(t *testing.T) {
	r := &fakeRemote{user: model.User{ID: "u1", FirstName: "Alicia", Role: model.RoleCustomer}}
	restored := Reduce(State{}, LoginAction{User: alice})
	m := NewManager(r, nil, nil, restored)

	require.NoError(t, m.Me(context.Background()))
	u, ok := m.User()
	require.True(t, ok)
	assert.Equal(t, "Alicia", u.FirstName)
}

func TestMe_FailureLogsOut(t *testing.T) {
	r := &fakeRemote{meErr: errors.New("401")}
	p := &memPersist{}
	m := NewManager(r, p, nil, Reduce(State{}, LoginAction{User: alice}))

	err := m.Me(context.Background())
	require.Error(t, err)
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, 1, p.cleared)
	assert.Equal(t, 0, r.logouts, "me failure clears locally only")
}

func TestUpdateProfile(t *testing.T) {
	r := &fakeRemote{user: alice}
	m := NewManager(r, nil, nil, State{})

	_, err := m.UpdateProfile(context.Background(), model.ProfileUpdate{FirstName: "Al"})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	require.NoError(t, m.Login(context.Background(), alice))
	u, err := m.UpdateProfile(context.Background(), model.ProfileUpdate{FirstName: "Al"})
	require.NoError(t, err)
	assert.Equal(t, "Al", u.FirstName)
	got, _ := m.User()
	assert.Equal(t, "Al", got.FirstName)
}

func TestChangePassword(t *testing.T) {
	r := &fakeRemote{}
	m := NewManager(r, nil, nil, State{})
	assert.ErrorIs(t, m.ChangePassword(context.Background(), "a", "b"), ErrNotSignedIn)

	require.NoError(t, m.Login(context.Background(), alice))
	require.NoError(t, m.ChangePassword(context.Background(), "old", "new"))
	assert.Equal(t, model.PasswordChange{OldPassword: "old", NewPassword: "new"}, r.lastPwd)
}
