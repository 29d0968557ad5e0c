// Package session holds the client's authentication state.
//
// State is changed only through Reduce with a LoginAction or LogoutAction;
// Manager wraps the reducer with the remote auth calls and persistence.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/model"
)

// State is the auth gate.
type State struct {
	Authenticated bool
	User          *model.User
}

// Role returns the role of the signed-in user, or "" when anonymous.
func (s State) Role() model.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Action is a typed auth state mutation.
type Action interface{ isAction() }

// LoginAction marks User as signed in.
type LoginAction struct{ User model.User }

// LogoutAction clears the session.
type LogoutAction struct{}

func (LoginAction) isAction()  {}
func (LogoutAction) isAction() {}

// Reduce returns the state after a.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoginAction:
		u := act.User
		return State{Authenticated: true, User: &u}
	case LogoutAction:
		return State{}
	default:
		return s
	}
}

// Remote is the server side of authentication. Implemented by *api.Client.
type Remote interface {
	Login(ctx context.Context, creds model.Credentials) (model.User, error)
	Signup(ctx context.Context, reg model.Registration) (model.User, error)
	Me(ctx context.Context) (model.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (model.User, error)
	ChangePassword(ctx context.Context, chg model.PasswordChange) error
}

// Persister keeps the session across process runs. Implemented by *store.Store.
type Persister interface {
	SaveSession(ctx context.Context, user model.User) error
	ClearSession(ctx context.Context) error
}

// Manager owns the auth state.
//
// Thread-safety: all methods are safe for concurrent use.
type Manager struct {
	remote  Remote
	persist Persister
	logger  *zap.Logger

	mu    sync.RWMutex
	state State
}

// NewManager creates a manager whose state starts from initial, typically
// the session loaded from disk. persist may be nil.
func NewManager(remote Remote, persist Persister, logger *zap.Logger, initial State) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{remote: remote, persist: persist, logger: logger, state: initial}
}

// State returns the current auth state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a user is signed in.
func (m *Manager) IsAuthenticated() bool {
	return m.State().Authenticated
}

// User returns the signed-in user.
func (m *Manager) User() (model.User, bool) {
	s := m.State()
	if s.User == nil {
		return model.User{}, false
	}
	return *s.User, true
}

// Role returns the signed-in user's role, or "" when anonymous.
func (m *Manager) Role() model.Role {
	return m.State().Role()
}

func (m *Manager) dispatch(a Action) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, a)
	return m.state
}

// Login records user as signed in and persists the session.
func (m *Manager) Login(ctx context.Context, user model.User) error {
	m.dispatch(LoginAction{User: user})
	if m.persist == nil {
		return nil
	}
	if err := m.persist.SaveSession(ctx, user); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// SignIn authenticates with the API and logs the returned user in.
func (m *Manager) SignIn(ctx context.Context, email, password string) (model.User, error) {
	user, err := m.remote.Login(ctx, model.Credentials{Email: email, Password: password})
	if err != nil {
		return model.User{}, fmt.Errorf("sign in: %w", err)
	}
	if err := m.Login(ctx, user); err != nil {
		return user, err
	}
	m.logger.Info("session: signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// SignUp registers a new account and logs it in.
func (m *Manager) SignUp(ctx context.Context, reg model.Registration) (model.User, error) {
	user, err := m.remote.Signup(ctx, reg)
	if err != nil {
		return model.User{}, fmt.Errorf("sign up: %w", err)
	}
	if err := m.Login(ctx, user); err != nil {
		return user, err
	}
	m.logger.Info("session: registered", zap.String("user_id", user.ID))
	return user, nil
}

// Logout clears the session locally, then calls the remote logout.
// The local clear happens whatever the remote outcome; a remote failure is
// logged, never returned.
func (m *Manager) Logout(ctx context.Context) {
	m.Invalidate(ctx)
	if err := m.remote.Logout(ctx); err != nil {
		m.logger.Warn("session: remote logout failed", zap.Error(err))
	}
}

// Invalidate clears the session locally without calling the API. Used when
// the server reports INVALID_TOKEN.
func (m *Manager) Invalidate(ctx context.Context) {
	m.dispatch(LogoutAction{})
	if m.persist == nil {
		return
	}
	if err := m.persist.ClearSession(ctx); err != nil {
		m.logger.Error("session: clear persisted session failed", zap.Error(err))
	}
}

// Me validates a session restored from disk against GET /auth/me. It does
// nothing when the local state is anonymous. Any failure logs the session
// out locally and is returned.
func (m *Manager) Me(ctx context.Context) error {
	if !m.IsAuthenticated() {
		return nil
	}
	user, err := m.remote.Me(ctx)
	if err != nil {
		m.logger.Info("session: stored session rejected", zap.Error(err))
		m.Invalidate(ctx)
		return fmt.Errorf("validate session: %w", err)
	}
	return m.Login(ctx, user)
}

// UpdateProfile changes the signed-in user's profile and refreshes the
// local copy.
func (m *Manager) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (model.User, error) {
	if !m.IsAuthenticated() {
		return model.User{}, ErrNotSignedIn
	}
	user, err := m.remote.UpdateProfile(ctx, upd)
	if err != nil {
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := m.Login(ctx, user); err != nil {
		return user, err
	}
	return user, nil
}

// ChangePassword changes the signed-in user's password.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !m.IsAuthenticated() {
		return ErrNotSignedIn
	}
	if err := m.remote.ChangePassword(ctx, model.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// ErrNotSignedIn is returned by operations that need a signed-in user.
var ErrNotSignedIn = errors.New("not signed in")
