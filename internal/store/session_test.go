package store

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/model"
)

func TestSession_RoundTripAndClear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	u := model.User{ID: "u1", Email: "a@example.com", Role: model.RoleProductManager}
	require.NoError(t, s.SaveSession(ctx, u))
	u.FirstName = "Ada"
	require.NoError(t, s.SaveSession(ctx, u))

	got, ok, err := s.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, u, got)

	require.NoError(t, s.ClearSession(ctx))
	_, ok, err = s.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveSession(ctx, model.User{ID: "u9"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, ok, err := s2.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u9", got.ID)
}

func TestCookies_ReplacePerOrigin(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCookies(ctx, "http://a", []*http.Cookie{
		{Name: "token", Value: "t1"},
		{Name: "csrf", Value: "c1"},
	}))
	require.NoError(t, s.SaveCookies(ctx, "http://b", []*http.Cookie{{Name: "token", Value: "other"}}))
	require.NoError(t, s.SaveCookies(ctx, "http://a", []*http.Cookie{{Name: "token", Value: "t2"}, nil, {Name: ""}}))

	got, err := s.LoadCookies(ctx, "http://a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "token", got[0].Name)
	assert.Equal(t, "t2", got[0].Value)

	got, err = s.LoadCookies(ctx, "http://b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "other", got[0].Value)
}

func TestCookies_ClearAll(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCookies(ctx, "http://a", []*http.Cookie{{Name: "token", Value: "t"}}))
	require.NoError(t, s.ClearCookies(ctx))

	got, err := s.LoadCookies(ctx, "http://a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCookies_LoadOrderedByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCookies(ctx, "http://api", []*http.Cookie{
		{Name: "sid", Value: "x"},
		{Name: "Lang", Value: "en"},
		{Name: "csrf", Value: "c"},
	}))

	got, err := s.LoadCookies(ctx, "http://api")
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	// binary collation puts upper case first
	assert.Equal(t, []string{"Lang", "csrf", "sid"}, names)
}
