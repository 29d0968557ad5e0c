package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// CookieStore persists session cookies between runs. Implemented by *store.Store.
type CookieStore interface {
	SaveCookies(ctx context.Context, origin string, cookies []*http.Cookie) error
	LoadCookies(ctx context.Context, origin string) ([]*http.Cookie, error)
	ClearCookies(ctx context.Context) error
}

// Jar is an http.CookieJar for a single API origin that can be saved to and
// restored from a CookieStore, and wiped.
type Jar struct {
	origin *url.URL

	mu    sync.Mutex
	inner *cookiejar.Jar
}

// NewJar creates an empty jar for the origin of rawURL.
func NewJar(rawURL string) (*Jar, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cookie jar origin: %w", err)
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Jar{origin: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, inner: inner}, nil
}

// Origin is the scheme://host key cookies are stored under.
func (j *Jar) Origin() string {
	return j.origin.Scheme + "://" + j.origin.Host
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Load restores the cookies saved for this origin.
func (j *Jar) Load(ctx context.Context, st CookieStore) error {
	cookies, err := st.LoadCookies(ctx, j.Origin())
	if err != nil {
		return err
	}
	if len(cookies) > 0 {
		j.SetCookies(j.origin, cookies)
	}
	return nil
}

// Save writes the cookies the origin would currently receive.
func (j *Jar) Save(ctx context.Context, st CookieStore) error {
	return st.SaveCookies(ctx, j.Origin(), j.Cookies(j.origin))
}

// Reset drops every cookie held in memory.
func (j *Jar) Reset() {
	inner, _ := cookiejar.New(nil) // only errors on a bad PublicSuffixList
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
}
