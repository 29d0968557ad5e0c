package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/idgen"
)

// HeaderIdempotencyKey carries the request key of state-changing calls.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// RetryPolicy controls retries of repeatable requests.
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first; < 1 means 1
	BaseDelay   time.Duration // delay after the first failure, doubled per attempt
	MaxDelay    time.Duration // cap on a single delay; 0 means uncapped
}

// DefaultRetry is used when no policy is configured.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// delay returns the wait after the given number of failed attempts.
func (p RetryPolicy) delay(failed int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < failed; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Client talks to the backend.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	jar    *Jar
	retry  RetryPolicy
	keys   idgen.Generator
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu        sync.RWMutex
	onInvalid func(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetry sets the retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithJar sets the cookie jar. The default is an empty in-memory Jar.
func WithJar(j *Jar) Option {
	return func(c *Client) { c.jar = j }
}

// WithKeys sets the idempotency key generator.
func WithKeys(g idgen.Generator) Option {
	return func(c *Client) { c.keys = g }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport replaces the HTTP transport, e.g. with httptest's.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse api url")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: DefaultTimeout},
		retry:  DefaultRetry,
		keys:   idgen.UUIDv7Generator{},
		logger: zap.NewNop(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.jar == nil {
		j, err := NewJar(base.String())
		if err != nil {
			return nil, err
		}
		c.jar = j
	}
	c.http.Jar = c.jar
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Jar returns the cookie jar holding the session.
func (c *Client) Jar() *Jar {
	return c.jar
}

// OnInvalidToken registers fn to run whenever a response carries the
// INVALID_TOKEN code. It replaces any previous handler.
func (c *Client) OnInvalidToken(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalid = fn
}

// call describes one API request.
type call struct {
	method string
	path   string // escaped, relative to the base URL
	body   any

	keyed bool // send an Idempotency-Key, generating one when ctx has none
	safe  bool // repeatable without a key (read-only POST)
}

func (cl call) repeatable(key string) bool {
	return cl.safe || key != "" || cl.method == http.MethodGet || cl.method == http.MethodDelete
}

// do executes cl and decodes the response body into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	var payload []byte
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s body", cl.method, cl.path)
		}
		payload = data
	}

	key, ok := idgen.KeyFrom(ctx)
	if !ok && cl.keyed {
		key = c.keys.Generate()
	}
	repeatable := cl.repeatable(key)
	attempts := c.retry.attempts()

	for attempt := 1; ; attempt++ {
		err := c.once(ctx, cl, payload, key, out)
		if err == nil {
			return nil
		}
		apiErr, ok := AsError(err)
		if !ok || !repeatable || !apiErr.Temporary() || attempt >= attempts || ctx.Err() != nil {
			return err
		}
		d := c.retry.delay(attempt)
		c.logger.Debug("api: retrying request",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Int("attempt", attempt),
			zap.Duration("delay", d),
			zap.Error(err))
		if serr := c.sleep(ctx, d); serr != nil {
			return err
		}
	}
}

func (c *Client) once(ctx context.Context, cl call, payload []byte, key string, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.base.String()+cl.path, body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", cl.method, cl.path)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: cl.method, Path: cl.path, Kind: KindNetwork, Err: errors.WithStack(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Method: cl.method, Path: cl.path, Kind: KindNetwork, Err: errors.Wrap(err, "read body")}
	}

	if resp.StatusCode >= 400 {
		return c.failure(ctx, cl, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", cl.method, cl.path)
	}
	return nil
}

// errorBody is the backend's failure envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) failure(ctx context.Context, cl call, status int, raw []byte) error {
	apiErr := &Error{Method: cl.method, Path: cl.path, Status: status, Kind: kindForStatus(status)}

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Code = eb.Error
		apiErr.Message = eb.Message
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 {
		apiErr.Message = text
	}

	if apiErr.Code == CodeInvalidToken {
		apiErr.Kind = KindAuth
		c.mu.RLock()
		fn := c.onInvalid
		c.mu.RUnlock()
		c.logger.Info("api: session token rejected", zap.String("path", cl.path))
		if fn != nil {
			fn(ctx)
		}
	}
	return apiErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pathf joins escaped path segments: pathf("perfumes", id) is "/perfumes/<id>".
func pathf(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
