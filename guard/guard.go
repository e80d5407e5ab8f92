// Package guard is the client-side route guard: an explicit session state
// machine gating navigation to protected views. Session state lives in one
// Guard instance with a hydrate/teardown lifecycle instead of ambient
// global storage.
package guard

import (
	"context"
	"sync"
)

// Status is the guard's session state.
type Status string

const (
	// StatusUnknown means the async session check has not resolved yet.
	// While Unknown the guard renders neither protected content nor a
	// redirect.
	StatusUnknown Status = "unknown"
	// StatusAuthenticated grants access to protected views.
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated redirects protected navigation to login.
	StatusUnauthenticated Status = "unauthenticated"
)

// TokenStore persists the local session token between runs.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Verifier checks a stored token before the guard trusts it. Declared
// locally to keep the guard decoupled from the token implementation.
type Verifier interface {
	Verify(token string) error
}

// VerifierFunc adapts a function into a Verifier.
type VerifierFunc func(token string) error

// Verify satisfies the Verifier interface.
func (f VerifierFunc) Verify(token string) error {
	if f == nil {
		return nil
	}
	return f(token)
}

// Listener observes status transitions.
type Listener func(from, to Status)

// Decision is the outcome of resolving a navigation attempt.
type Decision struct {
	// Pending is true while the session check is unresolved; the caller
	// shows a neutral loading state.
	Pending bool
	// Allow grants the protected view.
	Allow bool
	// RedirectTo is set when navigation must divert.
	RedirectTo string
	// From preserves the originally requested location for a best-effort
	// post-login return.
	From string
}

// Config holds the guard's navigation targets.
type Config struct {
	// LoginPath receives unauthenticated protected navigation. Defaults to
	// "/login".
	LoginPath string
	// PublicPath receives post-logout navigation. Defaults to "/".
	PublicPath string
}

// Option configures a Guard.
type Option func(*Guard)

// WithSignOut registers a best-effort external sign-out invoked on Logout.
func WithSignOut(signOut func(ctx context.Context) error) Option {
	return func(g *Guard) {
		g.signOut = signOut
	}
}

// WithListener registers a status-transition listener.
func WithListener(l Listener) Option {
	return func(g *Guard) {
		if l != nil {
			g.listeners = append(g.listeners, l)
		}
	}
}

// Guard is the session-context object. It starts Unknown and transitions
// exactly once per auth-state change; every transition notifies listeners.
type Guard struct {
	mu        sync.RWMutex
	status    Status
	tokens    TokenStore
	verifier  Verifier
	cfg       Config
	signOut   func(ctx context.Context) error
	listeners []Listener
}

// New returns a Guard in StatusUnknown.
func New(tokens TokenStore, verifier Verifier, cfg Config, opts ...Option) *Guard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.PublicPath == "" {
		cfg.PublicPath = "/"
	}

	g := &Guard{
		status:   StatusUnknown,
		tokens:   tokens,
		verifier: verifier,
		cfg:      cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Status returns the current session state.
func (g *Guard) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Hydrate resolves the stored session on startup: a missing or invalid
// token transitions to Unauthenticated (clearing the stale token
// best-effort), a verifiable token to Authenticated.
func (g *Guard) Hydrate(ctx context.Context) Status {
	token, err := g.tokens.Load(ctx)
	if err != nil || token == "" {
		g.transition(StatusUnauthenticated)
		return StatusUnauthenticated
	}

	if err := g.verifier.Verify(token); err != nil {
		_ = g.tokens.Clear(ctx)
		g.transition(StatusUnauthenticated)
		return StatusUnauthenticated
	}

	g.transition(StatusAuthenticated)
	return StatusAuthenticated
}

// Resolve decides one navigation attempt to a protected view. It never
// allows protected content unless the state is Authenticated.
func (g *Guard) Resolve(path string) Decision {
	switch g.Status() {
	case StatusAuthenticated:
		return Decision{Allow: true}
	case StatusUnauthenticated:
		return Decision{RedirectTo: g.cfg.LoginPath, From: path}
	default:
		return Decision{Pending: true}
	}
}

// SetToken installs a freshly issued session token (post login or
// registration) and transitions to Authenticated.
func (g *Guard) SetToken(ctx context.Context, token string) error {
	if err := g.verifier.Verify(token); err != nil {
		return err
	}
	if err := g.tokens.Save(ctx, token); err != nil {
		return err
	}
	g.transition(StatusAuthenticated)
	return nil
}

// Logout transitions to Unauthenticated synchronously, then best-effort
// clears the stored token and any external session, and returns the
// redirect to the public entry point.
func (g *Guard) Logout(ctx context.Context) Decision {
	g.transition(StatusUnauthenticated)

	_ = g.tokens.Clear(ctx)
	if g.signOut != nil {
		_ = g.signOut(ctx)
	}

	return Decision{RedirectTo: g.cfg.PublicPath}
}

func (g *Guard) transition(to Status) {
	g.mu.Lock()
	from := g.status
	g.status = to
	listeners := g.listeners
	g.mu.Unlock()

	if from == to {
		return
	}
	for _, l := range listeners {
		l(from, to)
	}
}

// MemoryTokenStore is an in-process TokenStore.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore returns an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load returns the stored token, empty when absent.
func (m *MemoryTokenStore) Load(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Save stores the token.
func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear removes the token.
func (m *MemoryTokenStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
