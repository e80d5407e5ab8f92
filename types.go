package authflow

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface all components accept.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityStore is the document-store collaborator holding identities.
// Implementations must make Insert and UpsertByExternalID atomic per call;
// unique-key constraints on email and ID are the backstop against
// concurrent duplicate creation.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByExternalID(ctx context.Context, id string) (*Identity, error)
	Insert(ctx context.Context, identity *Identity) (*Identity, error)
	// UpsertByExternalID creates or updates the identity keyed by up.ID in a
	// single atomic operation and reports whether a new record was created.
	UpsertByExternalID(ctx context.Context, up UpsertIdentity) (*Identity, bool, error)
	List(ctx context.Context) ([]*Identity, error)
	DeleteByExternalID(ctx context.Context, id string) (*Identity, error)
}

// UpsertIdentity carries the fields of a federated reconcile: set fields are
// merged on every call, Methods grow by union, creation fields apply only on
// first insert.
type UpsertIdentity struct {
	ID       string
	Email    string
	Name     string
	PhotoURL string
	Methods  []AuthMethod
}

// TokenService issues and verifies self-signed session tokens.
type TokenService interface {
	Issue(identity *Identity) (string, error)
	Verify(tokenString string) (*SessionClaims, error)
}

// Authenticator is the self-issued-credential variant of the auth flow.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (string, *Identity, error)
	Login(ctx context.Context, email, password string) (string, *Identity, error)
}

// Provider is the external identity provider collaborator. It performs its
// own challenge flows; authflow only consumes verified assertions and the
// account-management calls the conflict resolver needs.
type Provider interface {
	Name() string
	VerifyToken(ctx context.Context, token string) (*Assertion, error)
	MethodsForEmail(ctx context.Context, email string) ([]AuthMethod, error)
	SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error)
	LinkCredential(ctx context.Context, session *ProviderSession, pending *PendingCredential) error
	// SignOut best-effort invalidates a provider session. A nil session is a
	// no-op so failure paths can call it unconditionally.
	SignOut(ctx context.Context, session *ProviderSession) error
}

// NewLogger returns the default printf-style logger tagged with prefix.
func NewLogger(prefix string) Logger {
	return defLogger{prefix: prefix}
}

type defLogger struct {
	prefix string
}

func (d defLogger) tag() string {
	if d.prefix == "" {
		return "AUTHFLOW"
	}
	return d.prefix
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] "+d.tag()+" "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] "+d.tag()+" "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] "+d.tag()+" "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] "+d.tag()+" "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
