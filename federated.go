package authflow

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Assertion is a provider-verified statement of identity handed back after
// the provider ran its own challenge flow.
type Assertion struct {
	ExternalID string
	Email      string
	Name       string
	PhotoURL   string
	Provider   AuthMethod
}

// Identifier implements the principal view used by request middleware.
func (a *Assertion) Identifier() string { return a.ExternalID }

// EmailAddress implements the principal view used by request middleware.
func (a *Assertion) EmailAddress() string { return a.Email }

// DisplayName implements the principal view used by request middleware.
func (a *Assertion) DisplayName() string { return a.Name }

// ProviderSession is an authenticated provider-side session: the verified
// assertion plus the provider-signed token backing it.
type ProviderSession struct {
	Assertion *Assertion
	Token     string
}

// PendingCredential is the unlinked federated credential extracted from a
// provider's account-conflict failure. It stays opaque; only the provider
// can consume it.
type PendingCredential struct {
	Provider AuthMethod
	Token    string
}

// ReconcileResult reports the identity a federated sign-in resolved to.
type ReconcileResult struct {
	Identity  *Identity
	IsNewUser bool
}

// FederatedAuthenticator is the federated variant of the auth flow: trust is
// delegated to an external Provider, and verified assertions are reconciled
// into the identity store.
type FederatedAuthenticator struct {
	provider Provider
	store    IdentityStore
	logger   Logger
}

// NewFederatedAuthenticator returns a new FederatedAuthenticator.
func NewFederatedAuthenticator(provider Provider, store IdentityStore) *FederatedAuthenticator {
	return &FederatedAuthenticator{
		provider: provider,
		store:    store,
		logger:   defLogger{},
	}
}

func (f *FederatedAuthenticator) WithLogger(logger Logger) *FederatedAuthenticator {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Provider exposes the configured identity provider.
func (f *FederatedAuthenticator) Provider() Provider {
	return f.provider
}

// ReconcileIdentity upserts the identity keyed by the assertion's external
// UID: profile fields merge, the asserted provider joins the linked-methods
// set, creation fields apply only on first insert. The store applies the
// reconcile atomically, so re-running with the same assertion is idempotent
// beyond a timestamp refresh.
func (f *FederatedAuthenticator) ReconcileIdentity(ctx context.Context, assertion *Assertion) (*ReconcileResult, error) {
	if assertion == nil || assertion.ExternalID == "" || assertion.Email == "" {
		return nil, ErrInvalidInput.WithMetadata(map[string]any{
			"assertion": "external UID and email are required",
		})
	}

	var methods []AuthMethod
	if assertion.Provider != "" {
		methods = []AuthMethod{assertion.Provider}
	}

	identity, created, err := f.store.UpsertByExternalID(ctx, UpsertIdentity{
		ID:       assertion.ExternalID,
		Email:    NormalizeEmail(assertion.Email),
		Name:     assertion.Name,
		PhotoURL: assertion.PhotoURL,
		Methods:  methods,
	})
	if err != nil {
		f.logger.Error("reconcile upsert identity", "error", err)
		return nil, err
	}

	return &ReconcileResult{Identity: identity, IsNewUser: created}, nil
}

// VerifyInbound validates a provider-signed token by delegating to the
// provider's verification mechanism. Every failure surfaces uniformly as
// ErrTokenInvalid; the cause is logged, not reported.
func (f *FederatedAuthenticator) VerifyInbound(ctx context.Context, providerToken string) (*Assertion, error) {
	if providerToken == "" {
		return nil, ErrTokenInvalid
	}

	assertion, err := f.provider.VerifyToken(ctx, providerToken)
	if err != nil {
		f.logger.Info("inbound provider token rejected", "error", err)
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrTokenInvalid
		}
		// Transport-level provider failures surface as a server error, not
		// as a token rejection.
		return nil, err
	}

	return assertion, nil
}
