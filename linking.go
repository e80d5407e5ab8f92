package authflow

import "context"

// PasswordPrompter obtains the existing account password out-of-band. The
// call may block on user interaction; it must not hold any lock or shared
// resource while waiting.
type PasswordPrompter interface {
	PromptPassword(ctx context.Context, email string) (string, error)
}

// PasswordPrompterFunc adapts a function into a PasswordPrompter.
type PasswordPrompterFunc func(ctx context.Context, email string) (string, error)

// PromptPassword satisfies the PasswordPrompter interface.
func (f PasswordPrompterFunc) PromptPassword(ctx context.Context, email string) (string, error) {
	if f == nil {
		return "", ErrPasswordRequired
	}
	return f(ctx, email)
}

// AccountConflict carries the data extracted from a provider's "account
// exists with different credential" failure.
type AccountConflict struct {
	Email   string
	Pending *PendingCredential
}

// AccountLinker resolves federated sign-in conflicts by linking the pending
// credential to the already-registered identity. Linking is attempted only
// against password-backed accounts; every other method set is refused so no
// duplicate identity is ever created for the email.
type AccountLinker struct {
	provider Provider
	flow     *FederatedAuthenticator
	prompter PasswordPrompter
	logger   Logger
}

// NewAccountLinker returns a new AccountLinker.
func NewAccountLinker(provider Provider, flow *FederatedAuthenticator, prompter PasswordPrompter) *AccountLinker {
	return &AccountLinker{
		provider: provider,
		flow:     flow,
		prompter: prompter,
		logger:   defLogger{},
	}
}

func (l *AccountLinker) WithLogger(logger Logger) *AccountLinker {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Resolve runs the conflict-resolution algorithm:
//
//  1. Fail with ErrMissingConflictData when the failure signal lacks the
//     email or pending credential.
//  2. Ask the provider which methods are registered for the email.
//  3. If "password" is among them, prompt for it, authenticate, link the
//     pending credential, and reconcile with the new provider tag.
//  4. Otherwise fail with ErrUnsupportedLinkTarget.
//
// Any failure after the password sign-in signs the partial provider session
// out before the error surfaces, so no half-authenticated state leaks.
func (l *AccountLinker) Resolve(ctx context.Context, conflict AccountConflict) (*ReconcileResult, error) {
	if conflict.Email == "" || conflict.Pending == nil {
		return nil, ErrMissingConflictData
	}

	email := NormalizeEmail(conflict.Email)

	methods, err := l.provider.MethodsForEmail(ctx, email)
	if err != nil {
		l.logger.Error("conflict list sign-in methods", "email", email, "error", err)
		return nil, ErrProviderUnavailable.WithMetadata(map[string]any{"cause": err.Error()})
	}

	if !containsMethod(methods, MethodPassword) {
		return nil, ErrUnsupportedLinkTarget
	}

	password, err := l.prompter.PromptPassword(ctx, email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		// Abandoned prompt: fail cleanly, nothing has been mutated.
		return nil, ErrPasswordRequired
	}

	session, err := l.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := l.provider.LinkCredential(ctx, session, conflict.Pending); err != nil {
		l.signOut(ctx, session)
		return nil, err
	}

	assertion := mergedAssertion(session, email, conflict.Pending.Provider)
	result, err := l.flow.ReconcileIdentity(ctx, assertion)
	if err != nil {
		l.signOut(ctx, session)
		return nil, err
	}

	return result, nil
}

func (l *AccountLinker) signOut(ctx context.Context, session *ProviderSession) {
	if err := l.provider.SignOut(ctx, session); err != nil {
		l.logger.Warn("conflict resolution sign-out failed", "error", err)
	}
}

// mergedAssertion adds the freshly linked provider tag to the session's
// assertion before reconciling.
func mergedAssertion(session *ProviderSession, email string, linked AuthMethod) *Assertion {
	assertion := &Assertion{Email: email, Provider: linked}
	if session != nil && session.Assertion != nil {
		base := *session.Assertion
		assertion.ExternalID = base.ExternalID
		assertion.Name = base.Name
		assertion.PhotoURL = base.PhotoURL
		if assertion.Email == "" {
			assertion.Email = base.Email
		}
	}
	return assertion
}

func containsMethod(methods []AuthMethod, method AuthMethod) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
