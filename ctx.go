package authflow

import "context"

var identityCtxKey = &contextKey{"identity"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithIdentityContext sets the Identity in the given context.
func WithIdentityContext(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(*Identity)
	return raw, ok
}

// WithClaimsContext sets the verified session claims in the given context.
func WithClaimsContext(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the session claims from the context.
func GetClaims(ctx context.Context) (Claims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(Claims)
	return raw, ok
}
