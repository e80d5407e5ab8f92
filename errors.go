package authflow

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidInput        = "invalid_input"
	TextCodeDuplicateEmail      = "duplicate_email"
	TextCodeInvalidCredentials  = "invalid_credentials"
	TextCodeTokenExpired        = "token_expired"
	TextCodeTokenMalformed      = "token_malformed"
	TextCodeTokenInvalid        = "token_invalid"
	TextCodeIdentityNotFound    = "identity_not_found"
	TextCodeMissingConflictData = "missing_conflict_data"
	TextCodeUnsupportedLink     = "unsupported_link_target"
	TextCodePasswordRequired    = "password_required"
	TextCodeStoreUnavailable    = "store_unavailable"
	TextCodeProviderUnavailable = "provider_unavailable"
)

// ErrInvalidInput is returned when a request is missing required fields or
// carries malformed values. Always detected before any store mutation.
var ErrInvalidInput = errors.New("missing or malformed input", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateEmail is returned when registration collides with an existing
// identity. The REST surface reports it as a 400, matching the register
// endpoint contract.
var ErrDuplicateEmail = errors.New("user with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned for any login failure. It deliberately
// does not distinguish an unknown email from a wrong password so the login
// endpoint cannot be used for account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a session token's validity window has
// elapsed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail structural or signature
// checks.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid is the uniform verification failure for provider-signed
// tokens. The provider's reason (bad signature, expired, malformed) is not
// surfaced to callers.
var ErrTokenInvalid = errors.New("invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is returned when a lookup matches no identity.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrMissingConflictData is returned when an account-link conflict signal
// lacks the conflicting email or the pending credential.
var ErrMissingConflictData = errors.New("missing email or credential for account conflict", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingConflictData).
	WithCode(errors.CodeBadRequest)

// ErrUnsupportedLinkTarget is returned when the conflicting account is not
// password-backed; the caller must retry with the correct existing method.
var ErrUnsupportedLinkTarget = errors.New("account exists with a different authentication method", errors.CategoryConflict).
	WithTextCode(TextCodeUnsupportedLink).
	WithCode(errors.CodeConflict)

// ErrPasswordRequired is returned when the out-of-band password prompt is
// abandoned during account linking.
var ErrPasswordRequired = errors.New("password is required to link accounts", errors.CategoryValidation).
	WithTextCode(TextCodePasswordRequired).
	WithCode(errors.CodeBadRequest)

// ErrStoreUnavailable masks identity-store failures as a generic server
// error; the underlying cause is wrapped for logs, never for clients.
var ErrStoreUnavailable = errors.New("identity store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrProviderUnavailable masks transport failures talking to the external
// identity provider.
var ErrProviderUnavailable = errors.New("identity provider unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeProviderUnavailable).
	WithCode(errors.CodeInternal)
