// Package authflow provides credential and session authentication flows
// (registration, login, stateless JWT sessions, federated sign-in) over a
// pluggable identity store.
//
// Two variants of one contract:
//   - Auther authenticates self-issued credentials: it hashes passwords with
//     bcrypt, persists identities through an IdentityStore, and issues signed
//     session tokens through a TokenService.
//   - FederatedAuthenticator trusts an external identity Provider: it verifies
//     provider-signed tokens and reconciles provider assertions into local
//     identities with a single atomic upsert keyed by the external UID.
//
// Account linking:
//   - AccountLinker resolves the "account exists with a different credential"
//     conflict a provider reports when a federated sign-in collides with an
//     email already registered under another method. It authenticates the
//     existing password out-of-band, links the pending credential, and
//     reconciles the union of methods. Any partial session is signed out
//     before an error surfaces.
//
// Session tokens are stateless: verification checks signature and expiry
// only, so revocation before natural expiry is not supported. The guard
// subpackage implements the client-side counterpart, an explicit
// Unknown/Authenticated/Unauthenticated session state machine.
package authflow
