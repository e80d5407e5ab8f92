package authflow

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenTTL is the session validity window when none is configured.
const DefaultTokenTTL = time.Hour

// TokenServiceImpl implements TokenService with HS256-signed JWTs. Issue and
// Verify are pure in-process computations with no shared mutable state, so a
// single instance is safe across concurrent requests.
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a TokenService signing with the shared secret.
// A zero ttl falls back to DefaultTokenTTL.
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, logger Logger) *TokenServiceImpl {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, useful for expiry tests.
func (ts *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue signs a session token carrying the identity's claims with an expiry
// of now + the configured window.
func (ts *TokenServiceImpl) Issue(identity *Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	now := ts.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID:   identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary session claims using the configured key.
func (ts *TokenServiceImpl) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Verify parses and validates a token string, returning the embedded claims
// unchanged. Signature mismatch and structural problems map to
// ErrTokenMalformed, an elapsed validity window to ErrTokenExpired.
func (ts *TokenServiceImpl) Verify(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token verify rejected: %v", err)
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
