// Package tokenware gates fiber routes behind bearer-token verification.
// The verifier is pluggable so the same middleware guards self-issued
// session tokens and provider-signed federated tokens.
package tokenware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrTokenMissing is returned when no bearer token is present on the
// request.
var ErrTokenMissing = errors.New("missing token")

// Principal mirrors the claims surface the middleware stores on the request
// context. Declared locally to avoid import cycles with the root package.
type Principal interface {
	Identifier() string
	EmailAddress() string
	DisplayName() string
}

// Verifier validates a raw bearer token. Implementations must treat every
// failure uniformly; the middleware never reports the cause to the client.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// VerifierFunc adapts a function into a Verifier.
type VerifierFunc func(ctx context.Context, token string) (Principal, error)

// Verify satisfies the Verifier interface.
func (f VerifierFunc) Verify(ctx context.Context, token string) (Principal, error) {
	if f == nil {
		return nil, ErrTokenMissing
	}
	return f(ctx, token)
}

// Config configures the middleware.
type Config struct {
	// Verifier is required.
	Verifier Verifier
	// ContextKey is the locals key the verified principal is stored under.
	// Defaults to "user".
	ContextKey string
	// AuthScheme defaults to "Bearer".
	AuthScheme string
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
	// ErrorHandler renders verification failures. The default responds 401
	// with a uniform body, never distinguishing the cause.
	ErrorHandler func(*fiber.Ctx, error) error
}

// New returns a fiber handler enforcing bearer authentication.
func New(config Config) fiber.Handler {
	cfg := withDefaults(config)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := FromHeader(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		principal, err := cfg.Verifier.Verify(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, principal)
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal a successful verification stored
// under key, or nil.
func PrincipalFromCtx(c *fiber.Ctx, key string) Principal {
	if key == "" {
		key = "user"
	}
	principal, _ := c.Locals(key).(Principal)
	return principal
}

// FromHeader extracts the raw token from an Authorization header value.
func FromHeader(header, authScheme string) (string, error) {
	if header == "" {
		return "", ErrTokenMissing
	}

	scheme := strings.TrimSpace(authScheme)
	l := len(scheme)
	if l == 0 {
		return strings.TrimSpace(header), nil
	}

	if len(header) > l+1 && strings.EqualFold(header[:l], scheme) {
		return strings.TrimSpace(header[l:]), nil
	}
	return "", ErrTokenMissing
}

func withDefaults(cfg Config) Config {
	if cfg.Verifier == nil {
		panic("tokenware: Verifier is required")
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrTokenMissing) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
	}
	return cfg
}
