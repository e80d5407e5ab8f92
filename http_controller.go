package authflow

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/mvalko/go-authflow/middleware/tokenware"
)

// HTTPController mounts the auth flow on a fiber router. The same controller
// serves both flow variants: self-issued credentials on /auth/register and
// /auth/login, federated reconciliation on /auth/users behind provider-token
// verification.
type HTTPController struct {
	auth      Authenticator
	federated *FederatedAuthenticator
	tokens    TokenService
	store     IdentityStore
	logger    Logger
}

// NewHTTPController returns a controller over both flow variants. federated
// may be nil when no external provider is configured; its routes then
// respond 404.
func NewHTTPController(auth Authenticator, federated *FederatedAuthenticator, tokens TokenService, store IdentityStore) *HTTPController {
	return &HTTPController{
		auth:      auth,
		federated: federated,
		tokens:    tokens,
		store:     store,
		logger:    defLogger{},
	}
}

func (h *HTTPController) WithLogger(logger Logger) *HTTPController {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// RegisterRoutes mounts all auth endpoints on app.
func (h *HTTPController) RegisterRoutes(app fiber.Router) {
	auth := app.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	if h.federated != nil {
		auth.Post("/users", h.ProviderTokenRequired(), h.SaveFederatedUser)
	}
	auth.Get("/users", h.ListUsers)
	auth.Get("/users/:uid", h.GetUser)
	auth.Delete("/users/:uid", h.DeleteUser)

	app.Get("/dashboard", h.SessionRequired(), h.Dashboard)
}

// SessionRequired guards a route behind a self-issued session token.
func (h *HTTPController) SessionRequired() fiber.Handler {
	return tokenware.New(tokenware.Config{
		Verifier: tokenware.VerifierFunc(func(_ context.Context, token string) (tokenware.Principal, error) {
			return h.tokens.Verify(token)
		}),
	})
}

// ProviderTokenRequired guards a route behind provider-signed token
// verification; the verified assertion lands on the request context.
func (h *HTTPController) ProviderTokenRequired() fiber.Handler {
	return tokenware.New(tokenware.Config{
		Verifier: tokenware.VerifierFunc(func(ctx context.Context, token string) (tokenware.Principal, error) {
			return h.federated.VerifyInbound(ctx, token)
		}),
	})
}

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
func (h *HTTPController) Register(c *fiber.Ctx) error {
	var payload registerPayload
	if err := c.BodyParser(&payload); err != nil {
		return h.renderError(c, ErrInvalidInput.WithMetadata(map[string]any{"body": err.Error()}))
	}

	token, identity, err := h.auth.Register(c.UserContext(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registered successfully",
		"token":   token,
		"user":    identity.Summary(),
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *HTTPController) Login(c *fiber.Ctx) error {
	var payload loginPayload
	if err := c.BodyParser(&payload); err != nil {
		return h.renderError(c, ErrInvalidInput.WithMetadata(map[string]any{"body": err.Error()}))
	}

	token, identity, err := h.auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logged in successfully",
		"token":   token,
		"user":    identity.Summary(),
	})
}

// SaveFederatedUser handles POST /auth/users: reconciles the verified
// provider assertion into the identity store. Idempotent; replays report
// isNewUser false.
func (h *HTTPController) SaveFederatedUser(c *fiber.Ctx) error {
	assertion, _ := tokenware.PrincipalFromCtx(c, "").(*Assertion)
	if assertion == nil {
		return h.renderError(c, ErrTokenInvalid)
	}

	result, err := h.federated.ReconcileIdentity(c.UserContext(), assertion)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"user":      result.Identity.Summary(),
		"isNewUser": result.IsNewUser,
	})
}

// GetUser handles GET /auth/users/:uid.
func (h *HTTPController) GetUser(c *fiber.Ctx) error {
	identity, err := h.store.FindByExternalID(c.UserContext(), c.Params("uid"))
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    identity.Summary(),
	})
}

// ListUsers handles GET /auth/users.
func (h *HTTPController) ListUsers(c *fiber.Ctx) error {
	identities, err := h.store.List(c.UserContext())
	if err != nil {
		return h.renderError(c, err)
	}

	users := make([]IdentitySummary, 0, len(identities))
	for _, identity := range identities {
		users = append(users, identity.Summary())
	}

	return c.JSON(fiber.Map{
		"message": "Users fetched successfully",
		"count":   len(users),
		"users":   users,
	})
}

// DeleteUser handles DELETE /auth/users/:uid.
func (h *HTTPController) DeleteUser(c *fiber.Ctx) error {
	identity, err := h.store.DeleteByExternalID(c.UserContext(), c.Params("uid"))
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
		"user":    identity.Summary(),
	})
}

// Dashboard handles GET /dashboard, a protected resource echoing the session
// principal.
func (h *HTTPController) Dashboard(c *fiber.Ctx) error {
	principal := tokenware.PrincipalFromCtx(c, "")
	if principal == nil {
		return h.renderError(c, ErrTokenInvalid)
	}

	return c.JSON(fiber.Map{
		"message": "Welcome to the dashboard",
		"user": fiber.Map{
			"uid":   principal.Identifier(),
			"email": principal.EmailAddress(),
			"name":  principal.DisplayName(),
		},
	})
}

// renderError maps taxonomy errors onto HTTP responses. Rich errors carry
// their own status code; everything else collapses to a generic 500 so
// internals never leak to clients.
func (h *HTTPController) renderError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		status := richErr.Code
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		if status >= fiber.StatusInternalServerError {
			h.logger.Error("request failed", "error", err)
			return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
		}
		return c.Status(status).JSON(fiber.Map{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	}

	h.logger.Error("request failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
