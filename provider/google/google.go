// Package google implements the external identity Provider against
// Google's token-info and Identity Toolkit endpoints. Endpoints and the
// HTTP client are injectable so tests can point the provider at a local
// server.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"

	authflow "github.com/mvalko/go-authflow"
)

const (
	defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultAccountsURL  = "https://identitytoolkit.googleapis.com/v1/accounts"
	defaultRevokeURL    = "https://oauth2.googleapis.com/revoke"
)

// Config holds Google provider configuration.
type Config struct {
	APIKey string

	TokenInfoURL string
	AccountsURL  string
	RevokeURL    string

	HTTPClient *http.Client
}

// Provider implements authflow.Provider for Google accounts.
type Provider struct {
	config     Config
	httpClient *http.Client
}

var _ authflow.Provider = (*Provider)(nil)

// New creates a Google provider with defaulted endpoints.
func New(cfg Config) *Provider {
	if cfg.TokenInfoURL == "" {
		cfg.TokenInfoURL = defaultTokenInfoURL
	}
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = defaultAccountsURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = defaultRevokeURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements authflow.Provider.
func (p *Provider) Name() string {
	return authflow.MethodGoogle
}

type tokenInfoResponse struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyToken implements authflow.Provider. Any verification failure the
// endpoint reports maps uniformly to ErrTokenInvalid.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*authflow.Assertion, error) {
	endpoint := p.config.TokenInfoURL + "?id_token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, transportErr("verify_token", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, transportErr("verify_token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr("verify_token", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, authflow.ErrTokenInvalid
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, authflow.ErrTokenInvalid
	}
	if info.Sub == "" {
		return nil, authflow.ErrTokenInvalid
	}

	return &authflow.Assertion{
		ExternalID: info.Sub,
		Email:      info.Email,
		Name:       info.Name,
		PhotoURL:   info.Picture,
		Provider:   authflow.MethodGoogle,
	}, nil
}

type createAuthURIResponse struct {
	SigninMethods []string `json:"signinMethods"`
	Registered    bool     `json:"registered"`
}

// MethodsForEmail implements authflow.Provider.
func (p *Provider) MethodsForEmail(ctx context.Context, email string) ([]authflow.AuthMethod, error) {
	payload := map[string]any{
		"identifier":  email,
		"continueUri": "http://localhost",
	}

	var out createAuthURIResponse
	if err := p.post(ctx, ":createAuthUri", payload, &out); err != nil {
		return nil, err
	}

	methods := make([]authflow.AuthMethod, 0, len(out.SigninMethods))
	for _, m := range out.SigninMethods {
		methods = append(methods, normalizeMethod(m))
	}
	return methods, nil
}

type signInResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

// SignInWithPassword implements authflow.Provider. Credential rejections
// map uniformly to ErrInvalidCredentials.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*authflow.ProviderSession, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var out signInResponse
	if err := p.post(ctx, ":signInWithPassword", payload, &out); err != nil {
		return nil, err
	}
	if out.IDToken == "" || out.LocalID == "" {
		return nil, authflow.ErrInvalidCredentials
	}

	return &authflow.ProviderSession{
		Token: out.IDToken,
		Assertion: &authflow.Assertion{
			ExternalID: out.LocalID,
			Email:      out.Email,
			Name:       out.DisplayName,
			PhotoURL:   out.PhotoURL,
			Provider:   authflow.MethodPassword,
		},
	}, nil
}

// LinkCredential implements authflow.Provider: attaches the pending
// federated credential to the authenticated session's account.
func (p *Provider) LinkCredential(ctx context.Context, session *authflow.ProviderSession, pending *authflow.PendingCredential) error {
	if session == nil || session.Token == "" {
		return authflow.ErrMissingConflictData
	}
	if pending == nil || pending.Token == "" {
		return authflow.ErrMissingConflictData
	}

	payload := map[string]any{
		"idToken":           session.Token,
		"requestUri":        "http://localhost",
		"postBody":          "id_token=" + pending.Token + "&providerId=" + providerID(pending.Provider),
		"returnSecureToken": true,
	}

	var out signInResponse
	return p.post(ctx, ":signInWithIdp", payload, &out)
}

// SignOut implements authflow.Provider: best-effort token revocation. A nil
// session is a no-op.
func (p *Provider) SignOut(ctx context.Context, session *authflow.ProviderSession) error {
	if session == nil || session.Token == "" {
		return nil
	}

	data := url.Values{"token": {session.Token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.RevokeURL, strings.NewReader(data.Encode()))
	if err != nil {
		return transportErr("sign_out", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return transportErr("sign_out", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) post(ctx context.Context, action string, payload map[string]any, out any) error {
	endpoint := p.config.AccountsURL + action
	if p.config.APIKey != "" {
		endpoint += "?key=" + url.QueryEscape(p.config.APIKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return transportErr(action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return transportErr(action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return transportErr(action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr(action, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		return mapAPIError(action, resp.StatusCode, apiErr.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return transportErr(action, err)
		}
	}
	return nil
}

// mapAPIError folds the endpoint's error vocabulary into the authflow
// taxonomy: credential rejections stay uniform, everything else is a
// provider failure.
func mapAPIError(action string, status int, message string) error {
	switch {
	case strings.HasPrefix(message, "INVALID_PASSWORD"),
		strings.HasPrefix(message, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(message, "USER_DISABLED"):
		return authflow.ErrInvalidCredentials
	case strings.HasPrefix(message, "INVALID_ID_TOKEN"),
		strings.HasPrefix(message, "TOKEN_EXPIRED"),
		strings.HasPrefix(message, "CREDENTIAL_TOO_OLD"):
		return authflow.ErrTokenInvalid
	default:
		return errors.New("google provider call failed", errors.CategoryOperation).
			WithTextCode(authflow.TextCodeProviderUnavailable).
			WithMetadata(map[string]any{
				"action":  action,
				"status":  status,
				"message": message,
			})
	}
}

func transportErr(action string, err error) error {
	return authflow.ErrProviderUnavailable.WithMetadata(map[string]any{
		"action": action,
		"cause":  err.Error(),
	})
}

// normalizeMethod maps provider method tags into authflow's vocabulary.
func normalizeMethod(method string) authflow.AuthMethod {
	switch method {
	case "password", "emailLink":
		return authflow.MethodPassword
	case "google.com":
		return authflow.MethodGoogle
	default:
		return strings.TrimSuffix(method, ".com")
	}
}

func providerID(method authflow.AuthMethod) string {
	if method == authflow.MethodGoogle {
		return "google.com"
	}
	return method
}
