package authflow

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// Auther is the self-issued-credential authenticator: registration and
// login over an IdentityStore, with bcrypt digests and stateless session
// tokens. Each call is an independent request/response cycle; no state is
// held between calls.
type Auther struct {
	store  IdentityStore
	hasher *Hasher
	tokens TokenService
	logger Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther.
func NewAuthenticator(store IdentityStore, tokens TokenService) *Auther {
	return &Auther{
		store:  store,
		hasher: NewHasher(DefaultHashCost),
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithHasher overrides the password hasher (e.g. to lower the cost factor
// in tests).
func (a *Auther) WithHasher(hasher *Hasher) *Auther {
	if hasher != nil {
		a.hasher = hasher
	}
	return a
}

func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

type registerInput struct {
	Name     string
	Email    string
	Password string
}

func (r registerInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 200), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
	)
}

// Register creates an Identity and its password credential in a single
// atomic insert, then issues a session token. Validation happens before any
// store call; a duplicate email surfaces as ErrDuplicateEmail with no
// mutation performed.
func (a *Auther) Register(ctx context.Context, name, email, password string) (string, *Identity, error) {
	input := registerInput{Name: name, Email: email, Password: password}
	if err := input.Validate(); err != nil {
		return "", nil, invalidInput(err)
	}

	digest, err := a.hasher.HashPassword(password)
	if err != nil {
		a.logger.Error("register hash password", "error", err)
		return "", nil, err
	}

	identity := NewLocalIdentity(name, email, digest)

	created, err := a.store.Insert(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			a.logger.Info("register duplicate email", "email", identity.Email)
			return "", nil, ErrDuplicateEmail
		}
		a.logger.Error("register insert identity", "error", err)
		return "", nil, err
	}

	token, err := a.tokens.Issue(created)
	if err != nil {
		a.logger.Error("register issue token", "error", err)
		return "", nil, err
	}

	return token, created, nil
}

type loginInput struct {
	Email    string
	Password string
}

func (l loginInput) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Email, validation.Required),
		validation.Field(&l.Password, validation.Required),
	)
}

// Login verifies the password credential and issues a session token. An
// unknown email and a wrong password both return ErrInvalidCredentials.
func (a *Auther) Login(ctx context.Context, email, password string) (string, *Identity, error) {
	input := loginInput{Email: email, Password: password}
	if err := input.Validate(); err != nil {
		return "", nil, invalidInput(err)
	}

	identity, err := a.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		a.logger.Error("login find identity", "error", err)
		return "", nil, err
	}

	if identity.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}

	if err := a.hasher.Compare(password, identity.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return "", nil, ErrInvalidCredentials
		}
		a.logger.Error("login compare password", "error", err)
		return "", nil, err
	}

	token, err := a.tokens.Issue(identity)
	if err != nil {
		a.logger.Error("login issue token", "error", err)
		return "", nil, err
	}

	return token, identity, nil
}

// invalidInput converts ozzo validation errors into the ErrInvalidInput
// sentinel, carrying per-field messages as metadata.
func invalidInput(err error) error {
	meta := map[string]any{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, ferr := range fieldErrs {
			meta[field] = ferr.Error()
		}
	} else if err != nil {
		meta["input"] = err.Error()
	}
	return ErrInvalidInput.WithMetadata(meta)
}
