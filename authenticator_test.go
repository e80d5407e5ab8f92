package authflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authflow "github.com/mvalko/go-authflow"
	"github.com/mvalko/go-authflow/store/memstore"
)

func newTestAuther(store authflow.IdentityStore) *authflow.Auther {
	tokens := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)
	return authflow.NewAuthenticator(store, tokens).
		WithHasher(authflow.NewHasher(bcrypt.MinCost)).
		WithLogger(&MockLogger{})
}

func TestAuther_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	auther := newTestAuther(store)

	token, identity, err := auther.Register(ctx, "Test User", "Test@Example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, identity)

	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, "test@example.com", identity.Email)
	assert.True(t, identity.HasMethod(authflow.MethodPassword))

	loginToken, loginIdentity, err := auther.Login(ctx, "test@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
	assert.Equal(t, identity.ID, loginIdentity.ID)
}

func TestAuther_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	auther := newTestAuther(memstore.New())

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "test@example.com", "s3cret"},
		{"missing email", "Test User", "", "s3cret"},
		{"malformed email", "Test User", "not-an-email", "s3cret"},
		{"missing password", "Test User", "test@example.com", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := auther.Register(ctx, tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, authflow.ErrInvalidInput)
		})
	}
}

func TestAuther_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	auther := newTestAuther(store)

	_, first, err := auther.Register(ctx, "First", "test@example.com", "s3cret")
	require.NoError(t, err)

	_, _, err = auther.Register(ctx, "Second", "TEST@example.com", "other")
	assert.ErrorIs(t, err, authflow.ErrDuplicateEmail)

	// The original identity is untouched.
	got, err := store.FindByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "First", got.Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAuther_LoginUniformFailure(t *testing.T) {
	ctx := context.Background()
	auther := newTestAuther(memstore.New())

	_, _, err := auther.Register(ctx, "Test User", "test@example.com", "s3cret")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := auther.Login(ctx, "nobody@example.com", "s3cret")
		assert.ErrorIs(t, err, authflow.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := auther.Login(ctx, "test@example.com", "wrong")
		assert.ErrorIs(t, err, authflow.ErrInvalidCredentials)
	})
}

func TestAuther_LoginFederatedOnlyIdentity(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	auther := newTestAuther(store)

	_, _, err := store.UpsertByExternalID(ctx, authflow.UpsertIdentity{
		ID:      "google-uid-1",
		Email:   "federated@example.com",
		Methods: []authflow.AuthMethod{authflow.MethodGoogle},
	})
	require.NoError(t, err)

	// No password digest on record, so the password flow must refuse.
	_, _, err = auther.Login(ctx, "federated@example.com", "anything")
	assert.ErrorIs(t, err, authflow.ErrInvalidCredentials)
}

func TestAuther_IssuedTokenVerifies(t *testing.T) {
	ctx := context.Background()
	tokens := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)
	auther := authflow.NewAuthenticator(memstore.New(), tokens).
		WithHasher(authflow.NewHasher(bcrypt.MinCost))

	token, identity, err := auther.Register(ctx, "Test User", "test@example.com", "s3cret")
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.Identifier())
	assert.Equal(t, identity.Email, claims.EmailAddress())
}
