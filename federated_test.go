package authflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authflow "github.com/mvalko/go-authflow"
	"github.com/mvalko/go-authflow/store/memstore"
)

func googleAssertion() *authflow.Assertion {
	return &authflow.Assertion{
		ExternalID: "google-uid-1",
		Email:      "Fed@Example.com",
		Name:       "Fed User",
		PhotoURL:   "https://example.com/photo.png",
		Provider:   authflow.MethodGoogle,
	}
}

func TestFederated_ReconcileCreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	flow := authflow.NewFederatedAuthenticator(&MockProvider{}, store).WithLogger(&MockLogger{})

	first, err := flow.ReconcileIdentity(ctx, googleAssertion())
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)
	assert.Equal(t, "google-uid-1", first.Identity.ID)
	assert.Equal(t, "fed@example.com", first.Identity.Email)
	assert.True(t, first.Identity.HasMethod(authflow.MethodGoogle))

	second, err := flow.ReconcileIdentity(ctx, googleAssertion())
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.Identity.ID, second.Identity.ID)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFederated_ReconcileMergesProfile(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	flow := authflow.NewFederatedAuthenticator(&MockProvider{}, store).WithLogger(&MockLogger{})

	_, err := flow.ReconcileIdentity(ctx, googleAssertion())
	require.NoError(t, err)

	updated := googleAssertion()
	updated.Name = "Renamed User"
	result, err := flow.ReconcileIdentity(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, "Renamed User", result.Identity.Name)
	assert.Equal(t, "https://example.com/photo.png", result.Identity.PhotoURL)
}

func TestFederated_ReconcileUnionsMethods(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	flow := authflow.NewFederatedAuthenticator(&MockProvider{}, store).WithLogger(&MockLogger{})

	_, err := flow.ReconcileIdentity(ctx, googleAssertion())
	require.NoError(t, err)

	linked := googleAssertion()
	linked.Provider = authflow.MethodPassword
	result, err := flow.ReconcileIdentity(ctx, linked)
	require.NoError(t, err)

	assert.True(t, result.Identity.HasMethod(authflow.MethodGoogle))
	assert.True(t, result.Identity.HasMethod(authflow.MethodPassword))

	// Replaying does not shrink or duplicate the set.
	result, err = flow.ReconcileIdentity(ctx, googleAssertion())
	require.NoError(t, err)
	assert.Len(t, result.Identity.Methods, 2)
}

func TestFederated_ReconcileRejectsIncompleteAssertion(t *testing.T) {
	ctx := context.Background()
	flow := authflow.NewFederatedAuthenticator(&MockProvider{}, memstore.New()).WithLogger(&MockLogger{})

	cases := []struct {
		name      string
		assertion *authflow.Assertion
	}{
		{"nil assertion", nil},
		{"missing uid", &authflow.Assertion{Email: "fed@example.com"}},
		{"missing email", &authflow.Assertion{ExternalID: "google-uid-1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := flow.ReconcileIdentity(ctx, tc.assertion)
			assert.ErrorIs(t, err, authflow.ErrInvalidInput)
		})
	}
}

func TestFederated_VerifyInbound(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		provider := &MockProvider{}
		provider.On("VerifyToken", ctx, "good-token").Return(googleAssertion(), nil).Once()

		flow := authflow.NewFederatedAuthenticator(provider, memstore.New()).WithLogger(&MockLogger{})
		assertion, err := flow.VerifyInbound(ctx, "good-token")

		require.NoError(t, err)
		assert.Equal(t, "google-uid-1", assertion.Identifier())
		provider.AssertExpectations(t)
	})

	t.Run("empty token", func(t *testing.T) {
		provider := &MockProvider{}
		flow := authflow.NewFederatedAuthenticator(provider, memstore.New()).WithLogger(&MockLogger{})

		_, err := flow.VerifyInbound(ctx, "")
		assert.ErrorIs(t, err, authflow.ErrTokenInvalid)
		provider.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything)
	})

	t.Run("rejected token is uniform", func(t *testing.T) {
		provider := &MockProvider{}
		provider.On("VerifyToken", ctx, "bad-token").Return(nil, authflow.ErrTokenInvalid).Once()

		flow := authflow.NewFederatedAuthenticator(provider, memstore.New()).WithLogger(&MockLogger{})
		_, err := flow.VerifyInbound(ctx, "bad-token")

		assert.ErrorIs(t, err, authflow.ErrTokenInvalid)
	})
}
