package authflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authflow "github.com/mvalko/go-authflow"
)

func testIdentity() *authflow.Identity {
	return &authflow.Identity{
		ID:    "user-123",
		Email: "test@example.com",
		Name:  "Test User",
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	ts := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)

	token, err := ts.Issue(testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Identifier())
	assert.Equal(t, "test@example.com", claims.EmailAddress())
	assert.Equal(t, "Test User", claims.DisplayName())
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), 5*time.Second)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	now := time.Now()
	ts := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)

	ts.WithClock(func() time.Time { return now.Add(-2 * time.Hour) })
	token, err := ts.Issue(testIdentity())
	require.NoError(t, err)

	ts.WithClock(func() time.Time { return now })
	_, err = ts.Verify(token)
	assert.ErrorIs(t, err, authflow.ErrTokenExpired)
}

func TestTokenService_VerifyMalformed(t *testing.T) {
	ts := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)

	_, err := ts.Verify("not-a-token")
	assert.ErrorIs(t, err, authflow.ErrTokenMalformed)
}

func TestTokenService_VerifyWrongKey(t *testing.T) {
	issuing := authflow.NewTokenService([]byte("key-one"), time.Hour, "test-issuer", nil)
	verifying := authflow.NewTokenService([]byte("key-two"), time.Hour, "test-issuer", nil)

	token, err := issuing.Issue(testIdentity())
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, authflow.ErrTokenMalformed)
}

func TestTokenService_VerifyWrongIssuer(t *testing.T) {
	issuing := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "other-issuer", nil)
	verifying := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)

	token, err := issuing.Issue(testIdentity())
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, authflow.ErrTokenMalformed)
}

func TestTokenService_DefaultTTL(t *testing.T) {
	ts := authflow.NewTokenService([]byte("test-signing-key"), 0, "", nil)

	token, err := ts.Issue(testIdentity())
	require.NoError(t, err)

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(authflow.DefaultTokenTTL), claims.Expires(), 5*time.Second)
}

func TestTokenService_ClaimsPassThroughUnchanged(t *testing.T) {
	ts := authflow.NewTokenService([]byte("test-signing-key"), time.Hour, "test-issuer", nil)

	token, err := ts.Issue(testIdentity())
	require.NoError(t, err)

	first, err := ts.Verify(token)
	require.NoError(t, err)
	second, err := ts.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
