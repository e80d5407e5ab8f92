package authflow_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authflow "github.com/mvalko/go-authflow"
)

func TestNewLocalIdentity(t *testing.T) {
	identity := authflow.NewLocalIdentity("Test User", "Test@Example.com ", "digest")

	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, "test@example.com", identity.Email)
	assert.Equal(t, []authflow.AuthMethod{authflow.MethodPassword}, identity.Methods)
	assert.Equal(t, "digest", identity.PasswordHash)
	assert.False(t, identity.CreatedAt.IsZero())

	other := authflow.NewLocalIdentity("Other", "other@example.com", "digest")
	assert.NotEqual(t, identity.ID, other.ID)
}

func TestIdentity_AddMethod(t *testing.T) {
	identity := &authflow.Identity{}

	assert.True(t, identity.AddMethod(authflow.MethodGoogle))
	assert.False(t, identity.AddMethod(authflow.MethodGoogle))
	assert.False(t, identity.AddMethod(""))
	assert.True(t, identity.AddMethod(authflow.MethodPassword))

	assert.Equal(t, []authflow.AuthMethod{authflow.MethodGoogle, authflow.MethodPassword}, identity.Methods)
}

func TestIdentity_SummaryOmitsPasswordHash(t *testing.T) {
	identity := authflow.NewLocalIdentity("Test User", "test@example.com", "digest")

	raw, err := json.Marshal(identity.Summary())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "digest")
	assert.Contains(t, string(raw), "test@example.com")
}

func TestIdentity_JSONOmitsPasswordHash(t *testing.T) {
	identity := authflow.NewLocalIdentity("Test User", "test@example.com", "digest")

	raw, err := json.Marshal(identity)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "digest")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "test@example.com", authflow.NormalizeEmail("  Test@EXAMPLE.com "))
	assert.Equal(t, "", authflow.NormalizeEmail("   "))
}
