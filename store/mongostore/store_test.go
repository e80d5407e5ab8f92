package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	authflow "github.com/mvalko/go-authflow"
)

func TestBuildMerge(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	update := buildMerge(authflow.UpsertIdentity{
		ID:       "google-uid-1",
		Email:    "Fed@Example.com",
		Name:     "Fed User",
		PhotoURL: "https://example.com/photo.png",
		Methods:  []authflow.AuthMethod{authflow.MethodGoogle},
	}, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "fed@example.com", set["email"])
	assert.Equal(t, "Fed User", set["name"])
	assert.Equal(t, "https://example.com/photo.png", set["photo_url"])
	assert.Equal(t, now, set["updated_at"])

	// Merges never touch the creation timestamp.
	assert.NotContains(t, set, "created_at")

	addToSet, ok := update["$addToSet"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$each": []authflow.AuthMethod{authflow.MethodGoogle}}, addToSet["methods"])
}

func TestBuildMerge_OmitsAbsentFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	update := buildMerge(authflow.UpsertIdentity{
		ID:    "google-uid-1",
		Email: "fed@example.com",
	}, now)

	set := update["$set"].(bson.M)
	// Empty profile fields must not clobber stored values.
	assert.NotContains(t, set, "name")
	assert.NotContains(t, set, "photo_url")
	assert.NotContains(t, update, "$addToSet")
}

func TestNewIdentity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	identity := newIdentity(authflow.UpsertIdentity{
		ID:      "google-uid-1",
		Email:   "Fed@Example.com",
		Name:    "Fed User",
		Methods: []authflow.AuthMethod{authflow.MethodGoogle, authflow.MethodGoogle},
	}, now)

	assert.Equal(t, "google-uid-1", identity.ID)
	assert.Equal(t, "fed@example.com", identity.Email)
	assert.Equal(t, now, identity.CreatedAt)
	assert.Equal(t, now, identity.UpdatedAt)
	// Duplicate tags collapse on insert.
	assert.Equal(t, []authflow.AuthMethod{authflow.MethodGoogle}, identity.Methods)
}
