package authflow

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthMethod tags one way of proving an identity.
type AuthMethod = string

const (
	// MethodPassword is the self-issued email+password credential.
	MethodPassword AuthMethod = "password"
	// MethodGoogle is Google federated sign-in.
	MethodGoogle AuthMethod = "google"
)

// Identity is a registered principal. The ID is either locally generated
// (password registration) or supplied by the external provider (federated
// sign-in) and is immutable once assigned. Email is unique across all
// identities and stored case-normalized.
type Identity struct {
	ID           string       `bson:"_id" json:"id"`
	Email        string       `bson:"email" json:"email"`
	Name         string       `bson:"name,omitempty" json:"name,omitempty"`
	PhotoURL     string       `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Methods      []AuthMethod `bson:"methods,omitempty" json:"methods,omitempty"`
	PasswordHash string       `bson:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`
}

// NewLocalIdentity builds a password-backed identity with a generated ID.
func NewLocalIdentity(name, email, passwordHash string) *Identity {
	now := time.Now()
	return &Identity{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		Name:         name,
		Methods:      []AuthMethod{MethodPassword},
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasMethod reports whether the method is in the linked-methods set.
func (i *Identity) HasMethod(method AuthMethod) bool {
	for _, m := range i.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// AddMethod unions the method into the linked-methods set. The set only
// grows; it never shrinks within the auth flow.
func (i *Identity) AddMethod(method AuthMethod) bool {
	if method == "" || i.HasMethod(method) {
		return false
	}
	i.Methods = append(i.Methods, method)
	return true
}

// IdentitySummary is the client-facing projection of an Identity. It never
// carries the password digest.
type IdentitySummary struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Name     string       `json:"name,omitempty"`
	PhotoURL string       `json:"photo_url,omitempty"`
	Methods  []AuthMethod `json:"methods,omitempty"`
}

// Summary returns the client-facing projection.
func (i *Identity) Summary() IdentitySummary {
	return IdentitySummary{
		ID:       i.ID,
		Email:    i.Email,
		Name:     i.Name,
		PhotoURL: i.PhotoURL,
		Methods:  i.Methods,
	}
}

// NormalizeEmail lowercases and trims an email so uniqueness checks are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
