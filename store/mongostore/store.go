// Package mongostore implements the IdentityStore on MongoDB. A reconcile
// is one atomic merge ($set / $addToSet via FindOneAndUpdate) or one atomic
// insert, keyed by the external UID; unique indexes on _id and email are
// the backstop against concurrent duplicate creation.
package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	authflow "github.com/mvalko/go-authflow"
)

const usersCollection = "users"

// Connect dials MongoDB with the configured retry loop and returns the
// database handle.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for range attempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime).
				SetRetryWrites(cfg.RetryWrites).
				SetRetryReads(cfg.RetryReads),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client.Database(cfg.Database), nil
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, authflow.ErrStoreUnavailable.WithMetadata(map[string]any{
		"cause": "failed to connect to mongo: " + lastErr.Error(),
	})
}

// Store implements authflow.IdentityStore on a Mongo collection.
type Store struct {
	users  *mongo.Collection
	logger authflow.Logger
	now    func() time.Time
}

var _ authflow.IdentityStore = (*Store)(nil)

// New returns a Store over db's users collection.
func New(db *mongo.Database) *Store {
	return &Store{
		users:  db.Collection(usersCollection),
		logger: nil,
		now:    time.Now,
	}
}

// WithLogger sets the store logger.
func (s *Store) WithLogger(logger authflow.Logger) *Store {
	s.logger = logger
	return s
}

// WithClock overrides the time source used for upsert timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// EnsureIndexes creates the unique email index. The _id key is unique by
// definition and covers the external-UID constraint.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return s.storeErr(err, "failed to create email index")
	}
	return nil
}

// FindByEmail looks an identity up by its normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authflow.Identity, error) {
	return s.findOne(ctx, bson.M{"email": authflow.NormalizeEmail(email)})
}

// FindByExternalID looks an identity up by its stable identifier.
func (s *Store) FindByExternalID(ctx context.Context, id string) (*authflow.Identity, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// Insert adds a new identity; unique-index violations surface as
// ErrDuplicateEmail.
func (s *Store) Insert(ctx context.Context, identity *authflow.Identity) (*authflow.Identity, error) {
	if identity == nil || identity.ID == "" {
		return nil, authflow.ErrInvalidInput.WithMetadata(map[string]any{"identity": "id is required"})
	}

	if _, err := s.users.InsertOne(ctx, identity); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, authflow.ErrDuplicateEmail
		}
		return nil, s.storeErr(err, "failed to insert identity")
	}

	return identity, nil
}

// UpsertByExternalID reconciles the identity keyed by up.ID. An existing
// document is merged in one atomic FindOneAndUpdate returning the post
// image; a missing document is inserted whole, so the returned record is
// never a stale read. Created is true only when this call inserted. The
// unique indexes arbitrate races: a lost _id race retries as a merge, an
// email owned by another identity surfaces as ErrDuplicateEmail.
func (s *Store) UpsertByExternalID(ctx context.Context, up authflow.UpsertIdentity) (*authflow.Identity, bool, error) {
	if up.ID == "" {
		return nil, false, authflow.ErrInvalidInput.WithMetadata(map[string]any{"identity": "id is required"})
	}

	for range 2 {
		identity, err := s.merge(ctx, up)
		if err == nil {
			return identity, false, nil
		}
		if !errors.Is(err, authflow.ErrIdentityNotFound) {
			return nil, false, err
		}

		created := newIdentity(up, s.now())
		_, err = s.users.InsertOne(ctx, created)
		if err == nil {
			return created, true, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, s.storeErr(err, "failed to insert identity")
		}
		if strings.Contains(err.Error(), "email") {
			// Same email already owned by a different external UID.
			return nil, false, authflow.ErrDuplicateEmail
		}
		// Lost a concurrent create race on _id; merge on the next pass.
	}

	return nil, false, authflow.ErrStoreUnavailable.WithMetadata(map[string]any{
		"cause": "reconcile retries exhausted",
	})
}

// merge applies the reconcile to an existing document and returns the post
// image from the same atomic call.
func (s *Store) merge(ctx context.Context, up authflow.UpsertIdentity) (*authflow.Identity, error) {
	var identity authflow.Identity
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": up.ID},
		buildMerge(up, s.now()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&identity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authflow.ErrIdentityNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, authflow.ErrDuplicateEmail
		}
		return nil, s.storeErr(err, "failed to merge identity")
	}
	return &identity, nil
}

// List returns all identities, newest first.
func (s *Store) List(ctx context.Context) ([]*authflow.Identity, error) {
	cursor, err := s.users.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, s.storeErr(err, "failed to list identities")
	}

	var identities []*authflow.Identity
	if err := cursor.All(ctx, &identities); err != nil {
		return nil, s.storeErr(err, "failed to decode identities")
	}
	return identities, nil
}

// DeleteByExternalID removes an identity and returns the removed record.
func (s *Store) DeleteByExternalID(ctx context.Context, id string) (*authflow.Identity, error) {
	var identity authflow.Identity
	err := s.users.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&identity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authflow.ErrIdentityNotFound
		}
		return nil, s.storeErr(err, "failed to delete identity")
	}
	return &identity, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*authflow.Identity, error) {
	var identity authflow.Identity
	err := s.users.FindOne(ctx, filter).Decode(&identity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authflow.ErrIdentityNotFound
		}
		return nil, s.storeErr(err, "failed to find identity")
	}
	return &identity, nil
}

// buildMerge translates an UpsertIdentity into the update document: $set
// merges profile fields, $addToSet unions the linked methods. Absent
// profile fields never clobber stored values.
func buildMerge(up authflow.UpsertIdentity, now time.Time) bson.M {
	set := bson.M{
		"email":      authflow.NormalizeEmail(up.Email),
		"updated_at": now,
	}
	if up.Name != "" {
		set["name"] = up.Name
	}
	if up.PhotoURL != "" {
		set["photo_url"] = up.PhotoURL
	}

	update := bson.M{"$set": set}
	if len(up.Methods) > 0 {
		update["$addToSet"] = bson.M{"methods": bson.M{"$each": up.Methods}}
	}
	return update
}

// newIdentity builds the full document a first-time reconcile inserts.
func newIdentity(up authflow.UpsertIdentity, now time.Time) *authflow.Identity {
	identity := &authflow.Identity{
		ID:        up.ID,
		Email:     authflow.NormalizeEmail(up.Email),
		Name:      up.Name,
		PhotoURL:  up.PhotoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range up.Methods {
		identity.AddMethod(m)
	}
	return identity
}

func (s *Store) storeErr(err error, msg string) error {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
	return authflow.ErrStoreUnavailable.WithMetadata(map[string]any{"cause": err.Error()})
}
