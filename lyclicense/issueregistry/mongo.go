package issueregistry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultMongoCollection = "lyc_issued_licenses"

// validCollectionName matches safe MongoDB collection names.
var validCollectionName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MongoOption configures a MongoRegistry.
type MongoOption func(*MongoRegistry)

// WithCollectionName sets the MongoDB collection name. Default: "lyc_issued_licenses".
func WithCollectionName(name string) MongoOption {
	return func(r *MongoRegistry) {
		r.collectionName = name
	}
}

// MongoRegistry implements IssueRegistry using MongoDB.
type MongoRegistry struct {
	collection     *mongo.Collection
	collectionName string
}

// NewMongoRegistry creates a new MongoDB-backed issue registry.
// It creates the necessary indexes on initialization.
func NewMongoRegistry(ctx context.Context, db *mongo.Database, opts ...MongoOption) (*MongoRegistry, error) {
	r := &MongoRegistry{
		collectionName: defaultMongoCollection,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !validCollectionName.MatchString(r.collectionName) {
		return nil, fmt.Errorf("invalid collection name %q: must match [a-zA-Z_][a-zA-Z0-9_]*", r.collectionName)
	}
	r.collection = db.Collection(r.collectionName)

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return r, nil
}

func (r *MongoRegistry) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key_digest", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "plugin_id", Value: 1},
				{Key: "issued_at", Value: 1},
			},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoRegistry) Record(ctx context.Context, rec IssueRecord) (*IssueRecord, error) {
	filter := bson.M{"key_digest": rec.KeyDigest}
	update := bson.M{
		"$set": bson.M{
			"plugin_id":   rec.PluginID,
			"licensee_id": rec.LicenseeID,
			"issued_at":   rec.IssuedAt,
			"expires_at":  nullableTime(rec.ExpiresAt),
		},
		"$setOnInsert": bson.M{
			"id": rec.ID,
		},
	}

	// FindOneAndUpdate with ReturnDocument=After gives us the actual DB
	// values, so re-recording an existing digest keeps its original id.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var result IssueRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("record issuance: %w", err)
	}
	return &result, nil
}

func (r *MongoRegistry) Revoke(ctx context.Context, keyDigest string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"key_digest": keyDigest, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("revoke license: %w", err)
	}
	return nil
}

func (r *MongoRegistry) IsRevoked(ctx context.Context, keyDigest string) (bool, error) {
	var rec IssueRecord
	err := r.collection.FindOne(ctx, bson.M{"key_digest": keyDigest}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return !rec.RevokedAt.IsZero(), nil
}

func (r *MongoRegistry) Get(ctx context.Context, keyDigest string) (*IssueRecord, error) {
	var rec IssueRecord
	err := r.collection.FindOne(ctx, bson.M{"key_digest": keyDigest}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

func (r *MongoRegistry) ListByPlugin(ctx context.Context, pluginID string) ([]IssueRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"plugin_id": pluginID})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	var recs []IssueRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return recs, nil
}

func (r *MongoRegistry) CountActive(ctx context.Context, pluginID string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"plugin_id":  pluginID,
		"revoked_at": bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("count active: %w", err)
	}
	return int(count), nil
}

func (r *MongoRegistry) PruneExpired(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$ne": nil, "$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("prune expired: %w", err)
	}
	return int(result.DeletedCount), nil
}

func (r *MongoRegistry) Close(_ context.Context) error {
	return nil // user manages the mongo.Database lifecycle
}
