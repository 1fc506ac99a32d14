// Package mongostore keeps one document per analyzed business in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewlens/internal/domain"
)

const CollectionName = "businesses"

// NewClient builds the persistence client. The driver connects lazily, so an
// unreachable server surfaces later as ErrStoreUnavailable rather than here.
func NewClient(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	return mongo.Connect(ctx, opts)
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New wraps an injected client. Index creation is best-effort.
func New(ctx context.Context, client *mongo.Client, dbName string) *Store {
	s := &Store{client: client, coll: client.Database(dbName).Collection(CollectionName)}
	s.ensureIndexes(ctx)
	return s
}

func (s *Store) ensureIndexes(ctx context.Context) {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category.category_id", Value: 1}}},
		{Keys: bson.D{{Key: "url", Value: 1}}},
	})
	if err != nil {
		log.Warn().Err(err).Str("collection", CollectionName).Msg("ensure indexes failed")
	}
}

// wrap marks connection-level driver failures as ErrStoreUnavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: mongo %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("mongo %s: %w", op, err)
}

func (s *Store) Upsert(ctx context.Context, a domain.BusinessAnalysis) error {
	if a.ID == "" {
		a.ID = domain.AnalysisID(a.URL)
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	return wrap("upsert", err)
}

func (s *Store) find(ctx context.Context, op string, filter bson.M) ([]domain.BusinessAnalysis, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, wrap(op, err)
	}
	out := []domain.BusinessAnalysis{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (s *Store) List(ctx context.Context) ([]domain.BusinessAnalysis, error) {
	return s.find(ctx, "list", bson.M{})
}

func (s *Store) ListByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, error) {
	return s.find(ctx, "list_by_category", bson.M{"category.category_id": categoryID})
}

func (s *Store) GetByURL(ctx context.Context, url string) (domain.BusinessAnalysis, error) {
	var a domain.BusinessAnalysis
	err := s.coll.FindOne(ctx, bson.M{"_id": domain.AnalysisID(url)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.BusinessAnalysis{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.BusinessAnalysis{}, wrap("get", err)
	}
	return a, nil
}

func (s *Store) DeleteByURL(ctx context.Context, url string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": domain.AnalysisID(url)})
	if err != nil {
		return false, wrap("delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{})
	return wrap("clear", err)
}

// Close disconnects the injected client; call once at shutdown.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
