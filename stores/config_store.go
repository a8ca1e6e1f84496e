package stores

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dst "darkcity.io/mapweb/districts"
	pe "darkcity.io/mapweb/errors"
)

// configDocID is the _id of the singleton zone layout document.
const configDocID = "districts"

// ConfigStore persists the singleton district-zone layout.
type ConfigStore interface {
	// Get returns NotFound until a layout has been saved
	Get(ctx context.Context) (*dst.Config, *pe.Err)
	// Put upserts the singleton unconditionally - concurrent saves are
	// last-writer-wins
	Put(ctx context.Context, cfg *dst.Config, updatedBy string) *pe.Err
}

type configDoc struct {
	ID        string     `bson:"_id"`
	Config    dst.Config `bson:"config"`
	UpdatedAt time.Time  `bson:"updatedAt"`
	UpdatedBy string     `bson:"updatedBy,omitempty"`
}

// MongoConfigStore is a ConfigStore over the map_config collection.
type MongoConfigStore struct {
	C *mongo.Collection
}

func NewMongoConfigStore(db *mongo.Database) *MongoConfigStore {
	return &MongoConfigStore{C: db.Collection(CollectionMapConfig)}
}

func (s *MongoConfigStore) Get(ctx context.Context) (*dst.Config, *pe.Err) {
	var doc configDoc
	if err := s.C.FindOne(ctx, bson.M{"_id": configDocID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pe.NewNotFound("district configuration not saved yet")
		}
		return nil, pe.NewServiceFailure("error getting district configuration").WithCause(err)
	}
	return &doc.Config, nil
}

func (s *MongoConfigStore) Put(ctx context.Context, cfg *dst.Config, updatedBy string) *pe.Err {
	doc := configDoc{
		ID:        configDocID,
		Config:    *cfg,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: updatedBy,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.C.ReplaceOne(ctx, bson.M{"_id": configDocID}, doc, opts); err != nil {
		return pe.NewServiceFailure("error saving district configuration").WithCause(err)
	}
	return nil
}
