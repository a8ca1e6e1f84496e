package stores

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pe "darkcity.io/mapweb/errors"
	md "darkcity.io/mapweb/models"
)

// PinStore vends the interface to interact with pin data.
type PinStore interface {
	List(ctx context.Context) ([]md.Pin, *pe.Err)
	Get(ctx context.Context, id string) (*md.Pin, *pe.Err)
	// Create rejects an id that already exists
	Create(ctx context.Context, p *md.Pin) *pe.Err
	// Update replaces the stored document unconditionally - concurrent edits to the
	// same pin are last-writer-wins
	Update(ctx context.Context, p *md.Pin) *pe.Err
	Delete(ctx context.Context, id string) *pe.Err
}

// MongoPinStore is a PinStore over the pins collection. The pin id is the document
// _id, so duplicate creation surfaces as a key collision.
type MongoPinStore struct {
	C *mongo.Collection
}

func NewMongoPinStore(db *mongo.Database) *MongoPinStore {
	return &MongoPinStore{C: db.Collection(CollectionPins)}
}

func (s *MongoPinStore) List(ctx context.Context) ([]md.Pin, *pe.Err) {
	cur, err := s.C.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, pe.NewServiceFailure("error listing pins").WithCause(err)
	}
	pins := []md.Pin{}
	if err := cur.All(ctx, &pins); err != nil {
		return nil, pe.NewServiceFailure("error decoding pins").WithCause(err)
	}
	return pins, nil
}

func (s *MongoPinStore) Get(ctx context.Context, id string) (*md.Pin, *pe.Err) {
	var p md.Pin
	if err := s.C.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pe.NewNotFound(fmt.Sprintf("pin %s not found", id))
		}
		return nil, pe.NewServiceFailure("error getting pin").WithCause(err)
	}
	return &p, nil
}

func (s *MongoPinStore) Create(ctx context.Context, p *md.Pin) *pe.Err {
	if _, err := s.C.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pe.NewExisted(fmt.Sprintf("pin %s already exists", p.ID))
		}
		return pe.NewServiceFailure("error saving pin").WithCause(err)
	}
	return nil
}

func (s *MongoPinStore) Update(ctx context.Context, p *md.Pin) *pe.Err {
	res, err := s.C.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return pe.NewServiceFailure("error updating pin").WithCause(err)
	}
	if res.MatchedCount == 0 {
		return pe.NewNotFound(fmt.Sprintf("pin %s not found", p.ID))
	}
	return nil
}

func (s *MongoPinStore) Delete(ctx context.Context, id string) *pe.Err {
	res, err := s.C.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return pe.NewServiceFailure("error deleting pin").WithCause(err)
	}
	if res.DeletedCount == 0 {
		return pe.NewNotFound(fmt.Sprintf("pin %s not found", id))
	}
	return nil
}
