// Package stores holds the persistence layer: the pins collection, the singleton
// district-zone configuration document and the GridFS bucket the city model is
// streamed from. All implementations are driven by MongoDB.
package stores

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	pe "darkcity.io/mapweb/errors"
)

const (
	CollectionPins      = "pins"
	CollectionMapConfig = "map_config"
)

// Dial connects a Mongo client. The caller owns the client lifecycle and is expected
// to verify liveness with Ping (wrapped in the startup retry policy).
func Dial(ctx context.Context, uri string) (*mongo.Client, *pe.Err) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, pe.NewDependencyFailure("error connecting to mongodb").WithCause(err)
	}
	return client, nil
}

// Ping verifies the deployment is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
