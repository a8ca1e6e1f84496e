package stores

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	pe "darkcity.io/mapweb/errors"
)

// AssetMeta describes the current revision of a stored asset. ETag is derived from
// the GridFS file id, so re-uploading the model yields a new tag.
type AssetMeta struct {
	ETag       string
	Length     int64
	UploadedAt time.Time
}

// AssetStore streams large binary assets (the city model) out of GridFS.
type AssetStore interface {
	Stat(ctx context.Context, name string) (*AssetMeta, *pe.Err)
	Open(ctx context.Context, name string) (io.ReadCloser, *pe.Err)
}

// GridFSAssetStore is an AssetStore over a GridFS bucket.
type GridFSAssetStore struct {
	B *gridfs.Bucket
}

func NewGridFSAssetStore(db *mongo.Database, bucketName string) (*GridFSAssetStore, *pe.Err) {
	b, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, pe.NewServiceFailure("error opening gridfs bucket").WithCause(err)
	}
	return &GridFSAssetStore{B: b}, nil
}

// assetFile mirrors the GridFS files-collection fields we read.
type assetFile struct {
	ID         primitive.ObjectID `bson:"_id"`
	Length     int64              `bson:"length"`
	UploadDate time.Time          `bson:"uploadDate"`
}

func (s *GridFSAssetStore) Stat(ctx context.Context, name string) (*AssetMeta, *pe.Err) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.B.SetReadDeadline(dl)
	}
	opts := options.GridFSFind().SetSort(bson.M{"uploadDate": -1}).SetLimit(1)
	cur, err := s.B.Find(bson.M{"filename": name}, opts)
	if err != nil {
		return nil, pe.NewServiceFailure("error looking up asset").WithCause(err)
	}
	defer cur.Close(ctx)
	if !cur.Next(ctx) {
		return nil, pe.NewNotFound(fmt.Sprintf("asset %s not found", name))
	}
	var f assetFile
	if err := cur.Decode(&f); err != nil {
		return nil, pe.NewServiceFailure("error decoding asset metadata").WithCause(err)
	}
	return &AssetMeta{
		ETag:       fmt.Sprintf("%q", f.ID.Hex()),
		Length:     f.Length,
		UploadedAt: f.UploadDate.UTC().Truncate(time.Second),
	}, nil
}

func (s *GridFSAssetStore) Open(ctx context.Context, name string) (io.ReadCloser, *pe.Err) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.B.SetReadDeadline(dl)
	}
	ds, err := s.B.OpenDownloadStreamByName(name)
	if err != nil {
		if err == gridfs.ErrFileNotFound {
			return nil, pe.NewNotFound(fmt.Sprintf("asset %s not found", name))
		}
		return nil, pe.NewServiceFailure("error opening asset stream").WithCause(err)
	}
	return ds, nil
}
