// Command upload-glb uploads a city model file into the GridFS bucket the map server
// streams from, then prunes older revisions of the same filename. Run it whenever the
// model is re-exported:
//
//	MONGODB_URI=mongodb://localhost:27017 upload-glb path/to/city.glb
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"darkcity.io/mapweb/common/logging"
	cst "darkcity.io/mapweb/constants"
	st "darkcity.io/mapweb/stores"
)

func main() {
	_ = godotenv.Load()
	if err := run(); err != nil {
		log.WithError(err).Fatal("upload failed")
	}
}

func run() error {
	viper.AutomaticEnv()
	viper.SetDefault(cst.EnvMongoDatabase, "darkcity")
	viper.SetDefault(cst.EnvGridFSBucket, "darkCityAssets")
	viper.SetDefault(cst.EnvMapGLBFilename, "dark.city.map.glb")
	logging.SetupLog("UploadGLB")

	name := flag.String("name", viper.GetString(cst.EnvMapGLBFilename), "filename to store the model under")
	flag.Parse()
	if flag.NArg() != 1 {
		return fmt.Errorf("usage: upload-glb [-name filename] <path-to-glb>")
	}
	path := flag.Arg(0)

	uri := viper.GetString(cst.EnvMongoURI)
	if uri == "" {
		return fmt.Errorf("%s is not set", cst.EnvMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	client, perr := st.Dial(ctx, uri)
	if perr != nil {
		return perr
	}
	defer client.Disconnect(context.Background())

	db := client.Database(viper.GetString(cst.EnvMongoDatabase))
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(viper.GetString(cst.EnvGridFSBucket)))
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = bucket.SetWriteDeadline(dl)
		_ = bucket.SetReadDeadline(dl)
	}

	old, err := revisionIDs(ctx, bucket, *name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	id, err := bucket.UploadFromStream(*name, f)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"filename": *name,
		"fileID":   id.Hex(),
		"bytes":    info.Size(),
	}).Info("model uploaded")

	// old revisions are only deleted once the new one is fully in place, so a failed
	// upload never leaves the server with nothing to stream
	for _, oid := range old {
		if err := bucket.Delete(oid); err != nil {
			log.WithError(err).WithField("fileID", oid.Hex()).Warning("error pruning old revision")
			continue
		}
		log.WithField("fileID", oid.Hex()).Info("old revision pruned")
	}
	return nil
}

func revisionIDs(ctx context.Context, bucket *gridfs.Bucket, name string) ([]primitive.ObjectID, error) {
	cur, err := bucket.Find(bson.M{"filename": name})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var f struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&f); err != nil {
			return nil, err
		}
		ids = append(ids, f.ID)
	}
	return ids, cur.Err()
}
