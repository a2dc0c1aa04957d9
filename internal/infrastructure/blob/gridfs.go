// Package blob stores attachment content outside the relational database.
// GridFS and S3-compatible object storage are supported.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBucket  = "attachments"
)

// GridFSStore keeps blobs in a MongoDB GridFS bucket, using the storage key
// as the GridFS filename.
type GridFSStore struct {
	db     *mongo.Database
	bucket string
}

func NewGridFSStore(db *mongo.Database, bucket string) *GridFSStore {
	if bucket == "" {
		bucket = defaultBucket
	}
	return &GridFSStore{db: db, bucket: bucket}
}

// open returns a fresh bucket handle; handles carry per-operation deadlines
// and must not be shared between goroutines.
func (s *GridFSStore) open() (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return b, nil
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(defaultTimeout)
}

func (s *GridFSStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	b, err := s.open()
	if err != nil {
		return err
	}
	if err := b.SetWriteDeadline(deadline(ctx)); err != nil {
		return fmt.Errorf("gridfs put %s: %w", key, err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	if _, err := b.UploadFromStream(key, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("gridfs put %s: %w", key, err)
	}
	return nil
}

// Delete removes every revision stored under key. A missing key is not an error.
func (s *GridFSStore) Delete(ctx context.Context, key string) error {
	b, err := s.open()
	if err != nil {
		return err
	}

	cur, err := b.FindContext(ctx, bson.M{"filename": key})
	if err != nil {
		return fmt.Errorf("gridfs find %s: %w", key, err)
	}
	defer cur.Close(ctx)

	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &files); err != nil {
		return fmt.Errorf("gridfs find %s: %w", key, err)
	}
	for _, f := range files {
		if err := b.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("gridfs delete %s: %w", key, err)
		}
	}
	return nil
}

// Ping reports whether the backing MongoDB deployment is reachable.
func (s *GridFSStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
