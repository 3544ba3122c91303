// Package storage is the image object store: listing photos live in
// MongoDB GridFS, keyed by derived filenames. Deletion is best-effort at
// every call site.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoClient connects and pings within a fixed timeout.
func NewMongoClient(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("storage.NewMongoClient: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("storage.NewMongoClient: ping: %w", err)
	}
	return client, nil
}

type PhotoStore struct {
	db *mongo.Database
}

func NewPhotoStore(client *mongo.Client, dbName string) *PhotoStore {
	return &PhotoStore{db: client.Database(dbName)}
}

// Put streams an image into GridFS under the given filename and returns the
// stored file id.
func (s *PhotoStore) Put(filename string, r io.Reader) (string, error) {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return "", fmt.Errorf("PhotoStore.Put: %w", err)
	}

	stream, err := bucket.OpenUploadStream(filename)
	if err != nil {
		return "", fmt.Errorf("PhotoStore.Put: %w", err)
	}
	defer stream.Close()

	if _, err := io.Copy(stream, r); err != nil {
		return "", fmt.Errorf("PhotoStore.Put: %w", err)
	}
	return stream.FileID.(primitive.ObjectID).Hex(), nil
}

// Download returns the image bytes and stored filename for a file id.
func (s *PhotoStore) Download(fileID string) ([]byte, string, error) {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return nil, "", fmt.Errorf("PhotoStore.Download: %w", err)
	}

	objID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("PhotoStore.Download: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(objID)
	if err != nil {
		return nil, "", fmt.Errorf("PhotoStore.Download: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, "", fmt.Errorf("PhotoStore.Download: %w", err)
	}
	return data, stream.GetFile().Name, nil
}

// Delete removes a stored image by file id.
func (s *PhotoStore) Delete(fileID string) error {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return fmt.Errorf("PhotoStore.Delete: %w", err)
	}
	objID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("PhotoStore.Delete: %w", err)
	}
	if err := bucket.Delete(objID); err != nil {
		return fmt.Errorf("PhotoStore.Delete: %w", err)
	}
	return nil
}
