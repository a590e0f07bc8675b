// Package storage uploads rendered composites to Supabase Storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"github.com/gogpu/mockup"
)

// ErrInvalidKey is returned for empty or escaping object keys.
var ErrInvalidKey = errors.New("storage: invalid object key")

// bucketClient is the subset of the Supabase storage client used here.
type bucketClient interface {
	UploadFile(bucketID, relativePath string, data io.Reader, opts ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	GetPublicUrl(bucketID, filePath string, opts ...storage_go.UrlOptions) storage_go.SignedUrlResponse
	RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error)
}

// SupabaseStorage writes objects into one bucket.
type SupabaseStorage struct {
	client bucketClient
	bucket string
}

// NewSupabaseStorage connects to the project at url with a service-role key.
func NewSupabaseStorage(url, serviceKey, bucket string) (*SupabaseStorage, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: create supabase client: %w", err)
	}
	return &SupabaseStorage{client: client.Storage, bucket: bucket}, nil
}

// Upload stores data under key, replacing any previous object, and returns
// its public URL.
func (s *SupabaseStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	_, err = s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s/%s: %w", s.bucket, key, err)
	}

	url := s.client.GetPublicUrl(s.bucket, key).SignedURL
	mockup.Logger().Debug("storage: uploaded",
		slog.String("bucket", s.bucket),
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return url, nil
}

// Remove deletes the object at key. Removing a missing object is not an
// error.
func (s *SupabaseStorage) Remove(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("storage: remove %s/%s: %w", s.bucket, key, err)
	}
	mockup.Logger().Debug("storage: removed", slog.String("bucket", s.bucket), slog.String("key", key))
	return nil
}

// ObjectKey builds the key of a generation's output: <user>/<id><ext>.
func ObjectKey(userID, generationID string, format mockup.Format) string {
	return path.Join(userID, generationID+format.Extension())
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
