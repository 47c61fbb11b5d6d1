// Package storage keeps invoice documents, logos and customer attachments in
// a Google Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"invoicegen/internal/logger"
	"invoicegen/pkg/services"
)

// GCSStore is an object store on one bucket.
type GCSStore struct {
	client *gcs.Client
	keys   Keys
	log    zerolog.Logger
}

var _ services.ObjectStore = (*GCSStore)(nil)

// NewGCSStore connects to GCS. opts are passed to the client, e.g.
// option.WithCredentialsFile.
func NewGCSStore(ctx context.Context, keys Keys, opts ...option.ClientOption) (*GCSStore, error) {
	const op = "NewGCSStore"

	if strings.TrimSpace(keys.Bucket) == "" {
		return nil, NewStorageError(op, "", ErrBucketNotConfigured)
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, NewStorageError(op, "", fmt.Errorf("create client: %w", err))
	}

	return NewGCSStoreWithClient(client, keys), nil
}

// NewGCSStoreWithClient wraps an existing client.
func NewGCSStoreWithClient(client *gcs.Client, keys Keys) *GCSStore {
	return &GCSStore{
		client: client,
		keys:   keys,
		log:    logger.WithComponent("storage").With().Str("bucket", keys.Bucket).Logger(),
	}
}

// Keys returns the key builder of the store's bucket.
func (s *GCSStore) Keys() Keys {
	return s.keys
}

// Put uploads data under key and returns its public URL.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const op = "Put"

	if strings.TrimSpace(key) == "" {
		return "", NewStorageError(op, key, ErrInvalidKey)
	}

	w := s.client.Bucket(s.keys.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", NewStorageError(op, key, classify(err))
	}
	if err := w.Close(); err != nil {
		return "", NewStorageError(op, key, classify(err))
	}

	s.log.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("Object uploaded")

	return s.keys.URL(key), nil
}

// Get downloads the object behind a public URL or a plain key.
func (s *GCSStore) Get(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "Get"

	key := s.keys.KeyFromURL(rawURL)
	if key == "" {
		return nil, NewStorageError(op, rawURL, ErrInvalidKey)
	}

	r, err := s.client.Bucket(s.keys.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, NewStorageError(op, key, classify(err))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewStorageError(op, key, err)
	}

	s.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Object downloaded")
	return data, nil
}

// Delete removes key. Deleting a missing object succeeds, so the call can be
// repeated safely.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	const op = "Delete"

	if strings.TrimSpace(key) == "" {
		return NewStorageError(op, key, ErrInvalidKey)
	}

	err := s.client.Bucket(s.keys.Bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return NewStorageError(op, key, classify(err))
	}

	s.log.Info().Str("key", key).Bool("existed", err == nil).Msg("Object deleted")
	return nil
}

// List returns the keys below prefix.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	const op = "List"

	it := s.client.Bucket(s.keys.Bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, NewStorageError(op, prefix, classify(err))
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// classify maps backend failures onto the package sentinels.
func classify(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
		}
	}
	return err
}
