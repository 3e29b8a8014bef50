package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore keeps photos in a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStore wraps client; an empty baseURL uses the public storage.googleapis.com host.
func NewGCSStore(client *storage.Client, bucket, baseURL string) *GCSStore {
	bucket = strings.TrimSpace(bucket)
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://storage.googleapis.com/%s", bucket)
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: baseURL}
}

// Put implements PhotoStore. The DoesNotExist precondition keeps uploads from overwriting.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	clean, err := cleanObjectName(name)
	if err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(clean).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"
	if _, errWrite := w.Write(data); errWrite != nil {
		_ = w.Close()
		return fmt.Errorf("storage: gcs write %s: %w", clean, errWrite)
	}
	if errClose := w.Close(); errClose != nil {
		var apiErr *googleapi.Error
		if errors.As(errClose, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return ErrObjectExists
		}
		return fmt.Errorf("storage: gcs close %s: %w", clean, errClose)
	}
	return nil
}

// Delete implements PhotoStore.
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	clean, err := cleanObjectName(name)
	if err != nil {
		return err
	}
	if errDelete := s.client.Bucket(s.bucket).Object(clean).Delete(ctx); errDelete != nil && !errors.Is(errDelete, storage.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete %s: %w", clean, errDelete)
	}
	return nil
}

// PublicURL implements PhotoStore.
func (s *GCSStore) PublicURL(name string) string {
	return s.baseURL + "/" + strings.TrimLeft(name, "/")
}
