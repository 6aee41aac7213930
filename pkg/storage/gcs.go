package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS connects with credentialsFile, or with application default
// credentials when it is empty.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to create client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// PublicURL is the https reference returned by Put.
func (g *GCS) PublicURL(key string) string {
	return "https://storage.googleapis.com/" + g.bucket + "/" + key
}

// objectName accepts a bare key, gs://bucket/key or the public URL.
func objectName(bucket, ref string) (string, error) {
	for _, prefix := range []string{
		"gs://" + bucket + "/",
		"https://storage.googleapis.com/" + bucket + "/",
		"https://storage.cloud.google.com/" + bucket + "/",
	} {
		if strings.HasPrefix(ref, prefix) {
			return cleanKey(strings.TrimPrefix(ref, prefix))
		}
	}
	if strings.Contains(ref, "://") {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, ref)
	}
	return cleanKey(ref)
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	name, err := objectName(g.bucket, key)
	if err != nil {
		return "", err
	}
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("gcs: failed to copy data: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: failed to close writer: %w", err)
	}
	return g.PublicURL(name), nil
}

func (g *GCS) Get(ctx context.Context, ref string) ([]byte, error) {
	name, err := objectName(g.bucket, ref)
	if err != nil {
		return nil, err
	}
	rd, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to open object: %w", err)
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

func (g *GCS) Delete(ctx context.Context, ref string) error {
	name, err := objectName(g.bucket, ref)
	if err != nil {
		return err
	}
	err = g.client.Bucket(g.bucket).Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return fmt.Errorf("gcs: failed to delete object: %w", err)
	}
	return nil
}
