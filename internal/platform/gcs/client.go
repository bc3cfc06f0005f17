// Package gcs manages the routing config bucket with the Cloud Storage
// client library.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"github.com/go-logr/logr"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/beaver-logs/beaver/internal/platform/executor"
)

// Client creates, fills and removes buckets in one project.
type Client struct {
	client  *storage.Client
	project string
	log     logr.Logger
}

// NewClient connects with application default credentials unless opts
// say otherwise.
func NewClient(ctx context.Context, project string, log logr.Logger, opts ...option.ClientOption) (*Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Client{client: client, project: project, log: log}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// CreateBucket creates bucket in location. A 409 from the API is reported
// as executor.ErrAlreadyExists.
func (c *Client) CreateBucket(ctx context.Context, bucket, location string, labels map[string]string) error {
	attrs := &storage.BucketAttrs{
		Location:                 location,
		Labels:                   labels,
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
	}
	if err := c.client.Bucket(bucket).Create(ctx, c.project, attrs); err != nil {
		return classify(fmt.Sprintf("create bucket %s", bucket), err)
	}
	c.log.V(1).Info("bucket created", "bucket", bucket, "location", location)
	return nil
}

// Upload writes the file at localPath to bucket/object.
func (c *Client) Upload(ctx context.Context, bucket, object, localPath string) error {
	// #nosec G304 -- local path is the generated routing artifact
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not read file %s: %w", localPath, err)
	}
	defer f.Close()

	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/yaml"
	n, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return classify(fmt.Sprintf("write gs://%s/%s", bucket, object), err)
	}
	if err := w.Close(); err != nil {
		return classify(fmt.Sprintf("write gs://%s/%s", bucket, object), err)
	}
	c.log.V(1).Info("object written", "bucket", bucket, "object", object, "bytes", n)
	return nil
}

// DeleteBucket deletes all objects of bucket and then the bucket.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	b := c.client.Bucket(bucket)
	it := b.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return classify(fmt.Sprintf("list gs://%s", bucket), err)
		}
		if err := b.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return classify(fmt.Sprintf("delete gs://%s/%s", bucket, attrs.Name), err)
		}
	}
	if err := b.Delete(ctx); err != nil {
		return classify(fmt.Sprintf("delete bucket %s", bucket), err)
	}
	return nil
}

// classify maps API failures onto the shared already-exists and not-found
// sentinels.
func classify(op string, err error) error {
	if errors.Is(err, storage.ErrBucketNotExist) || errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w: %w", op, executor.ErrNotFound, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusConflict:
			return fmt.Errorf("%s: %w: %w", op, executor.ErrAlreadyExists, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, executor.ErrNotFound, err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
