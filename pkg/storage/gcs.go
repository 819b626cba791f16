package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSConfig configures the Google Cloud Storage driver. An empty
// CredentialsFile falls back to application default credentials.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSDisk stores objects in a Cloud Storage bucket and serves them from the
// public storage.googleapis.com host.
type GCSDisk struct {
	client  *gcs.Client
	bucket  *gcs.BucketHandle
	baseURL string
}

func NewGCSDisk(ctx context.Context, c GCSConfig) (*GCSDisk, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("storage/gcs: GCS_BUCKET is not configured")
	}

	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/gcs: new client: %w", err)
	}

	return &GCSDisk{
		client:  client,
		bucket:  client.Bucket(c.Bucket),
		baseURL: gcsPublicHost + "/" + c.Bucket,
	}, nil
}

func (d *GCSDisk) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	w := d.bucket.Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage/gcs: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage/gcs: put %s: %w", path, err)
	}
	return nil
}

func (d *GCSDisk) Get(ctx context.Context, path string) ([]byte, error) {
	rc, err := d.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("storage/gcs: get %s: %w", path, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (d *GCSDisk) Exists(ctx context.Context, path string) bool {
	_, err := d.bucket.Object(path).Attrs(ctx)
	return err == nil
}

func (d *GCSDisk) Delete(ctx context.Context, path string) error {
	err := d.bucket.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage/gcs: delete %s: %w", path, err)
	}
	return nil
}

func (d *GCSDisk) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (d *GCSDisk) Path(url string) (string, bool) {
	return trimBase(d.baseURL, url)
}

// Close releases the underlying client.
func (d *GCSDisk) Close() error {
	return d.client.Close()
}
