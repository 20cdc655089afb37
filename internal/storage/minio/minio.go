// Package minio stores certificates in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"astrotalk/internal/storage"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const keyPrefix = "certificates"

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts mclient.PutObjectOptions) (mclient.UploadInfo, error)
}

type CertificateStore struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
}

// New connects to the endpoint and fails fast when the bucket is missing.
// A scheme on the endpoint selects TLS.
func New(ctx context.Context, cfg Config) (*CertificateStore, error) {
	const op = "storage/minio/New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return newWithClient(client, cfg), nil
}

func newWithClient(client objectPutter, cfg Config) *CertificateStore {
	return &CertificateStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Save uploads data under certificates/<name>. The returned address uses
// PublicBaseURL when configured, otherwise the bucket-relative path.
func (s *CertificateStore) Save(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	const op = "storage/minio/Save"

	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", storage.ErrInvalidImage
	}
	key := path.Join(keyPrefix, name)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.publicBaseURL == "" {
		return "/" + path.Join(s.bucket, key), nil
	}
	return s.publicBaseURL + "/" + key, nil
}

var _ storage.CertificateStore = (*CertificateStore)(nil)
