// Package s3 uploads export archives to S3-compatible object storage.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/export"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// DefaultURLExpiry is how long a presigned download link stays valid.
const DefaultURLExpiry = time.Hour

// Config locates the bucket.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Uploader stores project archives under "<project id>/<archive name>".
type Uploader struct {
	client *minio.Client
	bucket string
	region string
	log    *zap.Logger

	initOnce sync.Once
	initErr  error
}

// Option configures an [Uploader].
type Option func(*Uploader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(u *Uploader) { u.log = l }
}

// New validates cfg and creates an Uploader. No request is made until the
// first upload.
func New(cfg Config, opts ...Option) (*Uploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3: endpoint is required: %w", builder.ErrValidation)
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3: access key and secret key are required: %w", builder.ErrValidation)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required: %w", builder.ErrValidation)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: init client: %w", err)
	}
	u := &Uploader{client: client, bucket: bucket, region: region, log: zap.NewNop()}
	for _, o := range opts {
		o(u)
	}
	return u, nil
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.log.Info("creating export bucket", zap.String("bucket", u.bucket))
		u.initErr = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// ObjectKey is the key an archive of p is stored under.
func ObjectKey(p builder.Project) string {
	return p.ID + "/" + export.ArchiveName(p)
}

// Upload stores a zip archive of the project and returns its object key.
func (u *Uploader) Upload(ctx context.Context, p builder.Project, pages []builder.Page, components []builder.Component) (string, error) {
	if p.ID == "" {
		return "", errors.New("s3: project id is required")
	}
	var buf bytes.Buffer
	if err := export.Project(&buf, p, pages, components); err != nil {
		return "", err
	}
	if err := u.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("s3: ensure bucket %s: %w", u.bucket, err)
	}
	key := ObjectKey(p)
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	u.log.Info("export uploaded", zap.String("bucket", u.bucket), zap.String("key", key), zap.Int("bytes", buf.Len()))
	return key, nil
}

// URL returns a presigned download link for key.
func (u *Uploader) URL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	link, err := u.client.PresignedGetObject(ctx, u.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("s3: presign %s: %w", key, err)
	}
	return link.String(), nil
}
