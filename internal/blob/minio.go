package blob

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

type Options struct {
	// Endpoint is "host:port" (plain HTTP) or an http(s) URL without path.
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// Timeout bounds each call; zero means the caller's context only.
	Timeout time.Duration
}

// MinioStore implements Store with minio-go against S3 or MinIO.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	// bare host:port, e.g. a local MinIO
	return raw, false, nil
}

// credentialsFor prefers static keys and otherwise walks the usual AWS
// sources: environment, shared credentials file, instance role.
func credentialsFor(opts Options) *credentials.Credentials {
	if opts.AccessKey != "" {
		return credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

func NewMinio(opts Options) (*MinioStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("object store bucket not configured")
	}
	endpoint, secure, err := normaliseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentialsFor(opts),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStore{client: client, bucket: opts.Bucket, timeout: opts.Timeout}, nil
}

func (s *MinioStore) Bucket() string { return s.bucket }

func (s *MinioStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *MinioStore) Put(ctx context.Context, obj Object) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	size := obj.Size
	if size == 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, obj.Key, obj.Body, size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: map[string]string{MetaOriginalName: obj.OriginalName},
	})
	return errors.Wrapf(err, "put object %s/%s", s.bucket, obj.Key)
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	return errors.Wrapf(err, "remove object %s/%s", s.bucket, key)
}

func (s *MinioStore) CheckBucket(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", s.bucket)
	}
	if !exists {
		return errors.Errorf("bucket does not exist: %s", s.bucket)
	}
	return nil
}
