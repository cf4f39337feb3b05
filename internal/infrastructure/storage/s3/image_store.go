package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Config captures the settings for the product image bucket.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
	// PublicURL is the base URL images are served from. Derived from the
	// endpoint and bucket when empty.
	PublicURL string
}

// ImageStore keeps product images in an S3 compatible bucket.
type ImageStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewImageStore builds the S3 client. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain.
func NewImageStore(ctx context.Context, cfg Config) (*ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return NewImageStoreWithClient(client, cfg), nil
}

// NewImageStoreWithClient wraps an existing client.
func NewImageStoreWithClient(client *s3.Client, cfg Config) *ImageStore {
	return &ImageStore{client: client, bucket: cfg.Bucket, baseURL: publicBaseURL(cfg)}
}

// Put uploads data under key and returns the object's public URL.
func (s *ImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put image %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for key.
func (s *ImageStore) URL(key string) string {
	return s.baseURL + "/" + escapeKey(key)
}

// Ping checks that the bucket is reachable.
func (s *ImageStore) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}

// EnsureBucket creates the bucket when it does not exist yet (local MinIO).
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("s3 head bucket: %w", err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("s3 create bucket: %w", err)
	}
	return nil
}

func publicBaseURL(cfg Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "" && cfg.PathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" {
			return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		}
		return u.Scheme + "://" + cfg.Bucket + "." + u.Host
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
