// Package storage uploads profile pictures to an S3-compatible bucket.
package storage

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
)

// ErrDisabled is returned by a Disabled uploader.
var ErrDisabled = errors.New("image uploads are not configured")

// Config selects the bucket and how objects are addressed.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes objects with public-read semantics left to the bucket
// policy and returns their public URL.
type S3Uploader struct {
	client putObjectAPI
	cfg    Config
}

// NewS3Uploader builds a client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies. A
// custom Endpoint switches to path-style addressing for MinIO and similar.
func NewS3Uploader(ctx context.Context, cfg Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
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
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client putObjectAPI, cfg Config) *S3Uploader {
	return &S3Uploader{client: client, cfg: cfg}
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return u.PublicURL(key), nil
}

// PublicURL is where key can be fetched once uploaded.
func (u *S3Uploader) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case u.cfg.PublicBaseURL != "":
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + escaped
	case u.cfg.Endpoint != "":
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, escaped)
	}
}

// Disabled rejects every upload. It is wired in when no bucket is set.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte) (string, error) {
	return "", ErrDisabled
}
