package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client S3Store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Options configures S3Store. Empty values fall back to the standard AWS
// configuration and credential chain.
type S3Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	Profile       string
	UsePathStyle  bool
	PublicBaseURL string
}

// S3Store uploads clips to an S3-compatible bucket.
type S3Store struct {
	client S3API
	opts   S3Options
}

// NewS3 builds an S3Store from the default AWS configuration chain.
func NewS3(ctx context.Context, opts S3Options) (*S3Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if opts.Region == "" {
		opts.Region = awsCfg.Region
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewS3WithClient(client, opts), nil
}

// NewS3WithClient wraps a preconfigured client.
func NewS3WithClient(client S3API, opts S3Options) *S3Store {
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &S3Store{client: client, opts: opts}
}

// Upload implements ObjectStore.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %s", s.opts.Bucket, key, describeAPIError(err))
	}
	return nil
}

// PublicURL implements ObjectStore. An explicit public base URL wins; a custom
// endpoint yields a path-style URL; otherwise the virtual-hosted AWS URL is used.
func (s *S3Store) PublicURL(key string) string {
	switch {
	case s.opts.PublicBaseURL != "":
		return s.opts.PublicBaseURL + "/" + key
	case s.opts.Endpoint != "":
		return s.opts.Endpoint + "/" + s.opts.Bucket + "/" + key
	case s.opts.Region != "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.opts.Bucket, key)
	}
}

// Check implements Checker with HeadBucket.
func (s *S3Store) Check(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.opts.Bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %s", s.opts.Bucket, describeAPIError(err))
	}
	return nil
}

// describeAPIError keeps the service error code and message and drops the
// request metadata the SDK appends.
func describeAPIError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}
