// Package objectstore stores downloaded documents in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-faster/errors"
)

// Config holds configuration for Sink.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, LocalStack)
	Prefix   string // Optional key prefix, e.g. "invoices/"
}

// Sink uploads documents to Bucket under Prefix.
type Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewSink creates a Sink using the default AWS credential chain.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Sink{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Key returns the object key used for a document name.
func (s *Sink) Key(name string) string {
	return s.prefix + name
}

// Save uploads doc and returns its s3:// location.
func (s *Sink) Save(ctx context.Context, name string, doc []byte) (string, error) {
	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put %s", key)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
