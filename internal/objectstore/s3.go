// Package objectstore issues presigned GET URLs for private asset files on S3
// (or any S3-compatible store such as MinIO).
package objectstore

import (
	"context"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Options struct {
	Region          string
	Endpoint        string // kosong = AWS; isi untuk MinIO/localstack
	AccessKeyID     string
	SecretAccessKey string
}

type S3Signer struct {
	presign *s3.PresignClient
}

// New loads the default AWS credential chain unless static keys are given.
func New(ctx context.Context, o Options) (*S3Signer, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(o.Region)}
	if o.AccessKeyID != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, errs.Upstream("s3", err)
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return NewWithClient(client), nil
}

func NewWithClient(c *s3.Client) *S3Signer {
	return &S3Signer{presign: s3.NewPresignClient(c)}
}

// SignURL presigns a GET for bucket/key valid for ttl. Signing is local; no
// request reaches the store.
func (s *S3Signer) SignURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errs.Upstream("s3", err)
	}
	return req.URL, nil
}
