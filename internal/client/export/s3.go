package export

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/medialog/internal/netx"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

const presignExpiry = 15 * time.Minute

// S3Options address an S3-compatible bucket. Empty credentials fall back to
// the default AWS credential chain.
type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Sink uploads exports with a presigned PUT, so the same upload path
// serves AWS and MinIO-style endpoints.
type S3Sink struct {
	opts S3Options
	http *http.Client
}

func NewS3Sink(opts S3Options, hc *http.Client) (*S3Sink, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 export: bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	return &S3Sink{opts: opts, http: hc}, nil
}

func (s *S3Sink) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(s.opts.Region)}
	if s.opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.opts.AccessKey, s.opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.opts.Endpoint)
		}
		o.UsePathStyle = s.opts.UsePathStyle
	})
	return s3.NewPresignClient(client), nil
}

// Put returns the s3:// location of the uploaded object.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 config: %w", err)
	}

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(name),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, s.http, req.URL, contentType, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", s.opts.Bucket, name), nil
}

// URLSink uploads to a presigned URL handed out by someone else.
type URLSink struct {
	URL  string
	HTTP *http.Client
}

func (s URLSink) Put(ctx context.Context, _ string, data []byte) (string, error) {
	if err := netx.UploadToPresignedURL(ctx, s.HTTP, s.URL, contentType, data); err != nil {
		return "", err
	}
	return s.URL, nil
}
