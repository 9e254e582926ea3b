package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"imagehound/internal/domain"
	"imagehound/internal/infra/config"
)

// compile-time check
var _ domain.ImageHost = (*S3Host)(nil)

// s3API is the slice of the S3 client the host uses; narrowed for tests.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Host stores images in an S3 (or MinIO) bucket and serves them from a
// public base URL. Object names are content-addressed by the transport's
// stable per-attachment identifier, so re-submissions reuse the hosted copy.
type S3Host struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
	logger  *slog.Logger
}

// NewS3Host creates an S3-backed image host.
func NewS3Host(ctx context.Context, cfg config.HostConfig, logger *slog.Logger) (*S3Host, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 host: bucket is required")
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Host{
		client:  s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:  logger,
	}, nil
}

// FileExists checks whether the named object is already hosted.
func (h *S3Host) FileExists(ctx context.Context, name string) (bool, error) {
	_, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.prefix + name),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, domain.WrapOp("S3Host.FileExists", err)
	}
	return true, nil
}

// URL returns the public URL the named object is served at.
func (h *S3Host) URL(name string) string {
	return h.baseURL + "/" + h.prefix + name
}

// Upload stores the object and returns its public URL.
func (h *S3Host) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(h.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", domain.WrapOp("S3Host.Upload", err)
	}

	h.logger.Debug("image uploaded", "name", name, "bytes", len(data))
	return h.URL(name), nil
}
