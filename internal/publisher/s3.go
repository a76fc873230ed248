package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Yashvanth1222/SiteScraper/internal/config"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// ObjectPutter is the slice of the S3 API the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain applies. A
// custom endpoint targets MinIO or other S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3Publisher uploads articles to {prefix}/{date}/{slug}.html and
// {slug}.rss.xml in a bucket.
type S3Publisher struct {
	client   ObjectPutter
	bucket   string
	prefix   string
	manifest Manifest
	logger   *slog.Logger
}

// NewS3Publisher creates an S3Publisher.
func NewS3Publisher(client ObjectPutter, bucket, prefix string, manifest Manifest, logger *slog.Logger) *S3Publisher {
	return &S3Publisher{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		manifest: manifest,
		logger:   logger.With("component", "s3_publisher", "bucket", bucket),
	}
}

func (p *S3Publisher) Name() string { return "s3" }

// Key returns the object key for a file of the article.
func (p *S3Publisher) Key(date, name string) string {
	return path.Join(p.prefix, date, name)
}

func (p *S3Publisher) put(ctx context.Context, key, contentType, body string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(body)),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (p *S3Publisher) Publish(ctx context.Context, a *Formatted) (Result, error) {
	res, err := publishOnce(ctx, p.manifest, p.Name(), a, func() (string, error) {
		htmlKey := p.Key(a.Date, a.Slug+".html")
		if err := p.put(ctx, htmlKey, "text/html; charset=utf-8", a.HTML); err != nil {
			return "", err
		}
		if a.RSS != "" {
			if err := p.put(ctx, p.Key(a.Date, a.Slug+".rss.xml"), "application/rss+xml", a.RSS); err != nil {
				return "", err
			}
		}
		return "s3://" + p.bucket + "/" + htmlKey, nil
	})
	if err != nil {
		return res, &types.PublishError{Backend: p.Name(), Slug: a.Slug, Err: err}
	}

	if res.Skipped {
		p.logger.Info("skipping already-published article", "slug", a.Slug)
	} else {
		p.logger.Info("uploaded article", "slug", a.Slug, "location", res.Location)
	}
	return res, nil
}
