package report

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/fileutil"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads report files to an S3-compatible bucket.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// NewPublisher builds a publisher from the storage configuration. A custom
// endpoint switches to path-style addressing, as most S3-compatible stores
// expect.
func NewPublisher(ctx context.Context, cfg config.Storage, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled || cfg.Bucket == "" {
		return nil, services.Wrap(services.ErrConfiguration, "report", "publisher", "storage is not configured", nil)
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "report", "publisher", "load aws config", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewPublisherWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logging.NewComponentLogger(logger, "publisher"),
	}
}

// Key joins the configured prefix and name.
func (p *Publisher) Key(name string) string {
	name = strings.TrimLeft(name, "/")
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Upload writes the file at localPath to key under the prefix and returns the
// full object key.
func (p *Publisher) Upload(ctx context.Context, key, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "report", "upload", "open "+localPath, err)
	}
	defer file.Close()
	if key == "" {
		key = filepath.Base(localPath)
	}
	full := p.Key(key)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	sum, size, err := fileutil.SHA256File(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "report", "upload", "hash "+localPath, err)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(full),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata:      map[string]string{"sha256": sum},
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "report", "upload", fmt.Sprintf("put s3://%s/%s", p.bucket, full), err)
	}
	logging.WithContext(ctx, p.logger).Info("report published",
		logging.String("bucket", p.bucket),
		logging.String("key", full),
		logging.String("content_type", contentType),
		logging.Int64("bytes", size))
	return full, nil
}
