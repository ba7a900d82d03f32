package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

// S3Store keeps runs as objects under a bucket prefix. Any S3-compatible
// endpoint works (R2, MinIO) when ArchiveConfig.S3Endpoint is set.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	prefix     string
	metrics    *metrics.Registry
	log        zerolog.Logger
}

// NewS3Store creates the client from the default AWS chain, or from static
// credentials when both keys are configured
func NewS3Store(ctx context.Context, cfg config.ArchiveConfig, m *metrics.Registry, log zerolog.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires a bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.S3Bucket,
		prefix:     normalizePrefix(cfg.S3Prefix),
		metrics:    m,
		log:        log.With().Str("component", "archive").Str("backend", config.ArchiveBackendS3).Str("bucket", cfg.S3Bucket).Logger(),
	}, nil
}

// Backend returns the backend name
func (s *S3Store) Backend() string {
	return config.ArchiveBackendS3
}

// Save uploads the run
func (s *S3Store) Save(ctx context.Context, outcome *portfolio.Outcome) (err error) {
	defer func() { s.metrics.RecordArchiveWrite(s.Backend(), result(err)) }()

	data, err := encode(outcome)
	if err != nil {
		return err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(outcome.RunID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/msgpack"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload run %s: %w", outcome.RunID, err)
	}

	s.log.Debug().Str("run_id", outcome.RunID).Int("bytes", len(data)).Msg("Archived run")
	return nil
}

// Load downloads one run
func (s *S3Store) Load(ctx context.Context, runID string) (*portfolio.Outcome, error) {
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", runID, portfolio.ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to download run %s: %w", runID, err)
	}
	return decode(buf.Bytes())
}

// List returns archived runs, newest first
func (s *S3Store) List(ctx context.Context) ([]Entry, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var entries []Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list archived runs: %w", err)
		}
		for _, obj := range page.Contents {
			runID, ok := s.runID(aws.ToString(obj.Key))
			if !ok {
				continue
			}
			entry := Entry{RunID: runID, SizeBytes: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				entry.CreatedAt = obj.LastModified.UTC()
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Delete removes one run
func (s *S3Store) Delete(ctx context.Context, runID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

func (s *S3Store) key(runID string) string {
	return s.prefix + objectName(path.Base(runID))
}

// runID extracts the run ID from an object key under the prefix
func (s *S3Store) runID(key string) (string, bool) {
	name, ok := strings.CutPrefix(key, s.prefix)
	if !ok || strings.Contains(name, "/") || !strings.HasSuffix(name, fileExtension) {
		return "", false
	}
	return strings.TrimSuffix(name, fileExtension), true
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
