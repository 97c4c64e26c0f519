// Package storage fetches resume documents from local disk or from
// S3-compatible object stores.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sony/gobreaker/v2"

	"skillmatch/internal/common"
	"skillmatch/internal/config"
	apperrors "skillmatch/internal/errors"
	"skillmatch/internal/types"
	"skillmatch/internal/utils"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client used to fetch documents
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Location identifies a document on local disk or in a bucket
type Location struct {
	Bucket string
	Key    string
	Path   string
}

// Remote reports whether the location is an object store key
func (l Location) Remote() bool {
	return l.Bucket != ""
}

// Name returns the document's base file name
func (l Location) Name() string {
	if l.Remote() {
		return path.Base(l.Key)
	}
	return filepath.Base(l.Path)
}

func (l Location) String() string {
	if l.Remote() {
		return s3Scheme + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation parses either s3://bucket/key or a local file path
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, apperrors.NewValidationError(apperrors.ErrCodeInvalidLocation,
			"document location cannot be empty", nil)
	}

	if rest, ok := strings.CutPrefix(raw, s3Scheme); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, apperrors.NewValidationError(apperrors.ErrCodeInvalidLocation,
				fmt.Sprintf("invalid object location %q, expected s3://bucket/key", raw), nil)
		}
		return Location{Bucket: bucket, Key: key}, nil
	}

	if scheme, _, found := strings.Cut(raw, "://"); found {
		return Location{}, apperrors.NewValidationError(apperrors.ErrCodeInvalidLocation,
			fmt.Sprintf("unsupported location scheme %q", scheme), nil)
	}

	return Location{Path: raw}, nil
}

// Source reads documents for analysis
type Source struct {
	s3      config.S3Config
	maxSize int64
	client  ObjectGetter
	breaker *CircuitBreaker
	files   *common.FileProcessor
	logger  *apperrors.Logger
	sleep   sleepFunc
}

// NewSource creates a Source from configuration. The S3 client is only
// created when object storage is enabled.
func NewSource(ctx context.Context, cfg *config.Config, logger *apperrors.Logger) (*Source, error) {
	if !cfg.Storage.S3.Enabled {
		return NewSourceWithClient(cfg, nil, logger), nil
	}

	client, err := newS3Client(ctx, cfg.Storage.S3)
	if err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			"failed to configure object storage client", err)
	}
	return NewSourceWithClient(cfg, client, logger), nil
}

// NewSourceWithClient creates a Source around an existing object client.
// A nil client disables s3:// locations.
func NewSourceWithClient(cfg *config.Config, client ObjectGetter, logger *apperrors.Logger) *Source {
	s := &Source{
		s3:      cfg.Storage.S3,
		maxSize: cfg.App.MaxFileSize,
		client:  client,
		files:   common.NewFileProcessor(logger),
		logger:  logger,
		sleep:   sleepContext,
	}
	if client != nil {
		s.breaker = NewCircuitBreaker("s3", cfg.Storage.S3.CircuitBreaker, logger)
	}
	return s
}

func newS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, s3Options(cfg)), nil
}

// s3Options applies the endpoint settings and disables the SDK retryer;
// Fetch owns the retry budget
func s3Options(cfg config.S3Config) func(*s3.Options) {
	return func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		o.Retryer = aws.NopRetryer{}
	}
}

// Fetch reads the document at raw, a local path or s3://bucket/key
func (s *Source) Fetch(ctx context.Context, raw string) (types.Document, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return types.Document{}, err
	}

	if !loc.Remote() {
		data, err := s.files.ReadDocument(loc.Path, s.maxSize)
		if err != nil {
			return types.Document{}, err
		}
		return types.Document{Name: loc.Name(), Data: data}, nil
	}

	data, err := s.fetchObject(ctx, loc)
	if err != nil {
		return types.Document{}, err
	}
	return types.Document{Name: loc.Name(), Data: data}, nil
}

func (s *Source) fetchObject(ctx context.Context, loc Location) ([]byte, error) {
	if s.client == nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageDisabled,
			"object storage is not enabled", nil).
			WithContext("location", loc.String())
	}

	if s.s3.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.s3.Timeout)
		defer cancel()
	}

	data, err := s.breaker.Execute(func() ([]byte, error) {
		return retry(ctx, s.s3.Retries, s.sleep, func() ([]byte, error) {
			return s.getObject(ctx, loc)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewStorageError(apperrors.ErrCodeCircuitOpen,
				"object storage is temporarily unavailable", err).
				WithContext("location", loc.String())
		}
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFetch,
			"failed to fetch document", err).
			WithContext("bucket", loc.Bucket).
			WithContext("key", loc.Key)
	}

	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeFileTooLarge,
			fmt.Sprintf("Object exceeds %s limit: %s", utils.FormatFileSize(s.maxSize), loc), nil)
	}

	if s.logger != nil {
		s.logger.Debug("Fetched document from object storage",
			"bucket", loc.Bucket,
			"key", loc.Key,
			"size", utils.FormatFileSize(int64(len(data))))
	}
	return data, nil
}

func (s *Source) getObject(ctx context.Context, loc Location) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, permanent(fmt.Errorf("object not found: %w", err))
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil && s.logger != nil {
			s.logger.Debug("Failed to close object body", "key", loc.Key, "error", err)
		}
	}()

	var body io.Reader = out.Body
	if s.maxSize > 0 {
		body = io.LimitReader(out.Body, s.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// Enabled reports whether s3:// locations can be fetched
func (s *Source) Enabled() bool {
	return s.client != nil
}

// Stats returns the storage breaker statistics
func (s *Source) Stats() map[string]any {
	stats := s.breaker.GetStats()
	stats["s3_enabled"] = s.Enabled()
	return stats
}

// Healthy reports whether object storage is usable
func (s *Source) Healthy() bool {
	return s.breaker.IsHealthy()
}
