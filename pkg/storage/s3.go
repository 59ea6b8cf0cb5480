package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// defaultS3Region is used when neither the flags nor the environment name one;
// the public 1000 Genomes bucket lives there.
const defaultS3Region = "us-east-1"

// S3Storage implements Storage for AWS S3
type S3Storage struct {
	client     *s3.Client
	downloader *manager.Downloader
}

// NewS3Storage creates a new S3 storage backend
func NewS3Storage(ctx context.Context, opts Options) (*S3Storage, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = defaultS3Region
	}

	return newS3StorageFromClient(s3.NewFromConfig(cfg)), nil
}

func newS3StorageFromClient(client *s3.Client) *S3Storage {
	return &S3Storage{
		client:     client,
		downloader: manager.NewDownloader(client),
	}
}

func (s *S3Storage) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	uri, err := ParseURI(path)
	if err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	open := func(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(uri.Bucket),
			Key:    aws.String(uri.Key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s at offset %d: %w", path, offset, err)
		}
		return out.Body, nil
	}

	return newRangeReader(ctx, aws.ToInt64(head.ContentLength), open), nil
}

func (s *S3Storage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	uri, err := ParseURI(path)
	if err != nil {
		return nil, err
	}

	// Download to memory
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err = s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}

	return buf.Bytes(), nil
}

func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	uri, err := ParseURI(path)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		// Without s3:ListBucket a missing key answers 403 rather than 404
		var status interface{ HTTPStatusCode() int }
		if errors.As(err, &status) && status.HTTPStatusCode() == http.StatusForbidden {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
