package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"verification-service/internal/config"
	"verification-service/internal/repository/verification"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type FileRepository struct {
	client  *minio.Client
	cfg     *config.Config
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewMinIORepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	repo := &FileRepository{
		client:  client,
		cfg:     cfg,
		retries: retries,
		logger:  logger,
	}

	if err := repo.ensureBucket(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *FileRepository) ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := r.client.BucketExists(ctx, r.cfg.Minio.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.cfg.Minio.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", r.cfg.Minio.Bucket, err)
	}

	r.logger.Info().Str("bucket", r.cfg.Minio.Bucket).Msg("Bucket created")
	return nil
}

// SaveProof stores a normalized proof image and returns its public URL.
func (r *FileRepository) SaveProof(ctx context.Context, path string, data []byte) (string, error) {
	err := retry.Do(func() error {
		_, err := r.client.PutObject(ctx, r.cfg.Minio.Bucket, path,
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "image/jpeg"})
		return err
	}, r.retries)
	if err != nil {
		return "", fmt.Errorf("%w: failed to put object %s: %v", verification.ErrStorageError, path, err)
	}

	return r.PublicURL(path), nil
}

// SaveThumbnail stores a worker-generated reviewer thumbnail.
func (r *FileRepository) SaveThumbnail(ctx context.Context, path string, data []byte) error {
	err := retry.Do(func() error {
		_, err := r.client.PutObject(ctx, r.cfg.Minio.Bucket, path,
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "image/jpeg"})
		return err
	}, r.retries)
	if err != nil {
		return fmt.Errorf("%w: failed to put thumbnail %s: %v", verification.ErrStorageError, path, err)
	}

	return nil
}

func (r *FileRepository) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, r.cfg.Minio.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get object %s: %v", verification.ErrStorageError, path, err)
	}

	// GetObject is lazy; a missing key only surfaces on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", verification.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to stat object %s: %v", verification.ErrStorageError, path, err)
	}

	return obj, nil
}

func (r *FileRepository) DeleteObject(ctx context.Context, path string) error {
	if err := r.client.RemoveObject(ctx, r.cfg.Minio.Bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// PublicURL derives the externally reachable URL for a stored object.
func (r *FileRepository) PublicURL(path string) string {
	if r.cfg.Minio.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", r.cfg.Minio.PublicBaseURL, r.cfg.Minio.Bucket, path)
	}
	scheme := "http"
	if r.cfg.Minio.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, r.cfg.Minio.Endpoint, r.cfg.Minio.Bucket, path)
}
