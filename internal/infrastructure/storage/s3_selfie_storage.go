package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bitid-bot/internal/domain/port"
)

// S3Config параметры S3-совместимого хранилища (MinIO, Supabase Storage S3)
type S3Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string // если пусто, ссылка строится от endpoint: <endpoint>/<bucket>/<key>
}

// S3SelfieStorage хранит селфи в бакете; PutObject перезаписывает объект атомарно.
type S3SelfieStorage struct {
	client *minio.Client
	cfg    S3Config
}

func NewS3SelfieStorage(cfg S3Config) (*S3SelfieStorage, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &S3SelfieStorage{client: client, cfg: cfg}, nil
}

// EnsureBucket создаёт бакет, если его ещё нет.
func (s *S3SelfieStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

func (s *S3SelfieStorage) Upload(ctx context.Context, key string, data []byte, contentType string, upsert bool) error {
	if !upsert {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", key, port.ErrObjectExists)
		}
	}

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Remove в S3 удаление отсутствующего объекта не ошибка
func (s *S3SelfieStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *S3SelfieStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", key, err)
}

func (s *S3SelfieStorage) PublicURL(ctx context.Context, key string) (string, error) {
	if s.cfg.PublicBaseURL != "" {
		return url.JoinPath(s.cfg.PublicBaseURL, key)
	}
	return url.JoinPath(s.client.EndpointURL().String(), s.cfg.Bucket, key)
}

// Ping проверка готовности для /readyz
func (s *S3SelfieStorage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	return err
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

var _ port.SelfieStorage = (*S3SelfieStorage)(nil)
