package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"bitid-bot/internal/domain/port"
)

// CloudinarySelfieStorage хранит селфи в Cloudinary под public id <folder>/<user id>.
type CloudinarySelfieStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinarySelfieStorage(cloudName, apiKey, apiSecret, folder string) (*CloudinarySelfieStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinarySelfieStorage{cld: cld, folder: folder}, nil
}

func (s *CloudinarySelfieStorage) Upload(ctx context.Context, key string, data []byte, contentType string, upsert bool) error {
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     s.publicID(key),
		Overwrite:    api.Bool(upsert),
		Invalidate:   api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("upload %s to Cloudinary: %w", key, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("upload %s to Cloudinary: %s", key, result.Error.Message)
	}
	return nil
}

// Remove ответ "not found" считается успехом
func (s *CloudinarySelfieStorage) Remove(ctx context.Context, key string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   s.publicID(key),
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("destroy %s in Cloudinary: %w", key, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("destroy %s in Cloudinary: %s", key, result.Error.Message)
	}
	return nil
}

func (s *CloudinarySelfieStorage) Exists(ctx context.Context, key string) (bool, error) {
	result, err := s.cld.Admin.Asset(ctx, admin.AssetParams{PublicID: s.publicID(key)})
	if err != nil {
		return false, fmt.Errorf("asset %s in Cloudinary: %w", key, err)
	}
	if msg := result.Error.Message; msg != "" {
		if strings.Contains(strings.ToLower(msg), "not found") {
			return false, nil
		}
		return false, errors.New(msg)
	}
	return true, nil
}

func (s *CloudinarySelfieStorage) PublicURL(ctx context.Context, key string) (string, error) {
	img, err := s.cld.Image(s.publicID(key))
	if err != nil {
		return "", fmt.Errorf("image %s: %w", key, err)
	}
	return img.String()
}

// publicID Cloudinary сам добавляет расширение, поэтому "42.jpg" превращается в "<folder>/42".
func (s *CloudinarySelfieStorage) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

var _ port.SelfieStorage = (*CloudinarySelfieStorage)(nil)
