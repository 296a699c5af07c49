package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mantonx/streamflow/internal/assets"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/types"
)

// MediaService stores uploaded artwork
type MediaService struct {
	store   *assets.Store
	maxSize int64
}

// NewMediaService creates a media service accepting files up to maxSize bytes
func NewMediaService(store *assets.Store, maxSize int64) *MediaService {
	return &MediaService{store: store, maxSize: maxSize}
}

// MaxSize is the largest accepted upload in bytes
func (s *MediaService) MaxSize() int64 {
	return s.maxSize
}

// UploadImage converts a JPEG, PNG or WebP upload to WebP and stores it
func (s *MediaService) UploadImage(ctx context.Context, actor types.Actor, filename string, data []byte) (*assets.StoredImage, error) {
	if len(data) == 0 {
		return nil, types.NewValidationError("file is empty")
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, types.NewAppError(types.ErrorCodeValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.maxSize), http.StatusRequestEntityTooLarge)
	}
	if mt := assets.DetectMimeType(data); !assets.IsAccepted(mt) {
		return nil, types.NewValidationError("unsupported image type " + mt)
	}

	image, err := s.store.SaveImage(data)
	if err != nil {
		return nil, types.NewInternalError("failed to store image", err)
	}
	events.RecordAdminAction(ctx, actor, events.ActionCreate, events.EntityOther, image.Name, filename,
		map[string]interface{}{"url": image.URL, "bytes": image.Size})
	return image, nil
}
