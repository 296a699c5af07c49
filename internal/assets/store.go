package assets

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mantonx/streamflow/internal/logger"
)

// ImagesDir is the sub-directory holding uploaded images
const ImagesDir = "images"

// StoredImage describes a saved upload
type StoredImage struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
}

// Store writes processed images under root and builds their public URLs
type Store struct {
	root       string
	publicPath string
	processor  *ImageProcessor
}

// NewStore creates the images directory if needed
func NewStore(root, publicPath string, quality int) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, ImagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	return &Store{root: root, publicPath: publicPath, processor: NewImageProcessor(quality)}, nil
}

// Root is the directory served at the public path
func (s *Store) Root() string {
	return s.root
}

// SaveImage converts data to WebP and writes it under a random name
func (s *Store) SaveImage(data []byte) (*StoredImage, error) {
	encoded, width, height, err := s.processor.ConvertToWebP(data)
	if err != nil {
		return nil, err
	}

	name := uuid.NewString() + ".webp"
	target := filepath.Join(s.root, ImagesDir, name)

	// Write then rename so readers never see a partial file
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	logger.Debug("image stored", "name", name, "width", width, "height", height, "bytes", len(encoded))

	return &StoredImage{
		Name:   name,
		URL:    path.Join(s.publicPath, ImagesDir, name),
		Width:  width,
		Height: height,
		Size:   len(encoded),
	}, nil
}
