// Package assets stores uploaded artwork (posters, backdrops, thumbnails) as
// WebP files under the configured assets directory.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
)

// Accepted upload types
var acceptedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ImageProcessor decodes uploads and re-encodes them as WebP
type ImageProcessor struct {
	quality int
}

// NewImageProcessor creates a processor encoding at quality (1-100)
func NewImageProcessor(quality int) *ImageProcessor {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &ImageProcessor{quality: quality}
}

// DetectMimeType sniffs the content type of data
func DetectMimeType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// IsAccepted reports whether mimeType may be uploaded
func IsAccepted(mimeType string) bool {
	return acceptedMimeTypes[strings.ToLower(mimeType)]
}

// ConvertToWebP decodes data and encodes it as lossy WebP.
// It returns the encoded bytes and the image dimensions.
func (ip *ImageProcessor) ConvertToWebP(data []byte) ([]byte, int, int, error) {
	mimeType := DetectMimeType(data)
	if !IsAccepted(mimeType) {
		return nil, 0, 0, fmt.Errorf("unsupported image type %s", mimeType)
	}

	img, err := ip.decodeImage(data, mimeType)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(ip.quality)}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode as WebP: %w", err)
	}

	bounds := img.Bounds()
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// decodeImage decodes an image from bytes based on MIME type
func (ip *ImageProcessor) decodeImage(data []byte, mimeType string) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(reader)
	case "image/png":
		return png.Decode(reader)
	case "image/webp":
		return webp.Decode(reader)
	default:
		return nil, fmt.Errorf("unsupported image type %s", mimeType)
	}
}
