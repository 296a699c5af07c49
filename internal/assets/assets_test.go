package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveImageConvertsToWebP(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/media", 80)
	require.NoError(t, err)

	saved, err := store.SaveImage(pngBytes(t, 32, 16))
	require.NoError(t, err)

	assert.Equal(t, 32, saved.Width)
	assert.Equal(t, 16, saved.Height)
	assert.Equal(t, "/media/images/"+saved.Name, saved.URL)

	data, err := os.ReadFile(filepath.Join(dir, ImagesDir, saved.Name))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", DetectMimeType(data))
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/media", 80)
	require.NoError(t, err)

	_, err = store.SaveImage([]byte("<html>definitely not a poster</html>"))
	assert.ErrorContains(t, err, "unsupported image type")
}

func TestIsAccepted(t *testing.T) {
	assert.True(t, IsAccepted("image/png"))
	assert.True(t, IsAccepted("IMAGE/JPEG"))
	assert.False(t, IsAccepted("image/gif"))
}
