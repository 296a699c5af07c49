package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"testing"

	"github.com/mantonx/streamflow/internal/assets"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	store, err := assets.NewStore(t.TempDir(), "/media", 80)
	require.NoError(t, err)
	svc := NewMediaService(store, 1<<20)

	img, err := svc.UploadImage(context.Background(), admin, "poster.png", pngImage(t))
	require.NoError(t, err)
	assert.Contains(t, img.URL, "/media/images/")
	assert.Equal(t, 8, img.Width)

	_, err = svc.UploadImage(context.Background(), admin, "notes.txt", []byte("plain text"))
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = svc.UploadImage(context.Background(), admin, "empty.png", nil)
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
}

func TestUploadImageTooLarge(t *testing.T) {
	store, err := assets.NewStore(t.TempDir(), "/media", 80)
	require.NoError(t, err)
	svc := NewMediaService(store, 16)

	_, err = svc.UploadImage(context.Background(), admin, "poster.png", pngImage(t))
	appErr, ok := types.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPStatus)
}
