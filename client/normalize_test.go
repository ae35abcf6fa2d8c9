package client

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(t *testing.T, width, height int) *image.RGBA {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, makeTestImage(t, width, height), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, makeTestImage(t, width, height)))
	return buf.Bytes()
}

func TestNormalize_RejectsUnsupportedTypes(t *testing.T) {
	for _, mimeType := range []string{"image/gif", "image/webp", "text/html", ""} {
		_, err := Normalize([]byte("payload"), mimeType)
		assert.ErrorIs(t, err, ErrUnsupportedType, "mime type %q", mimeType)
	}
}

func TestNormalize_RejectsUndecodablePayload(t *testing.T) {
	_, err := Normalize([]byte("not an image"), "image/png")
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestNormalize_DownscalesToMaxWidth(t *testing.T) {
	result, err := Normalize(encodeTestJPEG(t, 3200, 2000), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, MaxWidth, result.Width)
	assert.Equal(t, 1000, result.Height)
	assert.LessOrEqual(t, len(result.Data), TargetMaxBytes)
	assert.InDelta(t, 0.5, result.Scale, 0.0001)

	// Non-integer aspect ratios round to the nearest pixel.
	result, err = Normalize(encodeTestJPEG(t, 3000, 2000), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, MaxWidth, result.Width)
	assert.InDelta(t, 1067, result.Height, 1)
}

func TestNormalize_NeverUpscales(t *testing.T) {
	result, err := Normalize(encodeTestPNG(t, 640, 480), "image/png")
	require.NoError(t, err)

	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 480, result.Height)
	assert.Equal(t, 1.0, result.Scale)
	assert.LessOrEqual(t, len(result.Data), TargetMaxBytes)
}

func TestNormalize_QualityStaysInRange(t *testing.T) {
	result, err := Normalize(encodeTestJPEG(t, 4000, 3000), "image/jpeg")
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Quality, qualityStart)
	assert.GreaterOrEqual(t, result.Quality, qualityFloor)
	assert.LessOrEqual(t, len(result.Data), TargetMaxBytes)
}
