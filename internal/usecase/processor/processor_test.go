package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"verification-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func encodeProof(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8((x * 255) / width), G: 90, B: uint8((y * 255) / height), A: 255})
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func TestProcess_RendersBoundedThumbnail(t *testing.T) {
	zlog.Init()
	p := NewThumbnailProcessor(&zlog.Logger)

	task := &domain.ThumbnailTask{
		SubmissionID: "sub-1",
		ProjectID:    "proj-1",
		ObjectPath:   "verification-images/proj-1/proj-1-123.jpg",
	}

	path, data, err := p.Process(context.Background(), task, encodeProof(t, 1600, 1067), "2026-08-29")
	require.NoError(t, err)

	assert.Equal(t, "thumbnails/sub-1.jpg", path)

	thumb, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, domain.DefaultThumbnailSize, thumb.Bounds().Dx())
	assert.LessOrEqual(t, thumb.Bounds().Dy(), domain.DefaultThumbnailSize)
}

func TestProcess_PortraitKeepsAspect(t *testing.T) {
	zlog.Init()
	p := NewThumbnailProcessor(&zlog.Logger)

	task := &domain.ThumbnailTask{SubmissionID: "sub-2", ProjectID: "proj-1"}

	_, data, err := p.Process(context.Background(), task, encodeProof(t, 600, 1200), "2026-08-29")
	require.NoError(t, err)

	thumb, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThumbnailSize, thumb.Bounds().Dy())
	assert.Equal(t, domain.DefaultThumbnailSize/2, thumb.Bounds().Dx())
}

func TestProcess_RejectsUndecodableProof(t *testing.T) {
	zlog.Init()
	p := NewThumbnailProcessor(&zlog.Logger)

	task := &domain.ThumbnailTask{SubmissionID: "sub-3", ProjectID: "proj-1"}

	_, _, err := p.Process(context.Background(), task, []byte("not a jpeg"), "2026-08-29")
	assert.Error(t, err)
}
