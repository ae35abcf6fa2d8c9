package operations

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"verification-service/internal/domain"

	xdraw "golang.org/x/image/draw"
)

type Thumbnailer struct{}

func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{}
}

// Process scales the proof image so its longest side equals size. Proofs are
// always JPEG by the time the worker sees them.
func (t *Thumbnailer) Process(img image.Image, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be a positive number")
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	var newWidth, newHeight int
	if origWidth > origHeight {
		newWidth = size
		newHeight = int(float64(origHeight) * float64(size) / float64(origWidth))
	} else {
		newHeight = size
		newWidth = int(float64(origWidth) * float64(size) / float64(origHeight))
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	return resizeImage(img, newWidth, newHeight), nil
}

func EncodeJPEG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: domain.DefaultJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func resizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}
