package normalizer

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"verification-service/internal/domain"

	xdraw "golang.org/x/image/draw"
)

// Normalizer turns an arbitrary JPEG or PNG into a proof image that fits the
// width and byte budget. The server runs this on every upload regardless of
// what the client claims to have done already; the client is not a trust
// boundary.
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Normalize validates the declared type, downscales to at most
// domain.MaxWidth and re-encodes at decreasing JPEG quality until the result
// fits domain.TargetMaxBytes. It never upscales and never returns an
// oversized buffer.
func (n *Normalizer) Normalize(data []byte, mimeType string) (*domain.NormalizedImage, error) {
	if !domain.AllowedMimeTypes[strings.ToLower(mimeType)] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()
	if origWidth == 0 || origHeight == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecodeFailed)
	}

	width := origWidth
	height := origHeight
	scale := 1.0
	if origWidth > domain.MaxWidth {
		scale = float64(domain.MaxWidth) / float64(origWidth)
		width = domain.MaxWidth
		height = int(math.Round(float64(origHeight) * scale))
		img = resizeImage(img, width, height)
	}

	quality := domain.QualityStart
	encoded, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	for len(encoded) > domain.TargetMaxBytes && quality-domain.QualityStep >= domain.QualityFloor {
		quality -= domain.QualityStep
		encoded, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
	}
	if len(encoded) > domain.TargetMaxBytes {
		return nil, ErrCompressionFailed
	}

	return &domain.NormalizedImage{
		Data:    encoded,
		Width:   width,
		Height:  height,
		Quality: quality,
		Scale:   scale,
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func resizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}
