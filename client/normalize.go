// Package client prepares proof photos on the caller's side and submits them
// to the verification service. Normalization here is a convenience for the
// uploader: the server re-runs the same algorithm on whatever bytes arrive,
// so this implementation is deliberately independent of the server's.
package client

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// TargetMaxBytes is the hard ceiling for a normalized image.
	TargetMaxBytes = 500 * 1024

	// MaxWidth is the largest width a normalized image may have.
	MaxWidth = 1600

	qualityStart = 80
	qualityStep  = 5
	qualityFloor = 45
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// NormalizedImage is a proof photo ready for submission.
type NormalizedImage struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
	Scale   float64
}

// Normalize validates the declared type, downscales to at most MaxWidth
// (never upscaling) and re-encodes as JPEG at decreasing quality until the
// result fits TargetMaxBytes. It fails rather than return an oversized
// buffer.
func Normalize(data []byte, mimeType string) (*NormalizedImage, error) {
	if !allowedMimeTypes[strings.ToLower(mimeType)] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	origWidth := img.Bounds().Dx()
	if origWidth == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecodeFailed)
	}

	scale := 1.0
	if origWidth > MaxWidth {
		scale = float64(MaxWidth) / float64(origWidth)
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	quality := qualityStart
	encoded, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	for len(encoded) > TargetMaxBytes && quality-qualityStep >= qualityFloor {
		quality -= qualityStep
		encoded, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
	}
	if len(encoded) > TargetMaxBytes {
		return nil, ErrCompressionFailed
	}

	return &NormalizedImage{
		Data:    encoded,
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Quality: quality,
		Scale:   scale,
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
