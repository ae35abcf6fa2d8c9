package operations

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Stamper draws an identification line (project id and submission date) onto
// a reviewer thumbnail so a preview can always be traced back to its
// submission.
type Stamper struct {
	font *truetype.Font
}

func NewStamper() *Stamper {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return &Stamper{}
	}
	return &Stamper{
		font: f,
	}
}

func (s *Stamper) Process(img image.Image, text string) (image.Image, error) {
	if s.font == nil {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to load font: %w", err)
		}
		s.font = f
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, image.Point{}, draw.Src)

	fontSize := 12.0
	margin := 6

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(s.font)
	c.SetFontSize(fontSize)
	c.SetClip(result.Bounds())
	c.SetDst(result)
	c.SetSrc(image.NewUniform(color.RGBA{255, 255, 255, 230}))
	c.SetHinting(font.HintingFull)

	pt := freetype.Pt(margin, bounds.Dy()-margin)
	if _, err := c.DrawString(text, pt); err != nil {
		return nil, fmt.Errorf("failed to draw stamp text: %w", err)
	}

	return result, nil
}
