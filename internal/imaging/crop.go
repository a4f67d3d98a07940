package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Region is a rectangular area of interest.
//
// (X1, Y1) is the inclusive top-left corner and (X2, Y2) the exclusive
// bottom-right corner.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// PrepareOptions controls how a decoded image is turned into detector input.
type PrepareOptions struct {
	// Region restricts processing to part of the image. Nil means the whole image.
	Region *Region

	// MaxDimension downscales images whose width or height exceeds it,
	// preserving aspect ratio. Zero disables scaling.
	MaxDimension int

	// BlurRadius applies a Gaussian blur before detection. Zero disables it.
	BlurRadius float64
}

// Prepared is an image ready for detection plus the mapping back to the
// coordinates of the source image.
type Prepared struct {
	Image image.Image

	// ScaleX and ScaleY are prepared size / source size per axis. Rounding
	// the scaled size to whole pixels makes them differ slightly for
	// elongated images.
	ScaleX  float64
	ScaleY  float64
	OffsetX int // source X of prepared pixel 0
	OffsetY int // source Y of prepared pixel 0
}

// ToSource maps a prepared-image pixel back into source image coordinates.
func (p *Prepared) ToSource(x, y int) (int, int) {
	return p.OffsetX + int(float64(x)/p.ScaleX+0.5), p.OffsetY + int(float64(y)/p.ScaleY+0.5)
}

// Prepare crops, downscales and blurs img according to opts.
//
// # Errors
//
//   - Returns error if the region lies outside the image bounds
//   - Returns error if the region is empty (x1 >= x2 or y1 >= y2)
func Prepare(img image.Image, opts PrepareOptions) (*Prepared, error) {
	bounds := img.Bounds()
	p := &Prepared{Image: img, ScaleX: 1, ScaleY: 1, OffsetX: bounds.Min.X, OffsetY: bounds.Min.Y}

	if r := opts.Region; r != nil {
		if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		p.Image = imaging.Crop(img, r.Rect())
		p.OffsetX, p.OffsetY = r.X1, r.Y1
	}

	if opts.MaxDimension > 0 {
		b := p.Image.Bounds()
		if b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension {
			scaled := imaging.Fit(p.Image, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
			p.ScaleX = float64(scaled.Bounds().Dx()) / float64(b.Dx())
			p.ScaleY = float64(scaled.Bounds().Dy()) / float64(b.Dy())
			p.Image = scaled
		}
	}

	if opts.BlurRadius > 0 {
		p.Image = blur.Gaussian(p.Image, opts.BlurRadius)
	}

	return p, nil
}
