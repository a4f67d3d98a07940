package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Luminance weights applied by FromImage (ITU-R BT.601).
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// FromImage converts img to 8-bit luminance and stores it in dst.
//
// If dst is nil a new image is allocated; otherwise dst is reshaped and its
// storage reused. The returned image is always dst (or the new image). Pixel
// (0, 0) of the result corresponds to img.Bounds().Min.
//
// *image.Gray input is copied as is. Anything else goes through bild's
// effect.GrayscaleWithWeights with the LumaR, LumaG and LumaB weights. bild
// returns RGBA with the luma replicated in R, G and B, so only the R byte of
// each pixel is kept.
func FromImage(img image.Image, dst *GrayU8) *GrayU8 {
	if dst == nil {
		dst = &GrayU8{}
	}

	if gray, ok := img.(*image.Gray); ok {
		b := gray.Bounds()
		dst.Reshape(b.Dx(), b.Dy())
		for y := 0; y < dst.Height; y++ {
			off := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Data[y*dst.Stride:y*dst.Stride+dst.Width], gray.Pix[off:off+dst.Width])
		}
		return dst
	}

	rgba := effect.GrayscaleWithWeights(img, LumaR, LumaG, LumaB)
	b := rgba.Bounds()
	dst.Reshape(b.Dx(), b.Dy())
	for y := 0; y < dst.Height; y++ {
		row := dst.Data[y*dst.Stride : y*dst.Stride+dst.Width]
		off := rgba.PixOffset(b.Min.X, b.Min.Y+y)
		for x := range row {
			row[x] = rgba.Pix[off+4*x]
		}
	}
	return dst
}

// ToImage copies g into a standard library gray image.
func ToImage(g *GrayU8) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+g.Width], g.Data[y*g.Stride:y*g.Stride+g.Width])
	}
	return out
}
