package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// OverlayOptions controls how corners are drawn by RenderCorners.
type OverlayOptions struct {
	// MarkerColor is a hex color ("#RRGGBB" or "#RRGGBBAA") used when no
	// cluster assignment is given. Defaults to opaque red.
	MarkerColor string

	// MarkerRadius is the half length of each cross arm. Defaults to 3.
	MarkerRadius int

	// Clusters optionally assigns a cluster id to each corner (same order as
	// the corners slice). Each cluster gets its own hue.
	Clusters []int

	// ShowLabels draws the corner index next to each marker.
	ShowLabels bool
}

// OverlayResult contains the annotated image encoded as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Corners     int    `json:"corners"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderCorners draws a cross at every corner on a copy of img.
//
// Corner coordinates are relative to img.Bounds().Min. Markers that fall
// partly outside the image are clipped.
func RenderCorners(img image.Image, corners []queue.Point2D, opts OverlayOptions) (*OverlayResult, error) {
	if opts.Clusters != nil && len(opts.Clusters) != len(corners) {
		return nil, fmt.Errorf("cluster assignment has %d entries for %d corners", len(opts.Clusters), len(corners))
	}

	radius := opts.MarkerRadius
	if radius <= 0 {
		radius = 3
	}

	marker, err := parseHexColor(opts.MarkerColor)
	if err != nil {
		marker = color.NRGBA{255, 0, 0, 255}
	}

	out := imaging.Clone(img)
	labelColor := image.NewUniform(color.NRGBA{255, 255, 0, 255})
	drawer := &font.Drawer{Dst: out, Src: labelColor, Face: basicfont.Face7x13}

	for i, p := range corners {
		c := marker
		if opts.Clusters != nil {
			c = clusterColor(opts.Clusters[i])
		}
		drawCross(out, p.X, p.Y, radius, c)

		if opts.ShowLabels {
			drawer.Dot = fixed.P(p.X+radius+1, p.Y-radius-1)
			drawer.DrawString(strconv.Itoa(i))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode overlay image: %w", err)
	}

	b := out.Bounds()
	return &OverlayResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Corners:     len(corners),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// clusterColor spreads cluster ids around the hue circle by the golden angle
// so neighboring ids get distinct colors.
func clusterColor(id int) color.NRGBA {
	hue := math.Mod(float64(id)*137.508, 360)
	if hue < 0 {
		hue += 360
	}
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func drawCross(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	b := img.Bounds()
	for d := -radius; d <= radius; d++ {
		if p := image.Pt(cx+d, cy); p.In(b) {
			img.SetNRGBA(p.X, p.Y, c)
		}
		if p := image.Pt(cx, cy+d); p.In(b) {
			img.SetNRGBA(p.X, p.Y, c)
		}
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}

	switch len(hex) {
	case 6:
		return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}
}
