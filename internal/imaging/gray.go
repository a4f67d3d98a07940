package imaging

import "fmt"

// Pixel is the set of numeric types a gray image can store.
type Pixel interface {
	~uint8 | ~int16 | ~float32 | ~float64
}

// Gray is a single-band image stored row-major in Data.
//
// Pixel (x, y) lives at Data[y*Stride+x]. Images created by NewGray have
// Stride == Width, but Reshape may leave a larger backing array in place.
type Gray[T Pixel] struct {
	Width  int
	Height int
	Stride int
	Data   []T
}

// GrayU8 holds 8-bit intensities, the usual input to a detector.
type GrayU8 = Gray[uint8]

// GrayF32 holds single precision values.
type GrayF32 = Gray[float32]

// GrayF64 holds derivatives and corner intensity maps.
type GrayF64 = Gray[float64]

// NewGray allocates a zeroed width x height image.
func NewGray[T Pixel](width, height int) *Gray[T] {
	width, height = max(width, 0), max(height, 0)
	return &Gray[T]{
		Width:  width,
		Height: height,
		Stride: width,
		Data:   make([]T, width*height),
	}
}

// Get returns the pixel at (x, y). No bounds checking is done beyond the
// slice bounds check; use InBounds first for untrusted coordinates.
func (g *Gray[T]) Get(x, y int) T {
	return g.Data[y*g.Stride+x]
}

// Set writes the pixel at (x, y).
func (g *Gray[T]) Set(x, y int, v T) {
	g.Data[y*g.Stride+x] = v
}

// InBounds reports whether (x, y) is inside the image.
func (g *Gray[T]) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Reshape changes the image dimensions, reusing the backing array when it is
// large enough. Pixel values are undefined afterwards.
func (g *Gray[T]) Reshape(width, height int) {
	width, height = max(width, 0), max(height, 0)
	n := width * height
	if cap(g.Data) < n {
		g.Data = make([]T, n)
	} else {
		g.Data = g.Data[:n]
	}
	g.Width = width
	g.Height = height
	g.Stride = width
}

// Fill sets every pixel to v.
func (g *Gray[T]) Fill(v T) {
	for y := 0; y < g.Height; y++ {
		row := g.Data[y*g.Stride : y*g.Stride+g.Width]
		for i := range row {
			row[i] = v
		}
	}
}

// SameShape reports whether two images have equal width and height.
func SameShape[A, B Pixel](a *Gray[A], b *Gray[B]) bool {
	return a.Width == b.Width && a.Height == b.Height
}

func (g *Gray[T]) String() string {
	return fmt.Sprintf("Gray[%T](%dx%d)", *new(T), g.Width, g.Height)
}

// ConvertGray copies src into dst, converting each pixel to dst's type.
// dst is reshaped to match src.
func ConvertGray[S, D Pixel](src *Gray[S], dst *Gray[D]) {
	dst.Reshape(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		s := src.Data[y*src.Stride : y*src.Stride+src.Width]
		d := dst.Data[y*dst.Stride : y*dst.Stride+dst.Width]
		for x, v := range s {
			d[x] = D(v)
		}
	}
}
