package detection

import (
	"math"

	"github.com/ironsheep/corner-tools-mcp/internal/imaging"
	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// Intensity computes a corner response for every pixel from image gradients.
//
// Large positive values mark corners. Pixels within IgnoreBorder of the image
// edge are written as zero and must not be treated as features.
type Intensity interface {
	// Process fills out (reshaped to the derivative size) with the response.
	Process(dx, dy, out *imaging.GrayF64)

	// IgnoreBorder is the width of the undefined border in pixels.
	IgnoreBorder() int

	// LocalMinimums reports whether negative extrema of the response are
	// meaningful features.
	LocalMinimums() bool

	// LocalMaximums reports whether positive extrema are features.
	LocalMaximums() bool

	// Name identifies the algorithm in logs and results.
	Name() string
}

// CandidateSource is implemented by intensities that also find the pixels
// worth checking during extraction, so NonMax in candidate mode only visits
// those instead of scanning the whole image.
type CandidateSource interface {
	// Candidates appends the candidates of the last Process call. Either
	// queue may be nil when that kind is not wanted.
	Candidates(minimums, maximums *queue.Corners)
}

// Harris is the Harris-Stephens corner response det(M) - Kappa*trace(M)^2
// over a (2*Radius+1) square window of the structure tensor M.
type Harris struct {
	Radius int
	Kappa  float64
}

// Process implements Intensity.
func (h Harris) Process(dx, dy, out *imaging.GrayF64) {
	computeTensor(dx, dy, out, h.Radius, func(xx, xy, yy float64) float64 {
		trace := xx + yy
		return xx*yy - xy*xy - h.Kappa*trace*trace
	})
}

// IgnoreBorder implements Intensity.
func (h Harris) IgnoreBorder() int { return h.Radius }

// LocalMinimums implements Intensity. Edges score negative.
func (h Harris) LocalMinimums() bool { return true }

// LocalMaximums implements Intensity.
func (h Harris) LocalMaximums() bool { return true }

// Name implements Intensity.
func (h Harris) Name() string { return AlgorithmHarris }

// ShiTomasi scores pixels by the smaller eigenvalue of the structure tensor,
// the criterion used to pick features for KLT tracking.
type ShiTomasi struct {
	Radius int
}

// Process implements Intensity.
func (s ShiTomasi) Process(dx, dy, out *imaging.GrayF64) {
	computeTensor(dx, dy, out, s.Radius, func(xx, xy, yy float64) float64 {
		half := (xx - yy) / 2
		return (xx+yy)/2 - math.Sqrt(half*half+xy*xy)
	})
}

// IgnoreBorder implements Intensity.
func (s ShiTomasi) IgnoreBorder() int { return s.Radius }

// LocalMinimums implements Intensity. The smaller eigenvalue is never
// negative, so there are no minimums to find.
func (s ShiTomasi) LocalMinimums() bool { return false }

// LocalMaximums implements Intensity.
func (s ShiTomasi) LocalMaximums() bool { return true }

// Name implements Intensity.
func (s ShiTomasi) Name() string { return AlgorithmShiTomasi }

// PeakCandidates wraps an Intensity and offers the strict extrema of each
// 3x3 neighborhood of its last response as candidates. A strict extremum of
// any larger window is always one of them.
type PeakCandidates struct {
	Intensity

	response *imaging.GrayF64
}

// NewPeakCandidates wraps intensity.
func NewPeakCandidates(intensity Intensity) *PeakCandidates {
	return &PeakCandidates{Intensity: intensity}
}

// Process computes the wrapped response and remembers out for Candidates.
func (p *PeakCandidates) Process(dx, dy, out *imaging.GrayF64) {
	p.Intensity.Process(dx, dy, out)
	p.response = out
}

// Candidates implements CandidateSource. It does nothing before the first
// Process call.
func (p *PeakCandidates) Candidates(minimums, maximums *queue.Corners) {
	if p.response == nil {
		return
	}
	peaks := NonMax{
		Radius:         1,
		IgnoreBorder:   p.IgnoreBorder(),
		DetectMinimums: minimums != nil && p.LocalMinimums(),
		DetectMaximums: maximums != nil && p.LocalMaximums(),
	}
	peaks.scan(p.response, minimums, maximums)
}

// computeTensor sums the gradient products over each window and passes them to
// score. Border pixels are set to zero.
//
// Window sums slide: per-column sums over the current rows are updated by one
// row at a time and the window total by one column at a time, so the cost per
// pixel does not depend on radius.
func computeTensor(dx, dy, out *imaging.GrayF64, radius int, score func(xx, xy, yy float64) float64) {
	w, h := dx.Width, dx.Height
	out.Reshape(w, h)
	out.Fill(0)

	size := 2*radius + 1
	if w < size || h < size {
		return
	}

	colXX := make([]float64, w)
	colXY := make([]float64, w)
	colYY := make([]float64, w)
	addRow := func(j int, sign float64) {
		for i := 0; i < w; i++ {
			gx := dx.Get(i, j)
			gy := dy.Get(i, j)
			colXX[i] += sign * gx * gx
			colXY[i] += sign * gx * gy
			colYY[i] += sign * gy * gy
		}
	}
	for j := 0; j < size; j++ {
		addRow(j, 1)
	}

	for y := radius; ; y++ {
		var xx, xy, yy float64
		for i := 0; i < size; i++ {
			xx += colXX[i]
			xy += colXY[i]
			yy += colYY[i]
		}
		for x := radius; ; x++ {
			out.Set(x, y, score(xx, xy, yy))
			in, gone := x+radius+1, x-radius
			if in >= w {
				break
			}
			xx += colXX[in] - colXX[gone]
			xy += colXY[in] - colXY[gone]
			yy += colYY[in] - colYY[gone]
		}
		if y+radius+1 >= h {
			break
		}
		addRow(y-radius, -1)
		addRow(y+radius+1, 1)
	}
}
