package detection

import (
	"github.com/ironsheep/corner-tools-mcp/internal/imaging"
	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// NonMax extracts local extrema from an intensity image.
//
// A pixel is a maximum when its value is at least ThresholdMax and strictly
// greater than every other pixel in the (2*Radius+1) square window around it.
// Minimums mirror this with values at most -ThresholdMin. The window is
// clipped at the image edge; pixels closer than IgnoreBorder to the edge are
// skipped.
//
// With UseCandidates set only pixels offered by a CandidateSource are
// checked, through ProcessCandidates.
type NonMax struct {
	Radius         int
	ThresholdMin   float64
	ThresholdMax   float64
	IgnoreBorder   int
	DetectMinimums bool
	DetectMaximums bool
	UseCandidates  bool
}

// Process resets minimums and maximums and fills them with the extrema found
// in intensity. Either queue may be nil when that kind is not detected.
func (n *NonMax) Process(intensity *imaging.GrayF64, minimums, maximums *queue.Corners) {
	resetAll(minimums, maximums)
	n.scan(intensity, minimums, maximums)
}

// ProcessCandidates resets minimums and maximums and fills them with the
// candidates in candMin and candMax that pass the same tests as Process.
// Candidates inside the ignored border are dropped.
func (n *NonMax) ProcessCandidates(intensity *imaging.GrayF64, candMin, candMax, minimums, maximums *queue.Corners) {
	resetAll(minimums, maximums)

	if n.DetectMaximums && candMax != nil && maximums != nil {
		candMax.Each(func(_ int, p *queue.Point2D) {
			if n.inside(intensity, p.X, p.Y) && n.isMaximum(intensity, p.X, p.Y) {
				maximums.Add(p.X, p.Y)
			}
		})
	}
	if n.DetectMinimums && candMin != nil && minimums != nil {
		candMin.Each(func(_ int, p *queue.Point2D) {
			if n.inside(intensity, p.X, p.Y) && n.isMinimum(intensity, p.X, p.Y) {
				minimums.Add(p.X, p.Y)
			}
		})
	}
}

// scan appends every extremum in intensity to the queues.
func (n *NonMax) scan(intensity *imaging.GrayF64, minimums, maximums *queue.Corners) {
	w, h := intensity.Width, intensity.Height
	border := max(n.IgnoreBorder, 0)
	for y := border; y < h-border; y++ {
		for x := border; x < w-border; x++ {
			if n.DetectMaximums && maximums != nil && n.isMaximum(intensity, x, y) {
				maximums.Add(x, y)
			} else if n.DetectMinimums && minimums != nil && n.isMinimum(intensity, x, y) {
				minimums.Add(x, y)
			}
		}
	}
}

func (n *NonMax) inside(intensity *imaging.GrayF64, x, y int) bool {
	border := max(n.IgnoreBorder, 0)
	return x >= border && y >= border && x < intensity.Width-border && y < intensity.Height-border
}

func (n *NonMax) isMaximum(intensity *imaging.GrayF64, x, y int) bool {
	v := intensity.Get(x, y)
	return v >= n.ThresholdMax && n.isExtreme(intensity, x, y, v, true)
}

func (n *NonMax) isMinimum(intensity *imaging.GrayF64, x, y int) bool {
	v := intensity.Get(x, y)
	return v <= -n.ThresholdMin && n.isExtreme(intensity, x, y, v, false)
}

func (n *NonMax) isExtreme(intensity *imaging.GrayF64, cx, cy int, v float64, maximum bool) bool {
	x0, x1 := max(cx-n.Radius, 0), min(cx+n.Radius, intensity.Width-1)
	y0, y1 := max(cy-n.Radius, 0), min(cy+n.Radius, intensity.Height-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if x == cx && y == cy {
				continue
			}
			o := intensity.Get(x, y)
			if maximum && o >= v {
				return false
			}
			if !maximum && o <= v {
				return false
			}
		}
	}
	return true
}

func resetAll(lists ...*queue.Corners) {
	for _, l := range lists {
		if l != nil {
			l.Reset()
		}
	}
}
